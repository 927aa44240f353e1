// Package attachments stores attachment records and resolves them for
// URL signing.
package attachments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wiki/internal/links"
	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// DefaultRedirectBase is the path under which attachment redirects live.
const DefaultRedirectBase = "/api"

// Record is a stored attachment.
type Record struct {
	bun.BaseModel `bun:"table:attachments,alias:att"`

	ID          uuid.UUID `bun:",pk,type:uuid"             json:"id"`
	Key         string    `bun:"key,notnull"               json:"key"`
	Name        string    `bun:"name"                      json:"name"`
	ContentType string    `bun:"content_type"              json:"content_type"`
	Size        int64     `bun:"size,notnull,default:0"    json:"size"`
	OwnerID     string    `bun:"owner_id,notnull"          json:"owner_id"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Attachment converts r to the collaborator shape with its redirect URL
// under base.
func (r *Record) Attachment(base string) interfaces.Attachment {
	id := r.ID.String()
	return interfaces.Attachment{
		ID:          id,
		Key:         r.Key,
		RedirectURL: links.AttachmentURL(base, id),
		Name:        r.Name,
		ContentType: r.ContentType,
		Size:        r.Size,
		OwnerID:     r.OwnerID,
	}
}

// NotFoundError is returned when an attachment does not exist.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("attachment %q not found", e.Key)
}

// parseIDs keeps the ids that are valid UUIDs, without duplicates.
func parseIDs(ids []string) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
