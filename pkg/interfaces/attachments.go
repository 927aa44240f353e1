package interfaces

import (
	"context"
	"time"
)

// Attachment describes a stored binary file referenced from a document.
// RedirectURL is the stable, unsigned URL embedded in document trees
// (".../attachments.redirect?id=<ID>").
type Attachment struct {
	ID          string
	Key         string
	RedirectURL string
	Name        string
	ContentType string
	Size        int64
	OwnerID     string
}

// AttachmentFinder resolves attachment records scoped to an owner. Ids that do
// not exist or belong to another owner are omitted from the result.
type AttachmentFinder interface {
	FindAttachmentsByIDsAndOwner(ctx context.Context, ids []string, ownerID string) ([]Attachment, error)
}

// URLSigner issues time-limited URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
