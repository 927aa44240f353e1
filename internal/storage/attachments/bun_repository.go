package attachments

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// NewRecordRepository creates the generic repository for attachment records.
func NewRecordRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord:          func() *Record { return &Record{} },
		GetID:              func(r *Record) uuid.UUID { return r.ID },
		SetID:              func(r *Record, id uuid.UUID) { r.ID = id },
		GetIdentifier:      func() string { return "key" },
		GetIdentifierValue: func(r *Record) string { return r.Key },
	})
}

// BunRepository persists attachments with bun and optional caching.
type BunRepository struct {
	repo         repository.Repository[*Record]
	redirectBase string
}

// NewBunRepository creates an attachment repository without caching.
func NewBunRepository(db *bun.DB, redirectBase string) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil, redirectBase)
}

// NewBunRepositoryWithCache creates an attachment repository with caching support.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer, redirectBase string) *BunRepository {
	base := NewRecordRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	if redirectBase == "" {
		redirectBase = DefaultRedirectBase
	}
	return &BunRepository{repo: base, redirectBase: redirectBase}
}

var _ interfaces.AttachmentFinder = (*BunRepository)(nil)

func (r *BunRepository) Create(ctx context.Context, record *Record) (*Record, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.repo.Create(ctx, record)
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetByKey(ctx context.Context, key string) (*Record, error) {
	record, err := r.repo.GetByIdentifier(ctx, key)
	if err != nil {
		return nil, mapRepositoryError(err, key)
	}
	return record, nil
}

// FindAttachmentsByIDsAndOwner returns the attachments among ids that
// belong to ownerID, in the order of ids. Malformed ids are ignored.
func (r *BunRepository) FindAttachmentsByIDsAndOwner(ctx context.Context, ids []string, ownerID string) ([]interfaces.Attachment, error) {
	wanted := parseIDs(ids)
	if len(wanted) == 0 || ownerID == "" {
		return nil, nil
	}

	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id IN (?)", bun.In(wanted))
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.owner_id = ?", ownerID)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("attachment repository error: %w", err)
	}

	byID := make(map[uuid.UUID]*Record, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}
	out := make([]interfaces.Attachment, 0, len(records))
	for _, id := range wanted {
		if record, ok := byID[id]; ok {
			out = append(out, record.Attachment(r.redirectBase))
		}
	}
	return out, nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: key}
	}
	return fmt.Errorf("attachment repository error: %w", err)
}
