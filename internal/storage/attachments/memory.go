package attachments

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-wiki/pkg/interfaces"
)

// MemoryStore keeps attachments in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	records      map[uuid.UUID]Record
	redirectBase string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(redirectBase string) *MemoryStore {
	if redirectBase == "" {
		redirectBase = DefaultRedirectBase
	}
	return &MemoryStore{records: map[uuid.UUID]Record{}, redirectBase: redirectBase}
}

var _ interfaces.AttachmentFinder = (*MemoryStore)(nil)

// Put stores record, assigning an id when it has none.
func (s *MemoryStore) Put(record Record) Record {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()
	return record
}

func (s *MemoryStore) FindAttachmentsByIDsAndOwner(_ context.Context, ids []string, ownerID string) ([]interfaces.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []interfaces.Attachment
	for _, id := range parseIDs(ids) {
		record, ok := s.records[id]
		if !ok || record.OwnerID != ownerID || ownerID == "" {
			continue
		}
		out = append(out, record.Attachment(s.redirectBase))
	}
	return out, nil
}
