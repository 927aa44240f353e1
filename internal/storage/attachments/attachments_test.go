package attachments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-wiki/internal/storage/attachments"
	"github.com/goliatone/go-wiki/pkg/testsupport"
)

func newDB(t *testing.T) *bun.DB {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)

	require.NoError(t, attachments.EnsureSchema(context.Background(), db))
	return db
}

func TestBunRepositoryFindsOwnedAttachmentsInOrder(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	require.NoError(t, err)

	repo := attachments.NewBunRepositoryWithCache(db, cacheSvc, repocache.NewDefaultKeySerializer(), "/api")

	first := uuid.MustParse("00000000-0000-0000-0000-0000000a0001")
	second := uuid.MustParse("00000000-0000-0000-0000-0000000a0002")
	foreign := uuid.MustParse("00000000-0000-0000-0000-0000000a0003")
	for _, rec := range []*attachments.Record{
		{ID: first, Key: "uploads/team-1/first.pdf", Name: "first.pdf", OwnerID: "team-1", Size: 10},
		{ID: second, Key: "uploads/team-1/second.png", Name: "second.png", OwnerID: "team-1", Size: 20},
		{ID: foreign, Key: "uploads/team-2/other.png", Name: "other.png", OwnerID: "team-2", Size: 30},
	} {
		_, err := repo.Create(ctx, rec)
		require.NoError(t, err)
	}

	found, err := repo.FindAttachmentsByIDsAndOwner(ctx, []string{
		second.String(), "not-a-uuid", foreign.String(), first.String(), second.String(),
	}, "team-1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, second.String(), found[0].ID)
	require.Equal(t, "uploads/team-1/second.png", found[0].Key)
	require.Equal(t, "/api/attachments.redirect?id="+second.String(), found[0].RedirectURL)
	require.Equal(t, first.String(), found[1].ID)
	require.Equal(t, int64(10), found[1].Size)

	none, err := repo.FindAttachmentsByIDsAndOwner(ctx, []string{"bogus"}, "team-1")
	require.NoError(t, err)
	require.Empty(t, none)

	got, err := repo.GetByKey(ctx, "uploads/team-2/other.png")
	require.NoError(t, err)
	require.Equal(t, foreign, got.ID)

	_, err = repo.GetByID(ctx, uuid.MustParse("00000000-0000-0000-0000-0000000affff"))
	var notFound *attachments.NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestMemoryStore(t *testing.T) {
	store := attachments.NewMemoryStore("")
	a := store.Put(attachments.Record{Key: "k/a", OwnerID: "team-1"})
	b := store.Put(attachments.Record{Key: "k/b", OwnerID: "team-2"})

	found, err := store.FindAttachmentsByIDsAndOwner(context.Background(), []string{b.ID.String(), a.ID.String()}, "team-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, a.ID.String(), found[0].ID)
	require.Equal(t, "/api/attachments.redirect?id="+a.ID.String(), found[0].RedirectURL)

	found, err = store.FindAttachmentsByIDsAndOwner(context.Background(), []string{a.ID.String()}, "")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestOpen(t *testing.T) {
	db, err := attachments.Open("sqlite", "file:open_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, attachments.EnsureSchema(context.Background(), db))
	require.NoError(t, attachments.EnsureSchema(context.Background(), db), "schema creation is idempotent")

	repo := attachments.NewBunRepository(db, "")
	created, err := repo.Create(context.Background(), &attachments.Record{Key: "uploads/open.txt", OwnerID: "team-1"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	_, err = attachments.Open("mysql", "root@/wiki")
	require.ErrorIs(t, err, attachments.ErrUnsupportedDriver)
}
