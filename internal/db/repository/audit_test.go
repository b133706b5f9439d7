package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "dirportal/internal/db"
	"dirportal/internal/domain"
)

func setupAuditRepo(t *testing.T) *AuditRepo {
	t.Helper()
	store := internaldb.OpenTestStore(t)
	return NewAuditRepo(store.Write, store.Read)
}

func ptrStr(s string) *string { return &s }

func makeEntry(actor, action, status string) *domain.AuditEntry {
	return &domain.AuditEntry{
		Actor:     actor,
		Action:    action,
		Target:    "user:00000000-0000-4000-a000-000000000001",
		Status:    status,
		Message:   "ok",
		RequestID: "req-1",
	}
}

func TestAuditRepo_InsertAndList(t *testing.T) {
	repo := setupAuditRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, makeEntry("dana@contoso.example", "user.create", domain.AuditStatusOK)))
	require.NoError(t, repo.Insert(ctx, makeEntry("morgan@contoso.example", "user.delete", domain.AuditStatusError)))

	entries, total, err := repo.List(ctx, domain.AuditFilter{Page: domain.PageRequest{}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	// Insert fills in the id and timestamp.
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestAuditRepo_Filters(t *testing.T) {
	repo := setupAuditRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, makeEntry("dana@contoso.example", "user.create", domain.AuditStatusOK)))
	require.NoError(t, repo.Insert(ctx, makeEntry("dana@contoso.example", "user.delete", domain.AuditStatusOK)))
	require.NoError(t, repo.Insert(ctx, makeEntry("morgan@contoso.example", "user.delete", domain.AuditStatusError)))

	t.Run("by actor", func(t *testing.T) {
		entries, total, err := repo.List(ctx, domain.AuditFilter{Actor: ptrStr("dana@contoso.example")})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, entries, 2)
	})

	t.Run("by action", func(t *testing.T) {
		entries, total, err := repo.List(ctx, domain.AuditFilter{Action: ptrStr("user.delete")})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, entries, 2)
	})

	t.Run("by status", func(t *testing.T) {
		entries, total, err := repo.List(ctx, domain.AuditFilter{Status: ptrStr(domain.AuditStatusError)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, "morgan@contoso.example", entries[0].Actor)
	})

	t.Run("combined", func(t *testing.T) {
		_, total, err := repo.List(ctx, domain.AuditFilter{
			Actor:  ptrStr("dana@contoso.example"),
			Action: ptrStr("user.delete"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestAuditRepo_Pagination(t *testing.T) {
	repo := setupAuditRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := makeEntry("dana@contoso.example", "user.update", domain.AuditStatusOK)
		e.CreatedAt = time.Date(2026, 8, 1, 12, i, 0, 0, time.UTC)
		require.NoError(t, repo.Insert(ctx, e))
	}

	page1, total, err := repo.List(ctx, domain.AuditFilter{Page: domain.PageRequest{MaxResults: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)

	token := domain.NextPageToken(0, 2, total)
	require.NotEmpty(t, token)

	page2, _, err := repo.List(ctx, domain.AuditFilter{Page: domain.PageRequest{MaxResults: 2, PageToken: token}})
	require.NoError(t, err)
	require.Len(t, page2, 2)

	// Newest first, and pages never overlap.
	assert.True(t, page1[0].CreatedAt.After(page1[1].CreatedAt))
	assert.True(t, page1[1].CreatedAt.After(page2[0].CreatedAt))
}

func TestAuditRepo_DeleteBefore(t *testing.T) {
	repo := setupAuditRepo(t)
	ctx := context.Background()

	old := makeEntry("dana@contoso.example", "user.create", domain.AuditStatusOK)
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, repo.Insert(ctx, old))

	recent := makeEntry("dana@contoso.example", "user.update", domain.AuditStatusOK)
	require.NoError(t, repo.Insert(ctx, recent))

	removed, err := repo.DeleteBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	entries, total, err := repo.List(ctx, domain.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "user.update", entries[0].Action)
}
