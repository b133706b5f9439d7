package janitor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"dirportal/internal/auth"
	"dirportal/internal/domain"
	"dirportal/internal/service/audit"
	"dirportal/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJanitor(repo *testutil.MockAuditRepo, retention time.Duration) (*Janitor, *auth.TokenCache) {
	tokens := auth.NewTokenCache()
	svc := audit.NewService(repo, discardLogger(), nil)
	return New(tokens, svc, retention, discardLogger()), tokens
}

func TestStartRegistersSchedules(t *testing.T) {
	t.Parallel()

	j, _ := newJanitor(&testutil.MockAuditRepo{}, time.Hour)
	require.NoError(t, j.Start())
	t.Cleanup(j.Stop)

	assert.Len(t, j.cron.Entries(), 2)
}

func TestStopDoesNotPanic(t *testing.T) {
	t.Parallel()

	j, _ := newJanitor(&testutil.MockAuditRepo{}, time.Hour)
	require.NoError(t, j.Start())

	assert.NotPanics(t, j.Stop)
}

func TestSweepTokensDropsStaleGrants(t *testing.T) {
	t.Parallel()

	j, tokens := newJanitor(&testutil.MockAuditRepo{}, time.Hour)
	now := time.Now()
	tokens.Put("stale", auth.Grant{Token: &oauth2.Token{AccessToken: "a", Expiry: now.Add(-9 * time.Hour)}})
	tokens.Put("fresh", auth.Grant{Token: &oauth2.Token{AccessToken: "b", Expiry: now.Add(time.Hour)}})

	j.sweepTokens()

	assert.Equal(t, 1, tokens.Len())
	_, ok := tokens.Get("fresh")
	assert.True(t, ok, "fresh grant survives the sweep")
}

func TestPruneAuditHonorsRetention(t *testing.T) {
	t.Parallel()

	repo := &testutil.MockAuditRepo{}
	now := time.Now()
	repo.Entries = []domain.AuditEntry{
		{ID: "old", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "recent", CreatedAt: now.Add(-10 * time.Minute)},
	}

	j, _ := newJanitor(repo, time.Hour)
	j.pruneAudit()

	assert.Equal(t, 1, repo.Count())
}
