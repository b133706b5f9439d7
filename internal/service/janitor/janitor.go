// Package janitor runs the portal's local housekeeping on a cron schedule.
// It touches only process-local state (the token cache) and the portal's own
// audit store; it never calls the remote directory.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"dirportal/internal/auth"
	"dirportal/internal/service/audit"
)

const (
	sweepSchedule = "@every 10m"
	pruneSchedule = "@daily"
)

// Janitor owns the background sweep of stale token grants and the audit
// retention prune.
type Janitor struct {
	cron      *cron.Cron
	tokens    *auth.TokenCache
	audit     *audit.Service
	retention time.Duration
	logger    *slog.Logger
}

// New creates a janitor. Retention bounds how long audit rows are kept.
func New(tokens *auth.TokenCache, auditSvc *audit.Service, retention time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		cron:      cron.New(),
		tokens:    tokens,
		audit:     auditSvc,
		retention: retention,
		logger:    logger,
	}
}

// Start registers the schedules and starts the cron loop.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(sweepSchedule, j.sweepTokens); err != nil {
		return fmt.Errorf("register token sweep: %w", err)
	}
	if _, err := j.cron.AddFunc(pruneSchedule, j.pruneAudit); err != nil {
		return fmt.Errorf("register audit prune: %w", err)
	}
	j.cron.Start()
	j.logger.Info("janitor started", "audit_retention", j.retention)
	return nil
}

// Stop stops the cron loop. Jobs already running finish on their own.
func (j *Janitor) Stop() {
	j.cron.Stop()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) sweepTokens() {
	if removed := j.tokens.Sweep(time.Now()); removed > 0 {
		j.logger.Info("swept stale token grants", "removed", removed)
	}
}

func (j *Janitor) pruneAudit() {
	if _, err := j.audit.Prune(context.Background(), j.retention); err != nil {
		j.logger.Warn("audit prune failed", "error", err)
	}
}
