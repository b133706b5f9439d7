// Package audit records who did what against the directory. Entries are
// best-effort: a failed insert is logged, never surfaced, so auditing can not
// take a mutation down with it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"dirportal/internal/domain"
)

// Service writes and reads the audit trail.
type Service struct {
	repo      domain.AuditRepository
	logger    *slog.Logger
	requestID func(context.Context) string
}

// NewService creates an audit service. requestID extracts the request id
// assigned by the HTTP layer; pass nil outside a server context.
func NewService(repo domain.AuditRepository, logger *slog.Logger, requestID func(context.Context) string) *Service {
	if requestID == nil {
		requestID = func(context.Context) string { return "" }
	}
	return &Service{repo: repo, logger: logger, requestID: requestID}
}

// Record writes one entry for a directory mutation. The actor comes from the
// signed-in principal on the context; opErr turns the entry into a failure
// record carrying the error text.
func (s *Service) Record(ctx context.Context, action, target string, opErr error) {
	p, _ := domain.PrincipalFromContext(ctx)
	e := &domain.AuditEntry{
		Actor:     p.Principal,
		Action:    action,
		Target:    target,
		Status:    domain.AuditStatusOK,
		RequestID: s.requestID(ctx),
	}
	if opErr != nil {
		e.Status = domain.AuditStatusError
		e.Message = opErr.Error()
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		s.logger.Error("audit insert failed", "action", action, "target", target, "error", err)
	}
}

// List returns a page of entries plus the total match count.
func (s *Service) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	return s.repo.List(ctx, filter)
}

// Prune deletes entries older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	removed, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("audit trail pruned", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}
