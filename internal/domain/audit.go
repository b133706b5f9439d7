package domain

import (
	"context"
	"time"
)

// Audit entry statuses.
const (
	AuditStatusOK    = "ok"
	AuditStatusError = "error"
)

// AuditEntry is one record of a directory operation attempted through the
// portal. Only the portal's own records are stored; directory entities are
// never cached locally.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    string // e.g. "user.create", "settings.replace"
	Target    string
	Status    string // "ok" or "error"
	Message   string
	RequestID string
	CreatedAt time.Time
}

// AuditFilter narrows audit listings. Nil fields mean "no filter".
type AuditFilter struct {
	Actor  *string
	Action *string
	Status *string
	Page   PageRequest
}

// AuditRepository persists and queries audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
