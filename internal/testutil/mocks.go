// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"
	"time"

	"dirportal/internal/domain"
)

// MockAuditRepo implements domain.AuditRepository for testing. The zero value
// behaves like a small in-memory store: Insert collects entries (filling ID
// and CreatedAt the way the SQL repository does), List honors the filter and
// paging, DeleteBefore drops entries by CreatedAt. The Fn fields override
// individual methods.
type MockAuditRepo struct {
	mu sync.Mutex

	InsertFn       func(ctx context.Context, e *domain.AuditEntry) error
	ListFn         func(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error)
	DeleteBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)

	// Entries holds collected inserts. Tests may preseed it.
	Entries []domain.AuditEntry

	// LastFilter and LastCutoff capture the most recent List and DeleteBefore
	// arguments for assertions.
	LastFilter domain.AuditFilter
	LastCutoff time.Time
}

// Insert records the entry unless InsertFn rejects it.
func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	cp := *e
	if cp.ID == "" {
		cp.ID = domain.NewID()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, cp)
	return nil
}

// List returns ListFn's result, or filters and pages the collected entries.
func (m *MockAuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	m.mu.Lock()
	m.LastFilter = filter
	m.mu.Unlock()
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]domain.AuditEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if filter.Actor != nil && e.Actor != *filter.Actor {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))

	off := filter.Page.Offset()
	if off > len(matched) {
		off = len(matched)
	}
	end := off + filter.Page.Limit()
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]domain.AuditEntry, end-off)
	copy(out, matched[off:end])
	return out, total, nil
}

// DeleteBefore returns DeleteBeforeFn's result, or drops collected entries
// whose CreatedAt falls before the cutoff.
func (m *MockAuditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	m.LastCutoff = cutoff
	m.mu.Unlock()
	if m.DeleteBeforeFn != nil {
		return m.DeleteBeforeFn(ctx, cutoff)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Entries[:0]
	var removed int64
	for _, e := range m.Entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.Entries = kept
	return removed, nil
}

// Count reports how many entries the mock currently holds.
func (m *MockAuditRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

// Last returns the most recently collected entry.
func (m *MockAuditRepo) Last() (domain.AuditEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return domain.AuditEntry{}, false
	}
	return m.Entries[len(m.Entries)-1], true
}
