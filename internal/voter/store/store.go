// Package store persists voter records and their edit history. Stores are
// pure I/O behind one interface so the service can run identically against
// PostgreSQL and the in-memory map; both implementations pass the same
// contract suite.
package store

import (
	"context"
	"time"

	"canvass/internal/visibility"
	"canvass/internal/voter/models"
)

// Store is the persistence contract for the voter repository.
//
// Substitutability is a requirement, not an aspiration: any behavior
// observable through this interface must be identical across backends.
// Nothing in this interface can remove a row; deletion is an update.
type Store interface {
	// Insert persists a new voter record.
	Insert(ctx context.Context, v models.Voter) error

	// FindByID returns the record regardless of lifecycle state, or
	// sentinel.ErrNotFound.
	FindByID(ctx context.Context, id string) (models.Voter, error)

	// UpdateWithHistory writes the updated record and appends its history
	// rows as one atomic unit. prevUpdatedAt is the optimistic concurrency
	// check: if the stored record has moved on, sentinel.ErrConflict is
	// returned and nothing is written.
	UpdateWithHistory(ctx context.Context, updated models.Voter, prevUpdatedAt time.Time, entries []models.EditHistory) error

	// List returns records matching the visibility predicate and filters,
	// newest-first, paginated.
	List(ctx context.Context, p visibility.Predicate, f models.Filters, page models.Page) ([]models.Voter, error)

	// Count counts records matching the visibility predicate and filters.
	Count(ctx context.Context, p visibility.Predicate, f models.Filters) (int, error)

	// ListDeleted returns all soft-deleted records, newest deletion first.
	ListDeleted(ctx context.Context) ([]models.Voter, error)

	// SearchByPhone returns visible records with exactly this phone number.
	SearchByPhone(ctx context.Context, p visibility.Predicate, phone string) ([]models.Voter, error)

	// CountByPhone counts active records with this phone number, for the
	// non-blocking duplicate report at create time.
	CountByPhone(ctx context.Context, phone string) (int, error)

	// HistoryByVoter returns the append-only edit history, oldest first.
	HistoryByVoter(ctx context.Context, voterID string) ([]models.EditHistory, error)

	// Statistics aggregates over the visibility-filtered set in set-oriented
	// queries, never per-record fan-out.
	Statistics(ctx context.Context, p visibility.Predicate) (models.Statistics, error)

	// InsertionActivity returns per-day insertion counts over the
	// visibility-filtered set for [from, to].
	InsertionActivity(ctx context.Context, p visibility.Predicate, from, to time.Time) ([]models.DayCount, error)

	// DuplicateGroups returns phone groups of size >= 2 across all active
	// records. Global by design; the service gates it to the admin.
	DuplicateGroups(ctx context.Context) ([]models.DuplicateGroup, error)
}

// matchFilters applies caller filters to a record; shared by the memory
// backend and tests.
func matchFilters(v models.Voter, f models.Filters) bool {
	if f.ActiveOnly && !v.IsActive {
		return false
	}
	if f.SupportLevel != nil && v.SupportLevel != *f.SupportLevel {
		return false
	}
	if f.ContactStatus != nil && v.ContactStatus != *f.ContactStatus {
		return false
	}
	if f.Priority != nil && v.Priority != *f.Priority {
		return false
	}
	return true
}
