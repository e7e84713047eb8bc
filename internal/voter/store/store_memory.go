package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"canvass/internal/hierarchy"
	"canvass/internal/visibility"
	"canvass/internal/voter/models"
	"canvass/pkg/platform/sentinel"
)

// InMemory keeps voters and history in process. It favors clarity over
// performance and exists to make the service testable without a database;
// predicate evaluation delegates to visibility.Matches so the memory path and
// the SQL path share one source of truth per clause kind.
type InMemory struct {
	dir hierarchy.Directory

	mu      sync.RWMutex
	voters  map[string]models.Voter
	history map[string][]models.EditHistory
}

func NewInMemory(dir hierarchy.Directory) *InMemory {
	return &InMemory{
		dir:     dir,
		voters:  make(map[string]models.Voter),
		history: make(map[string][]models.EditHistory),
	}
}

func (s *InMemory) Insert(_ context.Context, v models.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.voters[v.ID]; exists {
		return sentinel.ErrConflict
	}
	s.voters[v.ID] = v
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.voters[id]; ok {
		return v, nil
	}
	return models.Voter{}, sentinel.ErrNotFound
}

func (s *InMemory) UpdateWithHistory(_ context.Context, updated models.Voter, prevUpdatedAt time.Time, entries []models.EditHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.voters[updated.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !current.UpdatedAt.Equal(prevUpdatedAt) {
		return sentinel.ErrConflict
	}

	s.voters[updated.ID] = updated
	s.history[updated.ID] = append(s.history[updated.ID], entries...)
	return nil
}

// snapshotVisible collects records matching the predicate. Caller filters are
// applied by the caller so Count and List share the same visibility pass.
func (s *InMemory) snapshotVisible(ctx context.Context, p visibility.Predicate) ([]models.Voter, error) {
	s.mu.RLock()
	all := make([]models.Voter, 0, len(s.voters))
	for _, v := range s.voters {
		all = append(all, v)
	}
	s.mu.RUnlock()

	// Matches may call the directory; do it outside the lock.
	out := make([]models.Voter, 0, len(all))
	for _, v := range all {
		ok, err := visibility.Matches(ctx, p, v.Ownership, s.dir)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func newestFirst(vs []models.Voter) {
	sort.Slice(vs, func(i, j int) bool {
		if !vs[i].InsertedAt.Equal(vs[j].InsertedAt) {
			return vs[i].InsertedAt.After(vs[j].InsertedAt)
		}
		return vs[i].ID > vs[j].ID
	})
}

func (s *InMemory) List(ctx context.Context, p visibility.Predicate, f models.Filters, page models.Page) ([]models.Voter, error) {
	visible, err := s.snapshotVisible(ctx, p)
	if err != nil {
		return nil, err
	}

	filtered := visible[:0]
	for _, v := range visible {
		if matchFilters(v, f) {
			filtered = append(filtered, v)
		}
	}
	newestFirst(filtered)

	page = page.Normalize()
	if page.Offset >= len(filtered) {
		return []models.Voter{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return append([]models.Voter{}, filtered[page.Offset:end]...), nil
}

func (s *InMemory) Count(ctx context.Context, p visibility.Predicate, f models.Filters) (int, error) {
	visible, err := s.snapshotVisible(ctx, p)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range visible {
		if matchFilters(v, f) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) ListDeleted(_ context.Context) ([]models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Voter, 0)
	for _, v := range s.voters {
		if v.Deleted() {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeletedAt.After(*out[j].DeletedAt)
	})
	return out, nil
}

func (s *InMemory) SearchByPhone(ctx context.Context, p visibility.Predicate, phone string) ([]models.Voter, error) {
	visible, err := s.snapshotVisible(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]models.Voter, 0)
	for _, v := range visible {
		if v.Phone == phone {
			out = append(out, v)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *InMemory) CountByPhone(_ context.Context, phone string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.voters {
		if v.IsActive && v.Phone == phone {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) HistoryByVoter(_ context.Context, voterID string) ([]models.EditHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.EditHistory{}, s.history[voterID]...), nil
}

func (s *InMemory) Statistics(ctx context.Context, p visibility.Predicate) (models.Statistics, error) {
	visible, err := s.snapshotVisible(ctx, p)
	if err != nil {
		return models.Statistics{}, err
	}

	stats := models.Statistics{
		BySupportLevel:  make(map[models.SupportLevel]int),
		ByContactStatus: make(map[models.ContactStatus]int),
	}
	for _, v := range visible {
		stats.Total++
		if v.IsActive {
			stats.Active++
			stats.BySupportLevel[v.SupportLevel]++
			stats.ByContactStatus[v.ContactStatus]++
		} else {
			stats.Deleted++
		}
	}
	return stats, nil
}

func (s *InMemory) InsertionActivity(ctx context.Context, p visibility.Predicate, from, to time.Time) ([]models.DayCount, error) {
	visible, err := s.snapshotVisible(ctx, p)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]int)
	for _, v := range visible {
		if v.InsertedAt.Before(from) || v.InsertedAt.After(to) {
			continue
		}
		day := v.InsertedAt.UTC().Truncate(24 * time.Hour)
		byDay[day]++
	}

	out := make([]models.DayCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, models.DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (s *InMemory) DuplicateGroups(_ context.Context) ([]models.DuplicateGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPhone := make(map[string][]string)
	for _, v := range s.voters {
		if v.IsActive {
			byPhone[v.Phone] = append(byPhone[v.Phone], v.ID)
		}
	}

	out := make([]models.DuplicateGroup, 0)
	for phone, ids := range byPhone {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		out = append(out, models.DuplicateGroup{Phone: phone, Count: len(ids), VoterIDs: ids})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phone < out[j].Phone
	})
	return out, nil
}

// Len reports the total number of stored rows, deleted included. Tests use it
// to assert the row count never decreases.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.voters)
}
