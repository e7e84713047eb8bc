package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"canvass/internal/hierarchy"
	"canvass/internal/visibility"
	"canvass/internal/voter/models"
	"canvass/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	dir   *hierarchy.InMemoryDirectory
	store *InMemory
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = hierarchy.NewInMemoryDirectory()
	s.dir.Put(hierarchy.Entry{UserID: "fw-1", Role: models.RoleFieldWorker, AreaManagerID: "am-1", CityID: "haifa", ActivistCoordinatorID: "ac-1"})
	s.dir.Put(hierarchy.Entry{UserID: "fw-2", Role: models.RoleFieldWorker, AreaManagerID: "am-2", CityID: "eilat", ActivistCoordinatorID: "ac-2"})
	s.store = NewInMemory(s.dir)
}

func (s *MemoryStoreSuite) newVoter(inserter, phone string, insertedAt time.Time) models.Voter {
	return models.Voter{
		ID:            uuid.NewString(),
		FullName:      "Voter " + phone,
		Phone:         phone,
		SupportLevel:  models.SupportUndecided,
		ContactStatus: models.ContactNotContacted,
		Priority:      models.PriorityNormal,
		Ownership: models.Ownership{
			InsertedByUserID: inserter,
			InsertedByName:   "Inserter " + inserter,
			InsertedByRole:   models.RoleFieldWorker,
		},
		IsActive:   true,
		InsertedAt: insertedAt,
		UpdatedAt:  insertedAt,
	}
}

func (s *MemoryStoreSuite) TestInsertAndFind() {
	v := s.newVoter("fw-1", "0521111111", time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, v))

	found, err := s.store.FindByID(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.FullName, found.FullName)

	s.Run("duplicate id conflicts", func() {
		s.Require().ErrorIs(s.store.Insert(s.ctx, v), sentinel.ErrConflict)
	})

	s.Run("unknown id not found", func() {
		_, err := s.store.FindByID(s.ctx, uuid.NewString())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUpdateWithHistoryOptimisticCheck() {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	v := s.newVoter("fw-1", "0521111111", base)
	s.Require().NoError(s.store.Insert(s.ctx, v))

	updated := v
	updated.Notes = "spoke on the phone"
	updated.UpdatedAt = base.Add(time.Minute)
	entry := models.EditHistory{
		ID: uuid.NewString(), VoterID: v.ID,
		EditorUserID: "fw-1", EditorName: "Dana", EditorRole: models.RoleFieldWorker,
		Field: models.FieldNotes, NewValue: "spoke on the phone", EditedAt: updated.UpdatedAt,
	}

	s.Run("succeeds against the matching timestamp", func() {
		s.Require().NoError(s.store.UpdateWithHistory(s.ctx, updated, base, []models.EditHistory{entry}))

		history, err := s.store.HistoryByVoter(s.ctx, v.ID)
		s.Require().NoError(err)
		s.Require().Len(history, 1)
		s.Equal(models.FieldNotes, history[0].Field)
	})

	s.Run("stale timestamp conflicts", func() {
		again := updated
		again.Notes = "second edit"
		err := s.store.UpdateWithHistory(s.ctx, again, base, nil)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("missing record not found", func() {
		ghost := s.newVoter("fw-1", "0520000000", base)
		err := s.store.UpdateWithHistory(s.ctx, ghost, base, nil)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestListAppliesPredicateFiltersAndOrder() {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		v := s.newVoter("fw-1", fmt.Sprintf("052111111%d", i), base.Add(time.Duration(i)*time.Hour))
		s.Require().NoError(s.store.Insert(s.ctx, v))
	}
	other := s.newVoter("fw-2", "0529999999", base.Add(10*time.Hour))
	s.Require().NoError(s.store.Insert(s.ctx, other))

	s.Run("self predicate sees only own records, newest first", func() {
		p := visibility.Predicate{Clauses: []visibility.Clause{{InsertedBy: "fw-1"}}}
		got, err := s.store.List(s.ctx, p, models.Filters{ActiveOnly: true}, models.Page{})
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		for i := 1; i < len(got); i++ {
			s.False(got[i].InsertedAt.After(got[i-1].InsertedAt), "expected newest first")
		}
	})

	s.Run("area predicate resolves through directory", func() {
		p := visibility.Predicate{Clauses: []visibility.Clause{{InserterAreaManagerID: "am-2"}}}
		got, err := s.store.List(s.ctx, p, models.Filters{ActiveOnly: true}, models.Page{})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(other.ID, got[0].ID)
	})

	s.Run("empty predicate fails closed", func() {
		got, err := s.store.List(s.ctx, visibility.MatchNone(), models.Filters{}, models.Page{})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("pagination clamps", func() {
		got, err := s.store.List(s.ctx, visibility.MatchAll(), models.Filters{}, models.Page{Limit: 2, Offset: 3})
		s.Require().NoError(err)
		s.Len(got, 1)

		got, err = s.store.List(s.ctx, visibility.MatchAll(), models.Filters{}, models.Page{Offset: 100})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("count matches list", func() {
		n, err := s.store.Count(s.ctx, visibility.MatchAll(), models.Filters{ActiveOnly: true})
		s.Require().NoError(err)
		s.Equal(4, n)
	})
}

func (s *MemoryStoreSuite) TestEnumFilters() {
	base := time.Now()
	supporter := s.newVoter("fw-1", "0521111111", base)
	supporter.SupportLevel = models.SupportSupporter
	s.Require().NoError(s.store.Insert(s.ctx, supporter))
	s.Require().NoError(s.store.Insert(s.ctx, s.newVoter("fw-1", "0522222222", base)))

	level := models.SupportSupporter
	got, err := s.store.List(s.ctx, visibility.MatchAll(), models.Filters{SupportLevel: &level}, models.Page{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(supporter.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestSoftDeletedRowsNeverLeaveTheStore() {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	v := s.newVoter("fw-1", "0521111111", base)
	s.Require().NoError(s.store.Insert(s.ctx, v))
	before := s.store.Len()

	deletedAt := base.Add(time.Hour)
	deleted := v
	deleted.IsActive = false
	deleted.DeletedAt = &deletedAt
	deleted.DeletedByUserID = "fw-1"
	deleted.UpdatedAt = deletedAt
	s.Require().NoError(s.store.UpdateWithHistory(s.ctx, deleted, base, nil))

	s.Equal(before, s.store.Len(), "row count must never decrease")

	s.Run("deleted row is still findable by id", func() {
		found, err := s.store.FindByID(s.ctx, v.ID)
		s.Require().NoError(err)
		s.True(found.Deleted())
	})

	s.Run("active-only listing hides it", func() {
		got, err := s.store.List(s.ctx, visibility.MatchAll(), models.Filters{ActiveOnly: true}, models.Page{})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("deleted listing shows it", func() {
		got, err := s.store.ListDeleted(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(v.ID, got[0].ID)
	})
}

func (s *MemoryStoreSuite) TestSearchAndCountByPhone() {
	base := time.Now()
	s.Require().NoError(s.store.Insert(s.ctx, s.newVoter("fw-1", "0521234567", base)))
	s.Require().NoError(s.store.Insert(s.ctx, s.newVoter("fw-2", "0521234567", base.Add(time.Hour))))

	s.Run("count ignores visibility", func() {
		n, err := s.store.CountByPhone(s.ctx, "0521234567")
		s.Require().NoError(err)
		s.Equal(2, n)
	})

	s.Run("search respects visibility", func() {
		p := visibility.Predicate{Clauses: []visibility.Clause{{InsertedBy: "fw-1"}}}
		got, err := s.store.SearchByPhone(s.ctx, p, "0521234567")
		s.Require().NoError(err)
		s.Len(got, 1)
	})
}

func (s *MemoryStoreSuite) TestStatisticsAndActivity() {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	active := s.newVoter("fw-1", "0521111111", base)
	active.SupportLevel = models.SupportSupporter
	s.Require().NoError(s.store.Insert(s.ctx, active))

	gone := s.newVoter("fw-1", "0522222222", base.Add(26*time.Hour))
	deletedAt := base.Add(30 * time.Hour)
	gone.IsActive = false
	gone.DeletedAt = &deletedAt
	gone.DeletedByUserID = "fw-1"
	s.Require().NoError(s.store.Insert(s.ctx, gone))

	stats, err := s.store.Statistics(s.ctx, visibility.MatchAll())
	s.Require().NoError(err)
	s.Equal(2, stats.Total)
	s.Equal(1, stats.Active)
	s.Equal(1, stats.Deleted)
	s.Equal(1, stats.BySupportLevel[models.SupportSupporter])

	days, err := s.store.InsertionActivity(s.ctx, visibility.MatchAll(), base.Add(-time.Hour), base.Add(48*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(days, 2)
	s.Equal(1, days[0].Count)
	s.True(days[0].Day.Before(days[1].Day))
}

func (s *MemoryStoreSuite) TestDuplicateGroups() {
	base := time.Now()
	a := s.newVoter("fw-1", "0521234567", base)
	b := s.newVoter("fw-2", "0521234567", base)
	c := s.newVoter("fw-1", "0529999999", base)
	for _, v := range []models.Voter{a, b, c} {
		s.Require().NoError(s.store.Insert(s.ctx, v))
	}

	groups, err := s.store.DuplicateGroups(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal("0521234567", groups[0].Phone)
	s.Equal(2, groups[0].Count)
	s.Len(groups[0].VoterIDs, 2)
}
