package service

import (
	"time"

	"go.uber.org/mock/gomock"

	"canvass/internal/audit"
	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
)

func (s *ServiceSuite) TestCreate() {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := s.withNow(now)

	s.Run("stamps ownership, defaults and timestamps", func() {
		s.expectAudit()
		v, err := s.service.Create(ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))
		s.Require().NoError(err)

		s.NotEmpty(v.ID)
		s.Equal("fw-1", v.InsertedByUserID)
		s.Equal(models.SupportUndecided, v.SupportLevel)
		s.Equal(models.ContactNotContacted, v.ContactStatus)
		s.Equal(models.PriorityNormal, v.Priority)
		s.True(v.IsActive)
		s.Equal(now, v.InsertedAt)
		s.Equal(now, v.UpdatedAt)

		stored, err := s.store.FindByID(ctx, v.ID)
		s.Require().NoError(err)
		s.Equal(v.FullName, stored.FullName)
	})

	s.Run("rejects input without ownership", func() {
		in := s.newCreateInput("", "Nobody Knows", "0521234567")
		in.InsertedByName = ""
		_, err := s.service.Create(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects legacy place foreign keys", func() {
		in := s.newCreateInput("fw-1", "Old Payload", "0521234567")
		in.LegacyCityID = "city-17"
		_, err := s.service.Create(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects malformed phone", func() {
		_, err := s.service.Create(ctx, s.newCreateInput("fw-1", "Bad Phone", "123"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestCreateDuplicatePhoneToleratedAndReported() {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := s.withNow(now)

	first := s.mustCreate(ctx, s.newCreateInput("fw-1", "First Record", "0521234567"))
	s.NotEmpty(first.ID)

	// Second creation with the same phone succeeds and emits both the
	// creation event and a duplicate-detection event.
	var actions []audit.Action
	s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, e audit.Event) error {
			actions = append(actions, e.Action)
			return nil
		}).Times(2)

	second, err := s.service.Create(ctx, s.newCreateInput("fw-2", "Second Record", "0521234567"))
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	s.Require().Len(actions, 2)
	s.Equal(audit.ActionVoterCreated, actions[0])
	s.Equal(audit.ActionDuplicateDetected, actions[1])

	n, err := s.store.CountByPhone(ctx, "0521234567")
	s.Require().NoError(err)
	s.Equal(2, n)
}
