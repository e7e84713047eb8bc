package service

import (
	"time"

	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
)

func (s *ServiceSuite) TestSoftDeleteAndRestore() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	deletedAt := createdAt.Add(time.Hour)

	s.Run("delete marks the record, never removes it", func() {
		before := s.store.Len()

		s.expectAudit()
		deleted, err := s.service.SoftDelete(s.withNow(deletedAt), fieldWorkerViewer("fw-1"), v.ID)
		s.Require().NoError(err)
		s.False(deleted.IsActive)
		s.Require().NotNil(deleted.DeletedAt)
		s.Equal(deletedAt, *deleted.DeletedAt)
		s.Equal("fw-1", deleted.DeletedByUserID)

		s.Equal(before, s.store.Len(), "soft delete must not remove rows")
	})

	s.Run("deleting again is a no-op", func() {
		again, err := s.service.SoftDelete(s.withNow(deletedAt.Add(time.Hour)), fieldWorkerViewer("fw-1"), v.ID)
		s.Require().NoError(err)
		s.Require().NotNil(again.DeletedAt)
		s.Equal(deletedAt, *again.DeletedAt, "second delete must not move the deletion stamp")
	})

	s.Run("restore clears the deletion fields", func() {
		restoredAt := deletedAt.Add(2 * time.Hour)
		s.expectAudit()
		restored, err := s.service.Restore(s.withNow(restoredAt), fieldWorkerViewer("fw-1"), v.ID)
		s.Require().NoError(err)
		s.True(restored.IsActive)
		s.Nil(restored.DeletedAt)
		s.Empty(restored.DeletedByUserID)
	})

	s.Run("restoring an active record is a no-op", func() {
		_, err := s.service.Restore(s.ctx, fieldWorkerViewer("fw-1"), v.ID)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestSoftDeleteRequiresVisibility() {
	v := s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	s.expectAudit()
	_, err := s.service.SoftDelete(s.ctx, fieldWorkerViewer("fw-2"), v.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeVisibilityDenied))

	stored, findErr := s.store.FindByID(s.ctx, v.ID)
	s.Require().NoError(findErr)
	s.True(stored.IsActive)
}

func (s *ServiceSuite) TestSoftDeleteRequiresActor() {
	v := s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	_, err := s.service.SoftDelete(s.ctx, models.Viewer{Role: models.RoleAdmin}, v.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
