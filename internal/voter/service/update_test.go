package service

import (
	"time"

	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestUpdateWritesOneHistoryRowPerChangedField() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	editedAt := createdAt.Add(2 * time.Hour)
	editor := models.Editor{UserID: "fw-1", Name: "Dana Levi", Role: models.RoleFieldWorker}

	supporter := models.SupportSupporter
	s.expectAudit()
	updated, err := s.service.Update(s.withNow(editedAt), fieldWorkerViewer("fw-1"), v.ID,
		models.UpdatePatch{SupportLevel: &supporter}, editor)
	s.Require().NoError(err)
	s.Equal(models.SupportSupporter, updated.SupportLevel)
	s.Equal(editedAt, updated.UpdatedAt)

	history, err := s.store.HistoryByVoter(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)

	row := history[0]
	s.Equal(models.FieldSupportLevel, row.Field)
	s.Equal("undecided", row.OldValue)
	s.Equal("supporter", row.NewValue)
	s.Equal("fw-1", row.EditorUserID)
	s.Equal("Dana Levi", row.EditorName)
	s.Equal(models.RoleFieldWorker, row.EditorRole)
	s.Equal(editedAt, row.EditedAt)
}

func (s *ServiceSuite) TestUpdateMultipleFields() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	editor := models.Editor{UserID: "cc-1", Name: "Yossi Cohen", Role: models.RoleCityCoordinator}
	notes := "prefers evening calls"
	phone := "0529876543"

	s.expectAudit()
	_, err := s.service.Update(s.withNow(createdAt.Add(time.Hour)), adminViewer(), v.ID,
		models.UpdatePatch{Notes: &notes, Phone: &phone}, editor)
	s.Require().NoError(err)

	history, err := s.store.HistoryByVoter(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *ServiceSuite) TestUpdateNoOpFieldsProduceNoHistory() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	editor := models.Editor{UserID: "fw-1", Name: "Dana Levi", Role: models.RoleFieldWorker}

	// Patch the name to its current value: no write, no history, no audit.
	sameName := "Dana Levi"
	updated, err := s.service.Update(s.withNow(createdAt.Add(time.Hour)), fieldWorkerViewer("fw-1"), v.ID,
		models.UpdatePatch{FullName: &sameName}, editor)
	s.Require().NoError(err)
	s.Equal(createdAt, updated.UpdatedAt, "no-op patch must not touch the record")

	history, err := s.store.HistoryByVoter(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ServiceSuite) TestUpdateRequiresVisibility() {
	v := s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	editor := models.Editor{UserID: "fw-2", Name: "Someone Else", Role: models.RoleFieldWorker}
	notes := "should not land"
	s.expectAudit()
	_, err := s.service.Update(s.ctx, fieldWorkerViewer("fw-2"), v.ID,
		models.UpdatePatch{Notes: &notes}, editor)
	s.True(dErrors.HasCode(err, dErrors.CodeVisibilityDenied))

	history, historyErr := s.store.HistoryByVoter(s.ctx, v.ID)
	s.Require().NoError(historyErr)
	s.Empty(history)
}

func (s *ServiceSuite) TestUpdateRejectsEditorWithoutName() {
	v := s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	notes := "anonymous edit"
	_, err := s.service.Update(s.ctx, fieldWorkerViewer("fw-1"), v.ID,
		models.UpdatePatch{Notes: &notes}, models.Editor{UserID: "fw-1", Role: models.RoleFieldWorker})
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestUpdateConcurrentEditConflicts() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	// A concurrent writer moves the timestamp; a write against the old stamp
	// must fail rather than silently overwrite.
	sneaky := v
	sneaky.Notes = "concurrent write"
	sneaky.UpdatedAt = createdAt.Add(time.Minute)
	s.Require().NoError(s.store.UpdateWithHistory(s.ctx, sneaky, createdAt, nil))

	err := s.store.UpdateWithHistory(s.ctx, v, createdAt, nil)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.True(dErrors.HasCode(translateStore(err, "update"), dErrors.CodeConflict))
}

func (s *ServiceSuite) TestUpdateUnknownVoter() {
	editor := models.Editor{UserID: "fw-1", Name: "Dana Levi", Role: models.RoleFieldWorker}
	notes := "nope"
	_, err := s.service.Update(s.ctx, fieldWorkerViewer("fw-1"), "missing-id",
		models.UpdatePatch{Notes: &notes}, editor)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
