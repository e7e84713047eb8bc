package service

import (
	"context"

	"canvass/internal/audit"
	"canvass/internal/voter/guard"
	"canvass/internal/voter/models"
	"canvass/pkg/requestcontext"
)

// SoftDelete marks a visible voter inactive, recording who deleted it and
// when. The guard produces the deterministic patch; nothing here or below can
// remove the row.
func (s *Service) SoftDelete(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, error) {
	patch, err := guard.SoftDeleteOnly(viewer.UserID, requestcontext.Now(ctx))
	if err != nil {
		return models.Voter{}, err
	}

	current, err := s.store.FindByID(ctx, voterID)
	if err != nil {
		return models.Voter{}, translateStore(err, "delete")
	}
	if err := s.requireVisible(ctx, viewer, current); err != nil {
		return models.Voter{}, err
	}
	if current.Deleted() {
		// Deleting a deleted record is a no-op, not an error.
		return current, nil
	}

	updated := current
	updated.IsActive = patch.IsActive
	deletedAt := patch.DeletedAt
	updated.DeletedAt = &deletedAt
	updated.DeletedByUserID = patch.DeletedByUserID
	updated.UpdatedAt = patch.DeletedAt

	if err := s.store.UpdateWithHistory(ctx, updated, current.UpdatedAt, nil); err != nil {
		return models.Voter{}, translateStore(err, "delete")
	}

	if s.metrics != nil {
		s.metrics.VotersDeleted.Inc()
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionVoterDeleted,
		VoterID:   updated.ID,
		ActorID:   viewer.UserID,
		ActorRole: string(viewer.Role),
		RequestID: requestcontext.RequestID(ctx),
	})

	return updated, nil
}

// Restore reverses a soft delete, clearing the deletion fields.
func (s *Service) Restore(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, error) {
	current, err := s.store.FindByID(ctx, voterID)
	if err != nil {
		return models.Voter{}, translateStore(err, "restore")
	}
	if err := s.requireVisible(ctx, viewer, current); err != nil {
		return models.Voter{}, err
	}
	if !current.Deleted() {
		return current, nil
	}

	updated := current
	updated.IsActive = true
	updated.DeletedAt = nil
	updated.DeletedByUserID = ""
	updated.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.UpdateWithHistory(ctx, updated, current.UpdatedAt, nil); err != nil {
		return models.Voter{}, translateStore(err, "restore")
	}

	if s.metrics != nil {
		s.metrics.VotersRestored.Inc()
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionVoterRestored,
		VoterID:   updated.ID,
		ActorID:   viewer.UserID,
		ActorRole: string(viewer.Role),
		RequestID: requestcontext.RequestID(ctx),
	})

	return updated, nil
}
