package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"canvass/internal/audit"
	"canvass/internal/voter/guard"
	"canvass/internal/voter/models"
	"canvass/pkg/requestcontext"
)

// Update applies a partial patch to a voter the viewer can see. The diff is
// computed against the loaded record, and the updated record plus one history
// row per actually-changed field are written as one atomic unit; a field
// patched to its current value produces no history row. Editor identity is
// frozen into every row.
func (s *Service) Update(ctx context.Context, viewer models.Viewer, voterID string, patch models.UpdatePatch, editor models.Editor) (models.Voter, error) {
	if err := guard.UpdateVoter(patch, editor); err != nil {
		return models.Voter{}, err
	}

	current, err := s.store.FindByID(ctx, voterID)
	if err != nil {
		return models.Voter{}, translateStore(err, "update")
	}

	if err := s.requireVisible(ctx, viewer, current); err != nil {
		return models.Voter{}, err
	}

	changes := patch.Changes(current)
	if len(changes) == 0 {
		// Nothing actually changed: no write, no history.
		return current, nil
	}

	now := requestcontext.Now(ctx)
	updated := patch.Apply(current)
	updated.UpdatedAt = now

	entries := make([]models.EditHistory, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, models.EditHistory{
			ID:           uuid.NewString(),
			VoterID:      current.ID,
			EditorUserID: editor.UserID,
			EditorName:   editor.Name,
			EditorRole:   editor.Role,
			Field:        c.Field,
			OldValue:     c.OldValue,
			NewValue:     c.NewValue,
			EditedAt:     now,
		})
	}

	if err := s.store.UpdateWithHistory(ctx, updated, current.UpdatedAt, entries); err != nil {
		return models.Voter{}, translateStore(err, "update")
	}

	if s.metrics != nil {
		s.metrics.VotersUpdated.Inc()
		s.metrics.HistoryRowsWritten.Add(float64(len(entries)))
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionVoterUpdated,
		VoterID:   updated.ID,
		ActorID:   editor.UserID,
		ActorName: editor.Name,
		ActorRole: string(editor.Role),
		RequestID: requestcontext.RequestID(ctx),
		Detail:    "fields=" + strconv.Itoa(len(entries)),
	})

	return updated, nil
}
