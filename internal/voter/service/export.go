package service

import (
	"context"

	"canvass/internal/audit"
	"canvass/internal/voter/export"
	"canvass/internal/voter/models"
	"canvass/pkg/requestcontext"
)

// exportMaxRows bounds a single CSV export; exports page through the store in
// chunks so one request never materializes the whole roster at once.
const (
	exportMaxRows   = 10000
	exportChunkSize = 500
)

// ExportCSV renders the viewer's visible, filtered set as CSV in the legacy
// export shape (see the export package for the quoting caveat). Output is
// capped at exportMaxRows; rows past the cap are dropped and the truncation
// is logged.
func (s *Service) ExportCSV(ctx context.Context, viewer models.Viewer, f models.Filters) (string, error) {
	pred := s.engine.Filter(viewer)

	var voters []models.Voter
	for offset := 0; offset < exportMaxRows; offset += exportChunkSize {
		chunk, err := s.store.List(ctx, pred, f, models.Page{Limit: exportChunkSize, Offset: offset})
		if err != nil {
			return "", translateStore(err, "export")
		}
		voters = append(voters, chunk...)
		if len(chunk) < exportChunkSize {
			break
		}
	}
	if len(voters) >= exportMaxRows {
		s.logger.WarnContext(ctx, "csv export hit the row cap, output may be truncated",
			"cap", exportMaxRows,
			"actor", viewer.UserID,
		)
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionExportGenerated,
		ActorID:   viewer.UserID,
		ActorRole: string(viewer.Role),
		RequestID: requestcontext.RequestID(ctx),
		Detail:    "kind=voters",
	})
	return export.Voters(voters), nil
}

// ExportHistoryCSV renders a visible voter's edit history as CSV.
func (s *Service) ExportHistoryCSV(ctx context.Context, viewer models.Viewer, voterID string) (string, error) {
	_, history, err := s.GetVoterWithHistory(ctx, viewer, voterID)
	if err != nil {
		return "", err
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionExportGenerated,
		VoterID:   voterID,
		ActorID:   viewer.UserID,
		ActorRole: string(viewer.Role),
		RequestID: requestcontext.RequestID(ctx),
		Detail:    "kind=history",
	})
	return export.History(history), nil
}
