package service

import (
	"context"

	"canvass/internal/audit"
	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/requestcontext"
)

// requireVisible runs the per-record visibility verdict and converts a denial
// into a domain error carrying the deciding reason.
func (s *Service) requireVisible(ctx context.Context, viewer models.Viewer, v models.Voter) error {
	verdict, err := s.engine.CanSee(ctx, viewer, v.Ownership)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "visibility evaluation failed")
	}
	if !verdict.Allowed {
		if s.metrics != nil {
			s.metrics.VisibilityDenials.WithLabelValues(string(viewer.Role)).Inc()
		}
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:    audit.ActionVisibilityDenied,
			VoterID:   v.ID,
			ActorID:   viewer.UserID,
			ActorRole: string(viewer.Role),
			RequestID: requestcontext.RequestID(ctx),
			Detail:    verdict.Reason,
		})
		return dErrors.New(dErrors.CodeVisibilityDenied, verdict.Reason).
			Add("rule", verdict.Rule)
	}
	return nil
}

// GetVoter returns a single record the viewer is allowed to see.
func (s *Service) GetVoter(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, error) {
	v, err := s.store.FindByID(ctx, voterID)
	if err != nil {
		return models.Voter{}, translateStore(err, "get")
	}
	if err := s.requireVisible(ctx, viewer, v); err != nil {
		return models.Voter{}, err
	}
	return v, nil
}

// GetVoterWithHistory returns the record plus its full edit history.
func (s *Service) GetVoterWithHistory(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, []models.EditHistory, error) {
	v, err := s.GetVoter(ctx, viewer, voterID)
	if err != nil {
		return models.Voter{}, nil, err
	}
	history, err := s.store.HistoryByVoter(ctx, voterID)
	if err != nil {
		return models.Voter{}, nil, translateStore(err, "history")
	}
	return v, history, nil
}

// ListVisible lists the viewer's visible set through the engine's bulk
// predicate, then applies caller filters and pagination, newest first.
func (s *Service) ListVisible(ctx context.Context, viewer models.Viewer, f models.Filters, page models.Page) ([]models.Voter, error) {
	voters, err := s.store.List(ctx, s.engine.Filter(viewer), f, page)
	if err != nil {
		return nil, translateStore(err, "list")
	}
	return voters, nil
}

// CountVisible counts the viewer's visible set under the same predicate.
func (s *Service) CountVisible(ctx context.Context, viewer models.Viewer, f models.Filters) (int, error) {
	n, err := s.store.Count(ctx, s.engine.Filter(viewer), f)
	if err != nil {
		return 0, translateStore(err, "count")
	}
	return n, nil
}

// SearchByPhone returns the viewer's visible records with exactly this phone.
func (s *Service) SearchByPhone(ctx context.Context, viewer models.Viewer, phone string) ([]models.Voter, error) {
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone is required").Add("field", models.FieldPhone)
	}
	voters, err := s.store.SearchByPhone(ctx, s.engine.Filter(viewer), phone)
	if err != nil {
		return nil, translateStore(err, "search")
	}
	return voters, nil
}

// ListDeleted returns every soft-deleted record. Restricted: in production
// only the named privileged account may call it; outside production it is
// open for operational debugging.
func (s *Service) ListDeleted(ctx context.Context, viewer models.Viewer) ([]models.Voter, error) {
	if s.cfg.Production && viewer.UserID != s.cfg.PrivilegedUserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "deleted voters listing is restricted")
	}

	voters, err := s.store.ListDeleted(ctx)
	if err != nil {
		return nil, translateStore(err, "list deleted")
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionDeletedListViewed,
		ActorID:   viewer.UserID,
		ActorRole: string(viewer.Role),
		RequestID: requestcontext.RequestID(ctx),
	})
	return voters, nil
}
