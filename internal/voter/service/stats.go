package service

import (
	"context"
	"time"

	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
)

// Statistics aggregates over the viewer's visible set only, so dashboard
// numbers never leak records the viewer cannot list.
func (s *Service) Statistics(ctx context.Context, viewer models.Viewer) (models.Statistics, error) {
	stats, err := s.store.Statistics(ctx, s.engine.Filter(viewer))
	if err != nil {
		return models.Statistics{}, translateStore(err, "statistics")
	}
	return stats, nil
}

// InsertionActivity returns per-day insertion counts over the viewer's
// visible set for the given range.
func (s *Service) InsertionActivity(ctx context.Context, viewer models.Viewer, from, to time.Time) ([]models.DayCount, error) {
	if to.Before(from) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "activity range end precedes start")
	}
	days, err := s.store.InsertionActivity(ctx, s.engine.Filter(viewer), from, to)
	if err != nil {
		return nil, translateStore(err, "insertion activity")
	}
	return days, nil
}

// DuplicatesReport is the one deliberately global aggregation: phone groups
// of size two or more across all active records. It exists to give the
// campaign a whole-roster view, so it is admin only and not visibility-scoped.
func (s *Service) DuplicatesReport(ctx context.Context, viewer models.Viewer) ([]models.DuplicateGroup, error) {
	if viewer.Role != models.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "duplicates report is admin only")
	}
	groups, err := s.store.DuplicateGroups(ctx)
	if err != nil {
		return nil, translateStore(err, "duplicates report")
	}
	return groups, nil
}
