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

// Create validates the input against the creation guards, records duplicate
// phone information without ever blocking on it, and persists the record as
// active. The caller's viewer identity is the inserter; ownership is stamped
// here and never changes again.
func (s *Service) Create(ctx context.Context, in models.CreateInput) (models.Voter, error) {
	if err := guard.CreateVoter(in); err != nil {
		return models.Voter{}, err
	}

	now := requestcontext.Now(ctx)

	existing, err := s.store.CountByPhone(ctx, in.Phone)
	if err != nil {
		// Duplicate detection is advisory; a failed count must not block
		// creation. Log and continue with zero.
		s.logger.WarnContext(ctx, "duplicate phone count failed",
			"phone", in.Phone,
			"error", err,
		)
		existing = 0
	}
	dup := guard.DuplicateDetection(in.Phone, existing)

	v := models.Voter{
		ID:          uuid.NewString(),
		FullName:    in.FullName,
		Phone:       in.Phone,
		NationalID:  in.NationalID,
		Email:       in.Email,
		DateOfBirth: in.DateOfBirth,
		Gender:      in.Gender,

		Address:      in.Address,
		City:         in.City,
		Neighborhood: in.Neighborhood,

		SupportLevel:  in.SupportLevel,
		ContactStatus: in.ContactStatus,
		Priority:      in.Priority,
		Notes:         in.Notes,

		Ownership: in.Ownership,

		IsActive:   true,
		InsertedAt: now,
		UpdatedAt:  now,
	}
	if v.SupportLevel == "" {
		v.SupportLevel = models.SupportUndecided
	}
	if v.ContactStatus == "" {
		v.ContactStatus = models.ContactNotContacted
	}
	if v.Priority == "" {
		v.Priority = models.PriorityNormal
	}

	if err := s.store.Insert(ctx, v); err != nil {
		return models.Voter{}, translateStore(err, "create")
	}

	if s.metrics != nil {
		s.metrics.VotersCreated.Inc()
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionVoterCreated,
		VoterID:   v.ID,
		ActorID:   v.InsertedByUserID,
		ActorName: v.InsertedByName,
		ActorRole: string(v.InsertedByRole),
		RequestID: requestcontext.RequestID(ctx),
	})

	if dup.HasDuplicates {
		s.logger.InfoContext(ctx, "duplicate phone recorded",
			"voter_id", v.ID,
			"phone", v.Phone,
			"existing", dup.Count,
		)
		if s.metrics != nil {
			s.metrics.DuplicatesDetected.Inc()
		}
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:    audit.ActionDuplicateDetected,
			VoterID:   v.ID,
			ActorID:   v.InsertedByUserID,
			ActorName: v.InsertedByName,
			ActorRole: string(v.InsertedByRole),
			RequestID: requestcontext.RequestID(ctx),
			Detail:    "existing=" + strconv.Itoa(dup.Count),
		})
	}

	return v, nil
}
