package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/mock/gomock"

	"canvass/internal/audit"
	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
)

func (s *ServiceSuite) TestGetVoterVisibility() {
	v := s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	s.Run("inserter sees own record", func() {
		got, err := s.service.GetVoter(s.ctx, fieldWorkerViewer("fw-1"), v.ID)
		s.Require().NoError(err)
		s.Equal(v.ID, got.ID)
	})

	s.Run("admin sees it too", func() {
		_, err := s.service.GetVoter(s.ctx, adminViewer(), v.ID)
		s.Require().NoError(err)
	})

	s.Run("unrelated field worker is denied with the verdict reason", func() {
		var denied audit.Event
		s.mockAuditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				denied = e
				return nil
			})

		_, err := s.service.GetVoter(s.ctx, fieldWorkerViewer("fw-2"), v.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeVisibilityDenied))

		var domainErr *dErrors.Error
		s.Require().ErrorAs(err, &domainErr)
		s.Equal("no rule matched", domainErr.Message)

		s.Equal(audit.ActionVisibilityDenied, denied.Action)
		s.Equal(v.ID, denied.VoterID)
		s.Equal("fw-2", denied.ActorID)
	})

	s.Run("area manager of the inserter's area sees it", func() {
		viewer := models.Viewer{UserID: "am-1", Role: models.RoleAreaManager, AreaID: "am-1"}
		_, err := s.service.GetVoter(s.ctx, viewer, v.ID)
		s.Require().NoError(err)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.GetVoter(s.ctx, adminViewer(), "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestGetVoterWithHistory() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	notes := "first visit"
	editor := models.Editor{UserID: "fw-1", Name: "Dana Levi", Role: models.RoleFieldWorker}
	s.expectAudit()
	_, err := s.service.Update(s.withNow(createdAt.Add(time.Hour)), fieldWorkerViewer("fw-1"), v.ID,
		models.UpdatePatch{Notes: &notes}, editor)
	s.Require().NoError(err)

	got, history, err := s.service.GetVoterWithHistory(s.ctx, fieldWorkerViewer("fw-1"), v.ID)
	s.Require().NoError(err)
	s.Equal(v.ID, got.ID)
	s.Require().Len(history, 1)
	s.Equal(models.FieldNotes, history[0].Field)
}

func (s *ServiceSuite) TestListVisibleScopesPerViewer() {
	for i, inserter := range []string{"fw-1", "fw-1", "fw-2"} {
		s.mustCreate(s.ctx, s.newCreateInput(inserter, "Voter", fmt.Sprintf("052000000%d", i)))
	}

	s.Run("admin sees all", func() {
		got, err := s.service.ListVisible(s.ctx, adminViewer(), models.Filters{ActiveOnly: true}, models.Page{})
		s.Require().NoError(err)
		s.Len(got, 3)
	})

	s.Run("field worker sees only own", func() {
		got, err := s.service.ListVisible(s.ctx, fieldWorkerViewer("fw-1"), models.Filters{ActiveOnly: true}, models.Page{})
		s.Require().NoError(err)
		s.Len(got, 2)

		n, err := s.service.CountVisible(s.ctx, fieldWorkerViewer("fw-1"), models.Filters{ActiveOnly: true})
		s.Require().NoError(err)
		s.Equal(2, n)
	})

	s.Run("activist coordinator sees field workers under coordination", func() {
		viewer := models.Viewer{UserID: "ac-2", Role: models.RoleActivistCoordinator, CoordinatorID: "ac-2"}
		got, err := s.service.ListVisible(s.ctx, viewer, models.Filters{ActiveOnly: true}, models.Page{})
		s.Require().NoError(err)
		s.Len(got, 1)
	})

	s.Run("viewer with no applicable rule sees nothing", func() {
		got, err := s.service.ListVisible(s.ctx, models.Viewer{UserID: "stranger", Role: "observer"}, models.Filters{}, models.Page{})
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *ServiceSuite) TestSearchByPhone() {
	s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))
	s.mustCreate(s.ctx, s.newCreateInput("fw-2", "Other Person", "0521234567"))

	s.Run("requires a phone", func() {
		_, err := s.service.SearchByPhone(s.ctx, adminViewer(), "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("scopes results to the viewer", func() {
		got, err := s.service.SearchByPhone(s.ctx, fieldWorkerViewer("fw-1"), "0521234567")
		s.Require().NoError(err)
		s.Len(got, 1)

		got, err = s.service.SearchByPhone(s.ctx, adminViewer(), "0521234567")
		s.Require().NoError(err)
		s.Len(got, 2)
	})
}

func (s *ServiceSuite) TestListDeletedGate() {
	v := s.mustCreate(s.ctx, s.newCreateInput("fw-1", "Dana Levi", "0521234567"))
	s.expectAudit()
	_, err := s.service.SoftDelete(s.ctx, fieldWorkerViewer("fw-1"), v.ID)
	s.Require().NoError(err)

	s.Run("open outside production", func() {
		s.expectAudit() // deleted_list_viewed
		got, err := s.service.ListDeleted(s.ctx, fieldWorkerViewer("fw-2"))
		s.Require().NoError(err)
		s.Len(got, 1)
	})

	s.Run("production restricts to the privileged account", func() {
		prodSvc := s.productionService()

		_, err := prodSvc.ListDeleted(s.ctx, fieldWorkerViewer("fw-1"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		s.expectAudit()
		got, err := prodSvc.ListDeleted(s.ctx, models.Viewer{UserID: "sysadmin", Role: models.RoleAdmin})
		s.Require().NoError(err)
		s.Len(got, 1)
	})
}

// productionService clones the wiring with the production flag set.
func (s *ServiceSuite) productionService() *Service {
	svc, err := New(s.store, s.service.engine, s.mockAuditor, discardLogger(),
		Config{Production: true, PrivilegedUserID: "sysadmin"})
	s.Require().NoError(err)
	return svc
}
