package service

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"canvass/internal/visibility"
	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
)

func (s *ServiceSuite) TestStatisticsScopedToViewer() {
	s.mustCreate(s.ctx, s.newCreateInput("fw-1", "A", "0520000001"))
	s.mustCreate(s.ctx, s.newCreateInput("fw-1", "B", "0520000002"))
	s.mustCreate(s.ctx, s.newCreateInput("fw-2", "C", "0520000003"))

	adminStats, err := s.service.Statistics(s.ctx, adminViewer())
	s.Require().NoError(err)
	s.Equal(3, adminStats.Total)
	s.Equal(3, adminStats.Active)
	s.Equal(3, adminStats.BySupportLevel[models.SupportUndecided])

	workerStats, err := s.service.Statistics(s.ctx, fieldWorkerViewer("fw-1"))
	s.Require().NoError(err)
	s.Equal(2, workerStats.Total, "statistics must not leak invisible records")
}

func (s *ServiceSuite) TestInsertionActivity() {
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	s.mustCreate(s.withNow(day1), s.newCreateInput("fw-1", "A", "0520000001"))
	s.mustCreate(s.withNow(day1.Add(time.Hour)), s.newCreateInput("fw-1", "B", "0520000002"))
	s.mustCreate(s.withNow(day2), s.newCreateInput("fw-1", "C", "0520000003"))

	s.Run("per-day counts in range", func() {
		days, err := s.service.InsertionActivity(s.ctx, adminViewer(), day1.Add(-time.Hour), day2.Add(time.Hour))
		s.Require().NoError(err)
		s.Require().Len(days, 2)
		s.Equal(2, days[0].Count)
		s.Equal(1, days[1].Count)
	})

	s.Run("inverted range rejected", func() {
		_, err := s.service.InsertionActivity(s.ctx, adminViewer(), day2, day1)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestDuplicatesReportAdminOnly() {
	s.mustCreate(s.ctx, s.newCreateInput("fw-1", "A", "0521234567"))
	s.expectAudit() // creation
	s.expectAudit() // duplicate detection
	_, err := s.service.Create(s.ctx, s.newCreateInput("fw-2", "B", "0521234567"))
	s.Require().NoError(err)

	s.Run("admin gets the global report", func() {
		groups, err := s.service.DuplicatesReport(s.ctx, adminViewer())
		s.Require().NoError(err)
		s.Require().Len(groups, 1)
		s.Equal("0521234567", groups[0].Phone)
		s.Equal(2, groups[0].Count)
	})

	s.Run("everyone else is refused", func() {
		for _, viewer := range []models.Viewer{
			fieldWorkerViewer("fw-1"),
			{UserID: "am-1", Role: models.RoleAreaManager, AreaID: "am-1"},
			{UserID: "cc-1", Role: models.RoleCityCoordinator, CityID: "haifa"},
		} {
			_, err := s.service.DuplicatesReport(s.ctx, viewer)
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "role %s", viewer.Role)
		}
	})
}

func (s *ServiceSuite) TestExportCSV() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))
	s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-2", "Hidden Person", "0529999999"))

	s.expectAudit() // export_generated
	csv, err := s.service.ExportCSV(s.ctx, fieldWorkerViewer("fw-1"), models.Filters{ActiveOnly: true})
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	s.Require().Len(lines, 2, "header plus one visible record")
	s.Contains(lines[0], "שם מלא")
	s.Contains(lines[1], "Dana Levi")
	s.NotContains(csv, "Hidden Person")
	s.Contains(lines[1], "01/03/2026")
}

func (s *ServiceSuite) TestExportCSVStopsAtRowCapAndLogs() {
	insertedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < exportMaxRows+5; i++ {
		v := models.Voter{
			ID:         fmt.Sprintf("v-%05d", i),
			FullName:   "Bulk Voter",
			Phone:      fmt.Sprintf("05%08d", i),
			IsActive:   true,
			InsertedAt: insertedAt,
			Ownership: models.Ownership{
				InsertedByUserID: "fw-1",
				InsertedByName:   "Inserter fw-1",
				InsertedByRole:   models.RoleFieldWorker,
			},
		}
		s.Require().NoError(s.store.Insert(s.ctx, v))
	}

	var logs bytes.Buffer
	svc, err := New(s.store, visibility.NewEngine(s.dir), s.mockAuditor,
		slog.New(slog.NewTextHandler(&logs, nil)),
		Config{Production: false, PrivilegedUserID: "sysadmin"})
	s.Require().NoError(err)

	s.expectAudit() // export_generated
	csv, err := svc.ExportCSV(s.ctx, adminViewer(), models.Filters{})
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	s.Len(lines, exportMaxRows+1, "header plus the capped rows")
	s.Contains(logs.String(), "row cap")
}

func (s *ServiceSuite) TestExportHistoryCSV() {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := s.mustCreate(s.withNow(createdAt), s.newCreateInput("fw-1", "Dana Levi", "0521234567"))

	supporter := models.SupportSupporter
	editor := models.Editor{UserID: "fw-1", Name: "Dana Levi", Role: models.RoleFieldWorker}
	s.expectAudit()
	_, err := s.service.Update(s.withNow(createdAt.Add(time.Hour)), fieldWorkerViewer("fw-1"), v.ID,
		models.UpdatePatch{SupportLevel: &supporter}, editor)
	s.Require().NoError(err)

	s.expectAudit()
	csv, err := s.service.ExportHistoryCSV(s.ctx, fieldWorkerViewer("fw-1"), v.ID)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	s.Require().Len(lines, 2)
	s.Contains(lines[1], "supportLevel")
	s.Contains(lines[1], "Dana Levi")

	s.Run("invisible voter's history is refused", func() {
		s.expectAudit()
		_, err := s.service.ExportHistoryCSV(s.ctx, fieldWorkerViewer("fw-2"), v.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeVisibilityDenied))
	})
}
