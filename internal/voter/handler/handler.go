// Package handler exposes the voter repository over HTTP. Every route runs
// behind viewer authentication; responses use the shared success/failure
// envelope.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"canvass/internal/http/shared"
	"canvass/internal/platform/metrics"
	"canvass/internal/platform/middleware"
	"canvass/internal/voter/export"
	"canvass/internal/voter/models"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/requestcontext"
	"canvass/pkg/secrets"
)

// Service defines the repository operations the handler depends on.
type Service interface {
	Create(ctx context.Context, in models.CreateInput) (models.Voter, error)
	Update(ctx context.Context, viewer models.Viewer, voterID string, patch models.UpdatePatch, editor models.Editor) (models.Voter, error)
	SoftDelete(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, error)
	Restore(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, error)
	GetVoter(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, error)
	GetVoterWithHistory(ctx context.Context, viewer models.Viewer, voterID string) (models.Voter, []models.EditHistory, error)
	ListVisible(ctx context.Context, viewer models.Viewer, f models.Filters, page models.Page) ([]models.Voter, error)
	CountVisible(ctx context.Context, viewer models.Viewer, f models.Filters) (int, error)
	SearchByPhone(ctx context.Context, viewer models.Viewer, phone string) ([]models.Voter, error)
	ListDeleted(ctx context.Context, viewer models.Viewer) ([]models.Voter, error)
	Statistics(ctx context.Context, viewer models.Viewer) (models.Statistics, error)
	InsertionActivity(ctx context.Context, viewer models.Viewer, from, to time.Time) ([]models.DayCount, error)
	DuplicatesReport(ctx context.Context, viewer models.Viewer) ([]models.DuplicateGroup, error)
	ExportCSV(ctx context.Context, viewer models.Viewer, f models.Filters) (string, error)
	ExportHistoryCSV(ctx context.Context, viewer models.Viewer, voterID string) (string, error)
}

// Handler handles voter repository endpoints.
type Handler struct {
	logger          *slog.Logger
	voters          Service
	metrics         *metrics.Metrics
	jwtValidator    middleware.ViewerValidator
	production      bool
	maintenanceHash string
	requestTimeout  time.Duration
}

// New creates a new voter Handler.
func New(
	voters Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.ViewerValidator,
	production bool,
	maintenanceHash string,
	requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Handler{
		logger:          logger,
		voters:          voters,
		metrics:         metrics,
		jwtValidator:    jwtValidator,
		production:      production,
		maintenanceHash: maintenanceHash,
		requestTimeout:  requestTimeout,
	}
}

// Register registers the voter routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	voterRouter := chi.NewRouter()
	voterRouter.Use(middleware.Recovery(h.logger))
	voterRouter.Use(middleware.RequestID)
	voterRouter.Use(middleware.Logger(h.logger))
	voterRouter.Use(middleware.Timeout(h.requestTimeout))
	voterRouter.Use(middleware.ContentTypeJSON)
	voterRouter.Use(middleware.Latency(h.metrics))
	voterRouter.Use(middleware.RequireViewer(h.jwtValidator, h.logger))

	voterRouter.Get("/voters", h.handleList)
	voterRouter.Post("/voters", h.handleCreate)
	voterRouter.Get("/voters/deleted", h.handleListDeleted)
	voterRouter.Get("/voters/search", h.handleSearchByPhone)
	voterRouter.Get("/voters/statistics", h.handleStatistics)
	voterRouter.Get("/voters/duplicates", h.handleDuplicates)
	voterRouter.Get("/voters/activity", h.handleActivity)
	voterRouter.Get("/voters/export", h.handleExport)
	voterRouter.Get("/voters/{id}", h.handleGet)
	voterRouter.Patch("/voters/{id}", h.handleUpdate)
	voterRouter.Delete("/voters/{id}", h.handleDelete)
	voterRouter.Post("/voters/{id}/restore", h.handleRestore)
	voterRouter.Get("/voters/{id}/history", h.handleHistory)
	voterRouter.Get("/voters/{id}/history/export", h.handleHistoryExport)

	r.Mount("/", voterRouter)
}

// viewerFrom pulls the authenticated viewer out of the context. A missing
// viewer means the auth middleware was bypassed, which is a wiring bug.
func (h *Handler) viewerFrom(w http.ResponseWriter, r *http.Request) (models.Viewer, bool) {
	viewer, ok := middleware.GetViewer(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "viewer missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return models.Viewer{}, false
	}
	return viewer, true
}

// writeServiceError logs and maps a service failure. Internal causes are
// hidden behind an opaque message in production.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "voter operation failed",
			"operation", operation,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		if h.production {
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "operation failed"))
			return
		}
		shared.WriteError(w, err)
		return
	}
	h.logger.WarnContext(ctx, "voter operation rejected",
		"operation", operation,
		"code", string(code),
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	v, err := h.voters.Create(r.Context(), req.toInput(viewer))
	if err != nil {
		h.writeServiceError(w, r, err, "create")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toVoterResponse(v))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	v, err := h.voters.GetVoter(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "get")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVoterResponse(v))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	v, entries, err := h.voters.GetVoterWithHistory(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "history")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"voter":   toVoterResponse(v),
		"history": toHistoryResponses(entries),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	f, err := filtersFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	page := pageFromQuery(r).Normalize()

	voters, err := h.voters.ListVisible(r.Context(), viewer, f, page)
	if err != nil {
		h.writeServiceError(w, r, err, "list")
		return
	}
	total, err := h.voters.CountVisible(r.Context(), viewer, f)
	if err != nil {
		h.writeServiceError(w, r, err, "count")
		return
	}

	shared.WriteJSON(w, http.StatusOK, listResponse{
		Voters: toVoterResponses(voters),
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *Handler) handleSearchByPhone(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	voters, err := h.voters.SearchByPhone(r.Context(), viewer, r.URL.Query().Get("phone"))
	if err != nil {
		h.writeServiceError(w, r, err, "search")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVoterResponses(voters))
}

func (h *Handler) handleListDeleted(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	// In production the deleted listing additionally requires the rotating
	// maintenance secret; the service enforces the privileged-account check.
	if h.production {
		if err := secrets.Verify(r.Header.Get("X-Maintenance-Secret"), h.maintenanceHash); err != nil {
			h.logger.WarnContext(r.Context(), "maintenance secret rejected",
				"request_id", middleware.GetRequestID(r.Context()),
			)
			shared.WriteError(w, err)
			return
		}
	}

	voters, err := h.voters.ListDeleted(r.Context(), viewer)
	if err != nil {
		h.writeServiceError(w, r, err, "list_deleted")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVoterResponses(voters))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	editor := models.Editor{UserID: viewer.UserID, Name: req.EditorName, Role: viewer.Role}
	v, err := h.voters.Update(r.Context(), viewer, chi.URLParam(r, "id"), req.toPatch(), editor)
	if err != nil {
		h.writeServiceError(w, r, err, "update")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVoterResponse(v))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	v, err := h.voters.SoftDelete(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "delete")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVoterResponse(v))
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	v, err := h.voters.Restore(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "restore")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVoterResponse(v))
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	stats, err := h.voters.Statistics(r.Context(), viewer)
	if err != nil {
		h.writeServiceError(w, r, err, "statistics")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toStatisticsResponse(stats))
}

func (h *Handler) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	groups, err := h.voters.DuplicatesReport(r.Context(), viewer)
	if err != nil {
		h.writeServiceError(w, r, err, "duplicates")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDuplicateGroupResponses(groups))
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	from, to, err := activityRange(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	days, err := h.voters.InsertionActivity(r.Context(), viewer, from, to)
	if err != nil {
		h.writeServiceError(w, r, err, "activity")
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDayCountResponses(days))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	f, err := filtersFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	csv, err := h.voters.ExportCSV(r.Context(), viewer, f)
	if err != nil {
		h.writeServiceError(w, r, err, "export")
		return
	}
	writeCSV(w, export.Filename("voters", requestcontext.Now(r.Context())), csv)
}

func (h *Handler) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewerFrom(w, r)
	if !ok {
		return
	}

	csv, err := h.voters.ExportHistoryCSV(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err, "history_export")
		return
	}
	writeCSV(w, export.Filename("voter-history", requestcontext.Now(r.Context())), csv)
}

func writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// filtersFromQuery parses the optional narrowing parameters, rejecting
// unknown enum values up front.
func filtersFromQuery(r *http.Request) (models.Filters, error) {
	q := r.URL.Query()
	f := models.Filters{ActiveOnly: q.Get("includeInactive") != "true"}

	if raw := q.Get("supportLevel"); raw != "" {
		lvl := models.SupportLevel(raw)
		if !models.ValidSupportLevel(lvl) {
			return models.Filters{}, dErrors.New(dErrors.CodeBadRequest, "unknown support level").Add("supportLevel", raw)
		}
		f.SupportLevel = &lvl
	}
	if raw := q.Get("contactStatus"); raw != "" {
		st := models.ContactStatus(raw)
		if !models.ValidContactStatus(st) {
			return models.Filters{}, dErrors.New(dErrors.CodeBadRequest, "unknown contact status").Add("contactStatus", raw)
		}
		f.ContactStatus = &st
	}
	if raw := q.Get("priority"); raw != "" {
		p := models.Priority(raw)
		if !models.ValidPriority(p) {
			return models.Filters{}, dErrors.New(dErrors.CodeBadRequest, "unknown priority").Add("priority", raw)
		}
		f.Priority = &p
	}
	return f, nil
}

func pageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return models.Page{Limit: limit, Offset: offset}
}

func activityRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeBadRequest, "from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeBadRequest, "to must be YYYY-MM-DD")
	}
	// A date-only upper bound parses to midnight; push it to the end of the
	// day so insertions made during the end day are counted.
	to = to.Add(24*time.Hour - time.Nanosecond)
	return from, to, nil
}
