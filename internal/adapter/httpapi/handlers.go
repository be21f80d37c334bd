package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
)

type issueRequest struct {
	City            string                   `json:"city"`
	Province        string                   `json:"province"`
	Levels          []domain.SuspensionLevel `json:"levels"`
	DurationHours   float64                  `json:"durationHours"`
	Message         string                   `json:"message"`
	Instructions    string                   `json:"instructions"`
	Reason          string                   `json:"reason"`
	Criteria        domain.WeatherSnapshot   `json:"criteria"`
	AIAnalysis      domain.AISnapshot        `json:"aiAnalysis"`
	IssuedBy        domain.Authority         `json:"issuedBy"`
	EffectiveFrom   time.Time                `json:"effectiveFrom"`
	IsAutoSuspended bool                     `json:"isAutoSuspended"`
	IsOverridden    bool                     `json:"isOverridden"`
	OverrideReason  string                   `json:"overrideReason"`
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := s.registry.Issue(r.Context(), domain.IssueInput{
		City:            req.City,
		Province:        req.Province,
		Levels:          req.Levels,
		DurationHours:   req.DurationHours,
		Message:         req.Message,
		Instructions:    req.Instructions,
		Reason:          req.Reason,
		Criteria:        req.Criteria,
		AIAnalysis:      req.AIAnalysis,
		IssuedBy:        req.IssuedBy,
		EffectiveFrom:   req.EffectiveFrom,
		IsAutoSuspended: req.IsAutoSuspended,
		IsOverridden:    req.IsOverridden,
		OverrideReason:  req.OverrideReason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetSuspension(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	active, err := s.registry.Active(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(active),
		"suspensions": active,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, domain.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	recs, analytics, err := s.registry.History(r.Context(), r.URL.Query().Get("city"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suspensions": recs,
		"analytics":   analytics,
	})
}

type extendRequest struct {
	NewEffectiveUntil time.Time `json:"newEffectiveUntil"`
	Reason            string    `json:"reason"`
	Actor             string    `json:"actor"`
}

func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var rec *domain.SuspensionRecord
	err := withConflictRetry(func() error {
		var opErr error
		rec, opErr = s.registry.Extend(r.Context(), id, req.NewEffectiveUntil, req.Reason, req.Actor)
		return opErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type liftRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (s *Server) handleLift(w http.ResponseWriter, r *http.Request) {
	var req liftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var rec *domain.SuspensionRecord
	err := withConflictRetry(func() error {
		var opErr error
		rec, opErr = s.registry.Lift(r.Context(), id, req.Reason, req.Actor)
		return opErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type reevaluateRequest struct {
	Status  string                  `json:"status"`
	Weather *domain.WeatherSnapshot `json:"weather"`
	Actor   string                  `json:"actor"`
}

func (s *Server) handleReevaluate(w http.ResponseWriter, r *http.Request) {
	var req reevaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var rec *domain.SuspensionRecord
	err := withConflictRetry(func() error {
		var opErr error
		rec, opErr = s.registry.Reevaluate(r.Context(), id, domain.WeatherTrend(req.Status), req.Weather, req.Actor)
		return opErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type submitRequest struct {
	City            string                   `json:"city"`
	RequestedBy     domain.Authority         `json:"requestedBy"`
	RequestedLevels []domain.SuspensionLevel `json:"requestedLevels"`
	Duration        float64                  `json:"requestedDuration"`
	Reason          string                   `json:"reason"`
	Weather         domain.WeatherSnapshot   `json:"weatherData"`
	ReportCount     int                      `json:"reportCount"`
	CriticalReports int                      `json:"criticalReports"`
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.workflow.Submit(r.Context(), domain.SubmitInput{
		City:            req.City,
		RequestedBy:     req.RequestedBy,
		RequestedLevels: req.RequestedLevels,
		Duration:        req.Duration,
		Reason:          req.Reason,
		Weather:         req.Weather,
		ReportCount:     req.ReportCount,
		CriticalReports: req.CriticalReports,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.workflow.Pending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(reqs),
		"requests": reqs,
	})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeError(w, domain.NewValidationError("city", "query parameter is required"))
		return
	}
	reqs, err := s.workflow.ByCity(r.Context(), city)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(reqs),
		"requests": reqs,
	})
}

type approveRequest struct {
	Approver domain.Authority `json:"approver"`
	Notes    string           `json:"notes"`
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var (
		approved *domain.SuspensionRequest
		rec      *domain.SuspensionRecord
	)
	err := withConflictRetry(func() error {
		var opErr error
		approved, rec, opErr = s.workflow.Approve(r.Context(), id, req.Approver, req.Notes)
		return opErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"request":    approved,
		"suspension": rec,
	})
}

type rejectRequest struct {
	Approver domain.Authority `json:"approver"`
	Reason   string           `json:"reason"`
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var rejected *domain.SuspensionRequest
	err := withConflictRetry(func() error {
		var opErr error
		rejected, opErr = s.workflow.Reject(r.Context(), id, req.Approver, req.Reason)
		return opErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}

type cancelRequest struct {
	RequestedBy string `json:"requestedBy"`
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	var cancelled *domain.SuspensionRequest
	err := withConflictRetry(func() error {
		var opErr error
		cancelled, opErr = s.workflow.Cancel(r.Context(), id, req.RequestedBy)
		return opErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

type evaluateRequest struct {
	City    string                 `json:"city"`
	Weather domain.WeatherSnapshot `json:"weather"`
	Reports []domain.ReportSummary `json:"reports"`
}

type evaluatedGroup struct {
	LocationKey string                       `json:"locationKey"`
	ReportCount int                          `json:"reportCount"`
	Verified    int                          `json:"verified"`
	Critical    int                          `json:"critical"`
	Credibility domain.CredibilityAssessment `json:"credibility"`
}

// handleEvaluateCandidate runs the full decision support view for one city:
// the auto-suspend evaluation, per-location credibility, and the advisory
// risk score. Nothing is persisted.
func (s *Server) handleEvaluateCandidate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.City == "" {
		writeError(w, domain.NewValidationError("city", "must not be empty"))
		return
	}

	critical := 0
	for _, rep := range req.Reports {
		if rep.Severity == "critical" {
			critical++
		}
	}

	groups := domain.CompileReports(req.Reports)
	evaluated := make([]evaluatedGroup, 0, len(groups))
	for _, g := range groups {
		evaluated = append(evaluated, evaluatedGroup{
			LocationKey: g.LocationKey,
			ReportCount: g.Count(),
			Verified:    g.CountByStatus(domain.ReportStatusVerified),
			Critical:    g.CountBySeverity("critical"),
			Credibility: domain.AssessCredibility(g),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"city":         req.City,
		"autoSuspend":  domain.EvaluateAutoSuspend(req.Weather),
		"risk":         domain.RecommendSuspension(req.Weather, len(req.Reports), critical),
		"reportGroups": evaluated,
	})
}

func (s *Server) handleCityStats(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if unescaped, err := url.PathUnescape(city); err == nil {
		city = unescaped
	}

	stats, err := s.registry.Stats(r.Context(), city)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
