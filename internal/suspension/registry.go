package suspension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/observability"
)

const defaultHistoryLimit = 50

// Registry owns the suspension lifecycle: issuing records under the
// one-active-per-city rule, the extend/lift/reevaluate transitions, and the
// active/history read views with lazy expiry applied.
type Registry struct {
	store        Store
	audit        AuditPublisher
	bcast        Broadcaster
	logger       *slog.Logger
	metrics      *observability.Metrics
	historyLimit int
}

// NewRegistry creates a Registry with the given store and observability.
// historyLimit caps history listings when the caller sends no limit; zero
// or negative selects the default of 50.
func NewRegistry(store Store, audit AuditPublisher, bcast Broadcaster, logger *slog.Logger, metrics *observability.Metrics, historyLimit int) *Registry {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Registry{
		store:        store,
		audit:        audit,
		bcast:        bcast,
		logger:       logger,
		metrics:      metrics,
		historyLimit: historyLimit,
	}
}

// Issue validates, builds, and persists a new suspension record. The store
// rejects the insert with domain.ErrCityAlreadySuspended when the city
// already has an open record whose effective window overlaps the new one.
func (r *Registry) Issue(ctx context.Context, in domain.IssueInput) (*domain.SuspensionRecord, error) {
	rec, err := domain.NewSuspension(in)
	if err != nil {
		return nil, err
	}
	if in.IsAutoSuspended && !in.IsOverridden {
		if err := checkMandatedLevels(in); err != nil {
			return nil, err
		}
	}
	rec.ID = uuid.NewString()

	start := time.Now()
	if err := r.store.IssueSuspension(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrCityAlreadySuspended) {
			r.metrics.IssueConflicts.Inc()
		}
		return nil, fmt.Errorf("issue suspension: %w", err)
	}
	r.metrics.StoreTxDuration.Observe(time.Since(start).Seconds())
	r.metrics.SuspensionsIssued.Inc()

	r.logger.Info("suspension issued",
		"id", rec.ID, "city", rec.City, "levels", rec.Levels,
		"until", rec.EffectiveUntil, "auto", rec.IsAutoSuspended)
	r.afterCommit(ctx, EventSuspensionIssued, rec, rec.IssuedBy.Name, rec.Reason)
	return rec, nil
}

// checkMandatedLevels enforces that an auto-suspension carries exactly the
// levels its weather triggers mandate. Overridden records skip the check.
func checkMandatedLevels(in domain.IssueInput) error {
	assessment := domain.EvaluateAutoSuspend(in.Criteria)
	if !assessment.ShouldAutoSuspend {
		return domain.NewValidationError("criteria", "weather snapshot does not trigger auto-suspension")
	}
	if !sameLevels(in.Levels, assessment.AffectedLevels) {
		return domain.NewValidationError("levels",
			fmt.Sprintf("auto-suspension must cover exactly the mandated levels %v", assessment.AffectedLevels))
	}
	return nil
}

func sameLevels(a, b []domain.SuspensionLevel) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[domain.SuspensionLevel]bool, len(a))
	for _, l := range a {
		seen[l] = true
	}
	for _, l := range b {
		if !seen[l] {
			return false
		}
	}
	return true
}

// Get returns one record by id with its derived status resolved.
func (r *Registry) Get(ctx context.Context, id string) (*domain.SuspensionRecord, error) {
	rec, err := r.store.GetSuspension(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get suspension: %w", err)
	}
	rec.Status = rec.EffectiveStatus(domain.Clock().Now())
	return rec, nil
}

// Active returns the effectively active records, optionally narrowed to one
// city, ordered by effectiveUntil ascending then issuedAt descending.
func (r *Registry) Active(ctx context.Context, city string) ([]*domain.SuspensionRecord, error) {
	open, err := r.store.ListOpenSuspensions(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("list open suspensions: %w", err)
	}

	now := domain.Clock().Now()
	active := make([]*domain.SuspensionRecord, 0, len(open))
	for _, rec := range open {
		if rec.EffectivelyActive(now) {
			rec.Status = domain.StatusActive
			active = append(active, rec)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].EffectiveUntil.Equal(active[j].EffectiveUntil) {
			return active[i].EffectiveUntil.Before(active[j].EffectiveUntil)
		}
		return active[i].IssuedAt.After(active[j].IssuedAt)
	})
	return active, nil
}

// HistoryAnalytics summarizes a city's suspension history.
type HistoryAnalytics struct {
	Total                int            `json:"total"`
	AverageDurationHours float64        `json:"averageDurationHours"`
	MostCommonReason     string         `json:"mostCommonReason,omitempty"`
	PerMonth             map[string]int `json:"perMonth"`
}

// History returns a city's records newest first, capped at limit (default
// 50), plus analytics computed over the returned slice.
func (r *Registry) History(ctx context.Context, city string, limit int) ([]*domain.SuspensionRecord, HistoryAnalytics, error) {
	if limit <= 0 {
		limit = r.historyLimit
	}
	recs, err := r.store.ListHistory(ctx, city, limit)
	if err != nil {
		return nil, HistoryAnalytics{}, fmt.Errorf("list history: %w", err)
	}

	now := domain.Clock().Now()
	analytics := HistoryAnalytics{Total: len(recs), PerMonth: make(map[string]int)}
	reasons := make(map[string]int)
	var totalHours float64
	for _, rec := range recs {
		rec.Status = rec.EffectiveStatus(now)
		totalHours += rec.DurationHours
		reasons[rec.Reason]++
		analytics.PerMonth[rec.IssuedAt.Format("2006-01")]++
	}
	if len(recs) > 0 {
		analytics.AverageDurationHours = totalHours / float64(len(recs))
	}
	best := 0
	for reason, n := range reasons {
		if n > best || (n == best && reason < analytics.MostCommonReason) {
			best = n
			analytics.MostCommonReason = reason
		}
	}
	return recs, analytics, nil
}

// Extend pushes a record's effectiveUntil forward.
func (r *Registry) Extend(ctx context.Context, id string, newUntil time.Time, reason, actor string) (*domain.SuspensionRecord, error) {
	rec, err := r.store.GetSuspension(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get suspension: %w", err)
	}
	if err := rec.Extend(newUntil, reason, actor); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := r.store.UpdateSuspension(ctx, rec); err != nil {
		return nil, fmt.Errorf("update suspension: %w", err)
	}
	r.metrics.StoreTxDuration.Observe(time.Since(start).Seconds())
	r.metrics.SuspensionsExtended.Inc()

	r.logger.Info("suspension extended", "id", rec.ID, "city", rec.City, "until", rec.EffectiveUntil)
	r.afterCommit(ctx, EventSuspensionExtended, rec, actor, reason)
	return rec, nil
}

// Lift ends a suspension early.
func (r *Registry) Lift(ctx context.Context, id, reason, actor string) (*domain.SuspensionRecord, error) {
	rec, err := r.store.GetSuspension(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get suspension: %w", err)
	}
	if err := rec.Lift(reason, actor); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := r.store.UpdateSuspension(ctx, rec); err != nil {
		return nil, fmt.Errorf("update suspension: %w", err)
	}
	r.metrics.StoreTxDuration.Observe(time.Since(start).Seconds())
	r.metrics.SuspensionsLifted.Inc()

	r.logger.Info("suspension lifted", "id", rec.ID, "city", rec.City, "reason", reason)
	r.afterCommit(ctx, EventSuspensionLifted, rec, actor, reason)
	return rec, nil
}

// Reevaluate records a fresh conditions check on an active record.
func (r *Registry) Reevaluate(ctx context.Context, id string, trend domain.WeatherTrend, weather *domain.WeatherSnapshot, actor string) (*domain.SuspensionRecord, error) {
	rec, err := r.store.GetSuspension(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get suspension: %w", err)
	}
	if err := rec.Reevaluate(trend, weather, actor); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := r.store.UpdateSuspension(ctx, rec); err != nil {
		return nil, fmt.Errorf("update suspension: %w", err)
	}
	r.metrics.StoreTxDuration.Observe(time.Since(start).Seconds())

	r.logger.Info("suspension reevaluated", "id", rec.ID, "city", rec.City, "trend", trend)
	r.afterCommit(ctx, EventSuspensionReevaluated, rec, actor, string(trend))
	return rec, nil
}

// CityStats summarizes one city's suspension record.
type CityStats struct {
	City                 string  `json:"city"`
	Total                int     `json:"total"`
	Last30Days           int     `json:"last30Days"`
	Active               bool    `json:"active"`
	AverageDurationHours float64 `json:"averageDurationHours"`
}

// Stats computes the stats view for a city over its full history.
func (r *Registry) Stats(ctx context.Context, city string) (CityStats, error) {
	recs, err := r.store.ListHistory(ctx, city, 0)
	if err != nil {
		return CityStats{}, fmt.Errorf("list history: %w", err)
	}

	now := domain.Clock().Now()
	cutoff := now.Add(-30 * 24 * time.Hour)
	stats := CityStats{City: city, Total: len(recs)}
	var totalHours float64
	for _, rec := range recs {
		totalHours += rec.DurationHours
		if rec.IssuedAt.After(cutoff) {
			stats.Last30Days++
		}
		if rec.EffectivelyActive(now) {
			stats.Active = true
		}
	}
	if len(recs) > 0 {
		stats.AverageDurationHours = totalHours / float64(len(recs))
	}
	return stats, nil
}

// afterCommit publishes the audit event and pushes a fresh active snapshot
// to subscribers. Both are best effort; the state change is already durable.
func (r *Registry) afterCommit(ctx context.Context, evType string, rec *domain.SuspensionRecord, actor, reason string) {
	ev := AuditEvent{
		Type:      evType,
		RecordID:  rec.ID,
		City:      rec.City,
		Actor:     actor,
		Reason:    reason,
		Timestamp: domain.Clock().Now(),
	}
	if err := r.audit.Publish(ctx, ev); err != nil {
		r.metrics.AuditPublishErrors.Inc()
		r.logger.Warn("audit publish failed", "error", err, "type", evType, "id", rec.ID)
	}

	active, err := r.Active(ctx, "")
	if err != nil {
		r.logger.Warn("active snapshot failed", "error", err)
		return
	}
	r.metrics.ActiveSuspensions.Set(float64(len(active)))
	r.bcast.Broadcast(active)
}
