package suspension

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/observability"
)

// Workflow handles the mayor-to-governor request pipeline: submission,
// review, and the approval path that issues a suspension in the same
// transaction as the request update.
type Workflow struct {
	store    Store
	registry *Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
	province string
}

// NewWorkflow creates a Workflow. Approved requests are issued into the
// given province.
func NewWorkflow(store Store, registry *Registry, province string, logger *slog.Logger, metrics *observability.Metrics) *Workflow {
	return &Workflow{
		store:    store,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		province: province,
	}
}

// Submit validates and persists a new pending request.
func (w *Workflow) Submit(ctx context.Context, in domain.SubmitInput) (*domain.SuspensionRequest, error) {
	req, err := domain.NewSuspensionRequest(in)
	if err != nil {
		return nil, err
	}
	req.ID = uuid.NewString()

	if err := w.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	w.metrics.RequestsSubmitted.Inc()

	w.logger.Info("suspension request submitted",
		"id", req.ID, "city", req.City, "requested_by", req.RequestedBy.Name,
		"levels", req.RequestedLevels, "duration_hours", req.Duration)
	w.publish(ctx, EventRequestSubmitted, req.ID, req.City, req.RequestedBy.Name, req.Reason)
	return req, nil
}

// Approve moves a pending request to approved and issues the suspension it
// asked for, atomically. If the city gained an active suspension since
// submission, the whole operation fails with domain.ErrCityAlreadySuspended
// and the request stays pending.
func (w *Workflow) Approve(ctx context.Context, id string, approver domain.Authority, notes string) (*domain.SuspensionRequest, *domain.SuspensionRecord, error) {
	req, err := w.store.GetRequest(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get request: %w", err)
	}

	rec, err := domain.NewSuspension(domain.IssueInput{
		City:          req.City,
		Province:      w.province,
		Levels:        req.RequestedLevels,
		DurationHours: req.Duration,
		Message:       approvalMessage(req),
		Reason:        req.Reason,
		Criteria:      req.Weather,
		AIAnalysis: domain.AISnapshot{
			ReportCount:     req.ReportCount,
			CriticalReports: req.CriticalReports,
		},
		IssuedBy: approver,
	})
	if err != nil {
		return nil, nil, err
	}
	rec.ID = uuid.NewString()

	if err := req.Approve(approver, rec.ID, notes); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	if err := w.store.ApproveRequestAndIssue(ctx, req, rec); err != nil {
		return nil, nil, fmt.Errorf("approve request: %w", err)
	}
	w.metrics.StoreTxDuration.Observe(time.Since(start).Seconds())
	w.metrics.RequestsReviewed.WithLabelValues("approved").Inc()
	w.metrics.SuspensionsIssued.Inc()

	w.logger.Info("suspension request approved",
		"request_id", req.ID, "suspension_id", rec.ID, "city", req.City, "approver", approver.Name)
	w.publish(ctx, EventRequestApproved, req.ID, req.City, approver.Name, notes)
	w.registry.afterCommit(ctx, EventSuspensionIssued, rec, approver.Name, rec.Reason)
	return req, rec, nil
}

// Reject moves a pending request to rejected with a mandatory reason.
func (w *Workflow) Reject(ctx context.Context, id string, approver domain.Authority, reason string) (*domain.SuspensionRequest, error) {
	req, err := w.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if err := req.Reject(approver, reason); err != nil {
		return nil, err
	}
	if err := w.store.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	w.metrics.RequestsReviewed.WithLabelValues("rejected").Inc()

	w.logger.Info("suspension request rejected", "id", req.ID, "city", req.City, "approver", approver.Name)
	w.publish(ctx, EventRequestRejected, req.ID, req.City, approver.Name, reason)
	return req, nil
}

// Cancel terminates a pending request on behalf of its requester or the
// system. Any suspension already issued is untouched.
func (w *Workflow) Cancel(ctx context.Context, id, actor string) (*domain.SuspensionRequest, error) {
	req, err := w.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if err := req.Cancel(actor); err != nil {
		return nil, err
	}
	if err := w.store.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	w.metrics.RequestsReviewed.WithLabelValues("cancelled").Inc()

	w.logger.Info("suspension request cancelled", "id", req.ID, "city", req.City, "actor", actor)
	w.publish(ctx, EventRequestCancelled, req.ID, req.City, actor, "")
	return req, nil
}

// Pending lists all pending requests.
func (w *Workflow) Pending(ctx context.Context) ([]*domain.SuspensionRequest, error) {
	reqs, err := w.store.ListRequests(ctx, RequestFilter{Status: domain.RequestPending})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

// ByCity lists all requests for one city regardless of status.
func (w *Workflow) ByCity(ctx context.Context, city string) ([]*domain.SuspensionRequest, error) {
	reqs, err := w.store.ListRequests(ctx, RequestFilter{City: city})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

func (w *Workflow) publish(ctx context.Context, evType, id, city, actor, reason string) {
	ev := AuditEvent{
		Type:      evType,
		RecordID:  id,
		City:      city,
		Actor:     actor,
		Reason:    reason,
		Timestamp: domain.Clock().Now(),
	}
	if err := w.registry.audit.Publish(ctx, ev); err != nil {
		w.metrics.AuditPublishErrors.Inc()
		w.logger.Warn("audit publish failed", "error", err, "type", evType, "id", id)
	}
}

func approvalMessage(req *domain.SuspensionRequest) string {
	levels := make([]string, len(req.RequestedLevels))
	for i, l := range req.RequestedLevels {
		levels[i] = string(l)
	}
	return fmt.Sprintf("Classes suspended in %s (%s) for %.0f hours as requested by %s.",
		req.City, strings.Join(levels, ", "), req.Duration, req.RequestedBy.Name)
}
