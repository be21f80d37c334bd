package domain

import (
	"fmt"
	"time"
)

// RequestStatus is the state of a mayor's suspension request. Pending is
// the only non-terminal state; a request reaches exactly one terminal state.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// Requested duration bounds in hours.
const (
	MinRequestDuration = 2
	MaxRequestDuration = 48
)

// SuspensionRequest is a mayor's ask for the governor to suspend classes.
type SuspensionRequest struct {
	ID              string            `json:"id"`
	City            string            `json:"city"`
	RequestedBy     Authority         `json:"requestedBy"`
	RequestedLevels []SuspensionLevel `json:"requestedLevels"`
	Duration        float64           `json:"requestedDuration"` // hours
	Reason          string            `json:"reason"`

	Weather         WeatherSnapshot `json:"weatherData"`
	ReportCount     int             `json:"reportCount"`
	CriticalReports int             `json:"criticalReports"`

	Status        RequestStatus `json:"status"`
	ReviewedBy    *Authority    `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time    `json:"reviewedAt,omitempty"`
	GovernorNotes string        `json:"governorNotes,omitempty"`

	// LinkedSuspensionID is set atomically with approval. An approved
	// request without it is a corruption and must never be observable.
	LinkedSuspensionID string `json:"linkedSuspensionId,omitempty"`

	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SubmitInput carries a new request's fields.
type SubmitInput struct {
	City            string
	RequestedBy     Authority
	RequestedLevels []SuspensionLevel
	Duration        float64 // hours
	Reason          string
	Weather         WeatherSnapshot
	ReportCount     int
	CriticalReports int
}

// NewSuspensionRequest validates and builds a pending request.
func NewSuspensionRequest(in SubmitInput) (*SuspensionRequest, error) {
	if in.City == "" {
		return nil, NewValidationError("city", "must not be empty")
	}
	if in.RequestedBy.Name == "" {
		return nil, NewValidationError("requestedBy", "requester name must not be empty")
	}
	if len(in.RequestedLevels) == 0 {
		return nil, NewValidationError("requestedLevels", "at least one level must be selected")
	}
	for _, l := range in.RequestedLevels {
		if !ValidSuspensionLevel(l) {
			return nil, NewValidationError("requestedLevels", fmt.Sprintf("unknown level %q", l))
		}
	}
	if in.Duration < MinRequestDuration || in.Duration > MaxRequestDuration {
		return nil, NewValidationError("requestedDuration",
			fmt.Sprintf("must be between %d and %d hours", MinRequestDuration, MaxRequestDuration))
	}
	if in.Reason == "" {
		return nil, NewValidationError("reason", "must not be empty")
	}

	now := clock.Now()
	return &SuspensionRequest{
		City:            in.City,
		RequestedBy:     in.RequestedBy,
		RequestedLevels: in.RequestedLevels,
		Duration:        in.Duration,
		Reason:          in.Reason,
		Weather:         in.Weather,
		ReportCount:     in.ReportCount,
		CriticalReports: in.CriticalReports,
		Status:          RequestPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Approve moves a pending request to approved, linking the issued
// suspension. The caller must persist this mutation in the same transaction
// that created the suspension record.
func (q *SuspensionRequest) Approve(reviewer Authority, suspensionID, notes string) error {
	if q.Status != RequestPending {
		return &InvalidTransitionError{Entity: "request", From: string(q.Status), Action: "approve"}
	}
	if suspensionID == "" {
		return NewValidationError("suspensionId", "approval requires a linked suspension id")
	}

	now := clock.Now()
	q.Status = RequestApproved
	q.ReviewedBy = &reviewer
	q.ReviewedAt = &now
	q.GovernorNotes = notes
	q.LinkedSuspensionID = suspensionID
	q.UpdatedAt = now
	return nil
}

// Reject moves a pending request to rejected. A reason is mandatory.
func (q *SuspensionRequest) Reject(reviewer Authority, reason string) error {
	if q.Status != RequestPending {
		return &InvalidTransitionError{Entity: "request", From: string(q.Status), Action: "reject"}
	}
	if reason == "" {
		return NewValidationError("reason", "rejection reason must not be empty")
	}

	now := clock.Now()
	q.Status = RequestRejected
	q.ReviewedBy = &reviewer
	q.ReviewedAt = &now
	q.GovernorNotes = reason
	q.UpdatedAt = now
	return nil
}

// Cancel terminates a pending request. Only the original requester or the
// system may cancel. Cancelling has no effect on any issued suspension.
func (q *SuspensionRequest) Cancel(actor string) error {
	if q.Status != RequestPending {
		return &InvalidTransitionError{Entity: "request", From: string(q.Status), Action: "cancel"}
	}
	if actor != q.RequestedBy.Name && actor != "system" {
		return NewValidationError("requestedBy", "only the original requester may cancel")
	}

	now := clock.Now()
	q.Status = RequestCancelled
	q.UpdatedAt = now
	return nil
}
