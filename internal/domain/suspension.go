package domain

import (
	"fmt"
	"time"
)

// SuspensionStatus is the stored state of a suspension record. Expired is
// derived at read time and only written back on the next mutation, if any.
type SuspensionStatus string

const (
	StatusScheduled SuspensionStatus = "scheduled"
	StatusActive    SuspensionStatus = "active"
	StatusLifted    SuspensionStatus = "lifted"
	StatusExpired   SuspensionStatus = "expired"
)

// WeatherTrend describes how conditions are evolving at reevaluation time.
type WeatherTrend string

const (
	TrendImproving WeatherTrend = "improving"
	TrendStable    WeatherTrend = "stable"
	TrendWorsening WeatherTrend = "worsening"
)

// Authority identifies the LGU official behind an action.
type Authority struct {
	Name   string `json:"name"`
	Title  string `json:"title,omitempty"`
	Office string `json:"office,omitempty"`
	Role   string `json:"role"` // governor, mayor, deped, delegate, system
}

// AISnapshot captures the advisory state that informed the decision.
// The summary text itself comes from an external collaborator; the engine
// only stores what it is given.
type AISnapshot struct {
	Recommendation  string `json:"recommendation"` // suspend, monitor, safe
	Confidence      int    `json:"confidence"`
	ReportCount     int    `json:"reportCount"`
	CriticalReports int    `json:"criticalReports"`
	Summary         string `json:"summary,omitempty"`
	Justification   string `json:"justification,omitempty"`
	RiskLevel       string `json:"riskLevel,omitempty"`
}

// SuspensionUpdate is one entry of a record's append-only audit trail.
type SuspensionUpdate struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	UpdatedBy string    `json:"updatedBy"`
	Reason    string    `json:"reason"`
}

// Extension records one duration extension.
type Extension struct {
	ExtendedAt        time.Time `json:"extendedAt"`
	NewEffectiveUntil time.Time `json:"newEffectiveUntil"`
	Reason            string    `json:"reason"`
	ExtendedBy        string    `json:"extendedBy"`
}

// SuspensionRecord is one class-suspension order for a city.
type SuspensionRecord struct {
	ID       string            `json:"id"`
	City     string            `json:"city"`
	Province string            `json:"province"`
	Status   SuspensionStatus  `json:"status"`
	Levels   []SuspensionLevel `json:"levels"`

	IssuedBy   Authority       `json:"issuedBy"`
	Criteria   WeatherSnapshot `json:"criteria"`
	AIAnalysis AISnapshot      `json:"aiAnalysis"`

	IssuedAt       time.Time  `json:"issuedAt"`
	EffectiveFrom  time.Time  `json:"effectiveFrom"`
	EffectiveUntil time.Time  `json:"effectiveUntil"`
	LiftedAt       *time.Time `json:"liftedAt,omitempty"`
	DurationHours  float64    `json:"durationHours"`

	Message      string `json:"message"`
	Instructions string `json:"instructions,omitempty"`
	Reason       string `json:"reason"`

	IsAutoSuspended bool   `json:"isAutoSuspended"`
	IsOverridden    bool   `json:"isOverridden"`
	OverrideReason  string `json:"overrideReason,omitempty"`

	LastReevaluatedAt *time.Time   `json:"lastReevaluatedAt,omitempty"`
	ReevaluationCount int          `json:"reevaluationCount"`
	WeatherTrend      WeatherTrend `json:"weatherConditionStatus,omitempty"`

	Extensions []Extension        `json:"extensions"`
	Updates    []SuspensionUpdate `json:"updates"`

	// Version supports optimistic concurrency in the backing store.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IssueInput carries everything needed to create a suspension record.
type IssueInput struct {
	City            string
	Province        string
	Levels          []SuspensionLevel
	DurationHours   float64
	Message         string
	Instructions    string
	Reason          string
	Criteria        WeatherSnapshot
	AIAnalysis      AISnapshot
	IssuedBy        Authority
	EffectiveFrom   time.Time // zero means now
	IsAutoSuspended bool
	IsOverridden    bool
	OverrideReason  string
}

// NewSuspension validates the input and builds a record. EffectiveFrom in
// the future yields a scheduled record, otherwise active. The auto-suspend
// invariant (levels exactly matching the mandated set of the triggering
// rule) is the caller's responsibility since only the caller holds the
// trigger; validation here covers shape, not policy.
func NewSuspension(in IssueInput) (*SuspensionRecord, error) {
	if in.City == "" {
		return nil, NewValidationError("city", "must not be empty")
	}
	if len(in.Levels) == 0 {
		return nil, NewValidationError("levels", "at least one level must be selected")
	}
	for _, l := range in.Levels {
		if !ValidSuspensionLevel(l) {
			return nil, NewValidationError("levels", fmt.Sprintf("unknown level %q", l))
		}
	}
	if in.DurationHours <= 0 {
		return nil, NewValidationError("durationHours", "must be positive")
	}
	if in.Message == "" {
		return nil, NewValidationError("message", "must not be empty")
	}
	if in.Reason == "" {
		return nil, NewValidationError("reason", "must not be empty")
	}
	if in.IssuedBy.Name == "" {
		return nil, NewValidationError("issuedBy", "issuer name must not be empty")
	}

	now := clock.Now()
	from := in.EffectiveFrom
	if from.IsZero() {
		from = now
	}
	status := StatusActive
	if from.After(now) {
		status = StatusScheduled
	}

	return &SuspensionRecord{
		City:            in.City,
		Province:        in.Province,
		Status:          status,
		Levels:          in.Levels,
		IssuedBy:        in.IssuedBy,
		Criteria:        in.Criteria,
		AIAnalysis:      in.AIAnalysis,
		IssuedAt:        now,
		EffectiveFrom:   from,
		EffectiveUntil:  from.Add(time.Duration(in.DurationHours * float64(time.Hour))),
		DurationHours:   in.DurationHours,
		Message:         in.Message,
		Instructions:    in.Instructions,
		Reason:          in.Reason,
		IsAutoSuspended: in.IsAutoSuspended,
		IsOverridden:    in.IsOverridden,
		OverrideReason:  in.OverrideReason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsExpired reports whether an active record has outlived its window.
// Pure predicate; no write happens. Every "active" read path must apply it.
func (r *SuspensionRecord) IsExpired(now time.Time) bool {
	return r.Status == StatusActive && now.After(r.EffectiveUntil)
}

// EffectiveStatus resolves the derived status at the given instant:
// scheduled records whose window has opened read as active, and active
// records past effectiveUntil read as expired.
func (r *SuspensionRecord) EffectiveStatus(now time.Time) SuspensionStatus {
	switch r.Status {
	case StatusScheduled:
		if !now.Before(r.EffectiveFrom) {
			if now.After(r.EffectiveUntil) {
				return StatusExpired
			}
			return StatusActive
		}
		return StatusScheduled
	case StatusActive:
		if r.IsExpired(now) {
			return StatusExpired
		}
		return StatusActive
	default:
		return r.Status
	}
}

// EffectivelyActive reports whether the record counts toward the
// one-active-per-city invariant at the given instant.
func (r *SuspensionRecord) EffectivelyActive(now time.Time) bool {
	return r.EffectiveStatus(now) == StatusActive
}

// OverlapsWindow reports whether the record still holds an open claim on
// any part of the [from, until] window. Lifted and already-expired records
// never block; scheduled and active ones block every window intersecting
// theirs, so a future-scheduled suspension reserves its slot before it
// opens.
func (r *SuspensionRecord) OverlapsWindow(from, until, now time.Time) bool {
	if r.Status != StatusScheduled && r.Status != StatusActive {
		return false
	}
	if now.After(r.EffectiveUntil) {
		return false
	}
	return r.EffectiveFrom.Before(until) && r.EffectiveUntil.After(from)
}

// Extend pushes effectiveUntil forward. Valid only on effectively active
// records; the new bound must be strictly later than the current one.
// Appends to both the extension history and the audit trail.
func (r *SuspensionRecord) Extend(newUntil time.Time, reason, actor string) error {
	now := clock.Now()
	if s := r.EffectiveStatus(now); s != StatusActive {
		return &InvalidTransitionError{Entity: "suspension", From: string(s), Action: "extend"}
	}
	if !newUntil.After(r.EffectiveUntil) {
		return NewValidationError("newEffectiveUntil", "must be after the current effectiveUntil")
	}

	old := r.EffectiveUntil
	r.EffectiveUntil = newUntil
	r.DurationHours = newUntil.Sub(r.EffectiveFrom).Hours()
	r.Extensions = append(r.Extensions, Extension{
		ExtendedAt:        now,
		NewEffectiveUntil: newUntil,
		Reason:            reason,
		ExtendedBy:        actor,
	})
	r.appendUpdate(now, "effectiveUntil", old.Format(time.RFC3339), newUntil.Format(time.RFC3339), actor, reason)
	return nil
}

// Lift ends a suspension early. Valid on effectively active or scheduled
// records; lifted and expired are terminal.
func (r *SuspensionRecord) Lift(reason, actor string) error {
	now := clock.Now()
	s := r.EffectiveStatus(now)
	if s != StatusActive && s != StatusScheduled {
		return &InvalidTransitionError{Entity: "suspension", From: string(s), Action: "lift"}
	}

	old := r.Status
	r.Status = StatusLifted
	r.LiftedAt = &now
	r.EffectiveUntil = now
	r.appendUpdate(now, "status", string(old), string(StatusLifted), actor, reason)
	return nil
}

// Reevaluate records a fresh look at conditions on an effectively active
// record: the trend, a bumped counter, and an optional criteria refresh.
func (r *SuspensionRecord) Reevaluate(trend WeatherTrend, weather *WeatherSnapshot, actor string) error {
	now := clock.Now()
	if s := r.EffectiveStatus(now); s != StatusActive {
		return &InvalidTransitionError{Entity: "suspension", From: string(s), Action: "reevaluate"}
	}
	switch trend {
	case TrendImproving, TrendStable, TrendWorsening:
	default:
		return NewValidationError("status", fmt.Sprintf("unknown weather trend %q", trend))
	}

	old := r.WeatherTrend
	r.LastReevaluatedAt = &now
	r.ReevaluationCount++
	r.WeatherTrend = trend
	if weather != nil {
		r.Criteria = *weather
	}
	r.appendUpdate(now, "weatherConditionStatus", string(old), string(trend), actor, "reevaluation")
	return nil
}

func (r *SuspensionRecord) appendUpdate(at time.Time, field, oldValue, newValue, actor, reason string) {
	r.Updates = append(r.Updates, SuspensionUpdate{
		UpdatedAt: at,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		UpdatedBy: actor,
		Reason:    reason,
	})
	r.UpdatedAt = at
}
