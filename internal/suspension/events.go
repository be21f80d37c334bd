package suspension

import (
	"context"
	"time"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
)

// Audit event types published after each committed state change.
const (
	EventSuspensionIssued      = "suspension.issued"
	EventSuspensionExtended    = "suspension.extended"
	EventSuspensionLifted      = "suspension.lifted"
	EventSuspensionReevaluated = "suspension.reevaluated"
	EventRequestSubmitted      = "request.submitted"
	EventRequestApproved       = "request.approved"
	EventRequestRejected       = "request.rejected"
	EventRequestCancelled      = "request.cancelled"
)

// AuditEvent is the record of one lifecycle action, published to the sink
// topic after the change is committed.
type AuditEvent struct {
	Type      string    `json:"type"`
	RecordID  string    `json:"recordId"`
	City      string    `json:"city"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditPublisher delivers audit events to the notification sink.
type AuditPublisher interface {
	Publish(ctx context.Context, ev AuditEvent) error
}

// Broadcaster pushes the full active set to live subscribers after each
// committed write.
type Broadcaster interface {
	Broadcast(active []*domain.SuspensionRecord)
}

// NopPublisher discards audit events. Used when no sink is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuditEvent) error { return nil }

// NopBroadcaster discards snapshots.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast([]*domain.SuspensionRecord) {}
