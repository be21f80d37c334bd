package suspension

import (
	"context"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
)

// RequestFilter narrows request listings. Zero values mean "any".
type RequestFilter struct {
	City   string
	Status domain.RequestStatus
}

// Store is the persistence boundary for suspension records and requests.
//
// Implementations must enforce three transactional guarantees:
//
//   - IssueSuspension atomically checks the one-active-per-city rule over
//     effective windows ([domain.SuspensionRecord.OverlapsWindow]) and
//     inserts; a concurrent winner makes the loser fail with
//     domain.ErrCityAlreadySuspended.
//   - Update* compare the record's Version against the stored one and fail
//     with domain.ErrConcurrencyConflict on mismatch, bumping Version on
//     success.
//   - ApproveRequestAndIssue persists the approved request and the issued
//     suspension in one transaction; neither side is visible without the
//     other.
type Store interface {
	IssueSuspension(ctx context.Context, rec *domain.SuspensionRecord) error
	GetSuspension(ctx context.Context, id string) (*domain.SuspensionRecord, error)
	UpdateSuspension(ctx context.Context, rec *domain.SuspensionRecord) error

	// ListOpenSuspensions returns records whose stored status is scheduled or
	// active, optionally narrowed to one city. Lazy expiry is the caller's
	// concern.
	ListOpenSuspensions(ctx context.Context, city string) ([]*domain.SuspensionRecord, error)

	// ListHistory returns records for a city ordered by issuedAt descending.
	// limit <= 0 means no limit.
	ListHistory(ctx context.Context, city string, limit int) ([]*domain.SuspensionRecord, error)

	CreateRequest(ctx context.Context, req *domain.SuspensionRequest) error
	GetRequest(ctx context.Context, id string) (*domain.SuspensionRequest, error)
	UpdateRequest(ctx context.Context, req *domain.SuspensionRequest) error
	ListRequests(ctx context.Context, f RequestFilter) ([]*domain.SuspensionRequest, error)

	ApproveRequestAndIssue(ctx context.Context, req *domain.SuspensionRequest, rec *domain.SuspensionRecord) error
}
