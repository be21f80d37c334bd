// Package memory provides an in-process Store used by tests and by the
// engine when no database is configured. All methods return copies, so
// callers can mutate results freely.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

// Store keeps suspension records and requests in maps behind one mutex.
// The single lock gives the same transactional guarantees the SQL store
// gets from row locking: issue checks and inserts atomically, and
// approve-and-issue is all or nothing.
type Store struct {
	mu          sync.RWMutex
	suspensions map[string]*domain.SuspensionRecord
	requests    map[string]*domain.SuspensionRequest
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		suspensions: make(map[string]*domain.SuspensionRecord),
		requests:    make(map[string]*domain.SuspensionRequest),
	}
}

var _ suspension.Store = (*Store)(nil)

// CheckReadiness always succeeds; there is nothing external to wait for.
func (s *Store) CheckReadiness(context.Context) error { return nil }

// IssueSuspension inserts the record unless the city already has an open
// record whose window overlaps the new one.
func (s *Store) IssueSuspension(_ context.Context, rec *domain.SuspensionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNoOverlap(rec); err != nil {
		return err
	}
	stored := cloneRecord(rec)
	stored.Version = 1
	s.suspensions[rec.ID] = stored
	rec.Version = 1
	return nil
}

// checkNoOverlap enforces the one-active-per-city rule over effective
// windows, so scheduled records block conflicting issues before they open.
// Caller holds the lock.
func (s *Store) checkNoOverlap(rec *domain.SuspensionRecord) error {
	now := domain.Clock().Now()
	for _, existing := range s.suspensions {
		if strings.EqualFold(existing.City, rec.City) &&
			existing.OverlapsWindow(rec.EffectiveFrom, rec.EffectiveUntil, now) {
			return domain.ErrCityAlreadySuspended
		}
	}
	return nil
}

func (s *Store) GetSuspension(_ context.Context, id string) (*domain.SuspensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.suspensions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// UpdateSuspension replaces the stored record if the caller's Version still
// matches, bumping it on success.
func (s *Store) UpdateSuspension(_ context.Context, rec *domain.SuspensionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.suspensions[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != rec.Version {
		return domain.ErrConcurrencyConflict
	}
	next := cloneRecord(rec)
	next.Version = stored.Version + 1
	s.suspensions[rec.ID] = next
	rec.Version = next.Version
	return nil
}

func (s *Store) ListOpenSuspensions(_ context.Context, city string) ([]*domain.SuspensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SuspensionRecord
	for _, rec := range s.suspensions {
		if rec.Status != domain.StatusScheduled && rec.Status != domain.StatusActive {
			continue
		}
		if city != "" && !strings.EqualFold(rec.City, city) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *Store) ListHistory(_ context.Context, city string, limit int) ([]*domain.SuspensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SuspensionRecord
	for _, rec := range s.suspensions {
		if city != "" && !strings.EqualFold(rec.City, city) {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateRequest(_ context.Context, req *domain.SuspensionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRequest(req)
	stored.Version = 1
	s.requests[req.ID] = stored
	req.Version = 1
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*domain.SuspensionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *Store) UpdateRequest(_ context.Context, req *domain.SuspensionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateRequestLocked(req)
}

func (s *Store) updateRequestLocked(req *domain.SuspensionRequest) error {
	stored, ok := s.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != req.Version {
		return domain.ErrConcurrencyConflict
	}
	next := cloneRequest(req)
	next.Version = stored.Version + 1
	s.requests[req.ID] = next
	req.Version = next.Version
	return nil
}

func (s *Store) ListRequests(_ context.Context, f suspension.RequestFilter) ([]*domain.SuspensionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SuspensionRequest
	for _, req := range s.requests {
		if f.City != "" && !strings.EqualFold(req.City, f.City) {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApproveRequestAndIssue writes the approved request and the new suspension
// under one lock. If the city check fails, nothing is written and the
// stored request stays pending.
func (s *Store) ApproveRequestAndIssue(_ context.Context, req *domain.SuspensionRequest, rec *domain.SuspensionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNoOverlap(rec); err != nil {
		return err
	}
	if err := s.updateRequestLocked(req); err != nil {
		return err
	}
	stored := cloneRecord(rec)
	stored.Version = 1
	s.suspensions[rec.ID] = stored
	rec.Version = 1
	return nil
}

func cloneRecord(rec *domain.SuspensionRecord) *domain.SuspensionRecord {
	out := *rec
	out.Levels = append([]domain.SuspensionLevel(nil), rec.Levels...)
	out.Extensions = append([]domain.Extension(nil), rec.Extensions...)
	out.Updates = append([]domain.SuspensionUpdate(nil), rec.Updates...)
	if rec.LiftedAt != nil {
		t := *rec.LiftedAt
		out.LiftedAt = &t
	}
	if rec.LastReevaluatedAt != nil {
		t := *rec.LastReevaluatedAt
		out.LastReevaluatedAt = &t
	}
	return &out
}

func cloneRequest(req *domain.SuspensionRequest) *domain.SuspensionRequest {
	out := *req
	out.RequestedLevels = append([]domain.SuspensionLevel(nil), req.RequestedLevels...)
	if req.ReviewedBy != nil {
		a := *req.ReviewedBy
		out.ReviewedBy = &a
	}
	if req.ReviewedAt != nil {
		t := *req.ReviewedAt
		out.ReviewedAt = &t
	}
	return &out
}
