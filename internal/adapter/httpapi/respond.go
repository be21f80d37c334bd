package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case domain.IsInvalidTransition(err),
		errors.Is(err, domain.ErrCityAlreadySuspended),
		errors.Is(err, domain.ErrConcurrencyConflict):
		status = http.StatusConflict
	case isUpstream(err):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func isUpstream(err error) bool {
	var ue *domain.UpstreamError
	return errors.As(err, &ue)
}

// decodeJSON parses the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

// withConflictRetry runs op and retries it exactly once if it lost an
// optimistic-concurrency race. A second conflict surfaces to the client.
func withConflictRetry(op func() error) error {
	err := op()
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		err = op()
	}
	return err
}
