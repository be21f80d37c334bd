package suspension_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
	"github.com/kalasag-ph/suspension-engine/internal/observability"
	"github.com/kalasag-ph/suspension-engine/internal/suspension"
)

func newWorkflowFixture(t *testing.T) (*fixture, *suspension.Workflow) {
	t.Helper()
	f := newFixture(t)
	w := suspension.NewWorkflow(f.store, f.registry, "Batangas", slog.Default(), observability.NewMetricsForTesting())
	return f, w
}

func submitInput(city string) domain.SubmitInput {
	return domain.SubmitInput{
		City:            city,
		RequestedBy:     domain.Authority{Name: "Mayor Reyes", Role: "mayor"},
		RequestedLevels: []domain.SuspensionLevel{domain.LevelPreschool, domain.LevelK12},
		Duration:        12,
		Reason:          "Flooding reported across several barangays",
		Weather:         domain.WeatherSnapshot{Rainfall: 18, WindSpeed: 35},
		ReportCount:     6,
		CriticalReports: 2,
	}
}

var governor = domain.Authority{Name: "Gov. Santos", Role: "governor"}

func TestWorkflow_SubmitAndList(t *testing.T) {
	f, w := newWorkflowFixture(t)
	ctx := context.Background()

	req, err := w.Submit(ctx, submitInput("Lipa City"))
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, domain.RequestPending, req.Status)

	_, err = w.Submit(ctx, submitInput("Tanauan City"))
	require.NoError(t, err)

	pending, err := w.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byCity, err := w.ByCity(ctx, "lipa city")
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, req.ID, byCity[0].ID)

	assert.Contains(t, f.audit.types(), suspension.EventRequestSubmitted)
}

func TestWorkflow_Approve(t *testing.T) {
	t.Run("approves and issues atomically", func(t *testing.T) {
		f, w := newWorkflowFixture(t)
		ctx := context.Background()

		req, err := w.Submit(ctx, submitInput("Lipa City"))
		require.NoError(t, err)

		approved, rec, err := w.Approve(ctx, req.ID, governor, "granted as requested")
		require.NoError(t, err)

		assert.Equal(t, domain.RequestApproved, approved.Status)
		assert.Equal(t, rec.ID, approved.LinkedSuspensionID)
		assert.Equal(t, "Lipa City", rec.City)
		assert.Equal(t, req.RequestedLevels, rec.Levels)
		assert.Equal(t, req.Duration, rec.DurationHours)
		assert.Equal(t, governor, rec.IssuedBy)

		active, err := f.registry.Active(ctx, "Lipa City")
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, rec.ID, active[0].ID)

		assert.Contains(t, f.audit.types(), suspension.EventRequestApproved)
		assert.Contains(t, f.audit.types(), suspension.EventSuspensionIssued)
	})

	t.Run("fails whole operation when city gained an active suspension", func(t *testing.T) {
		f, w := newWorkflowFixture(t)
		ctx := context.Background()

		req, err := w.Submit(ctx, submitInput("Lipa City"))
		require.NoError(t, err)

		_, err = f.registry.Issue(ctx, issueInput("Lipa City"))
		require.NoError(t, err)

		_, _, err = w.Approve(ctx, req.ID, governor, "")
		require.ErrorIs(t, err, domain.ErrCityAlreadySuspended)

		// The request must still be pending with no linked suspension.
		stored, err := f.store.GetRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestPending, stored.Status)
		assert.Empty(t, stored.LinkedSuspensionID)
	})

	t.Run("unknown request", func(t *testing.T) {
		_, w := newWorkflowFixture(t)
		_, _, err := w.Approve(context.Background(), "missing", governor, "")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("already reviewed", func(t *testing.T) {
		_, w := newWorkflowFixture(t)
		ctx := context.Background()

		req, err := w.Submit(ctx, submitInput("Lipa City"))
		require.NoError(t, err)
		_, err = w.Reject(ctx, req.ID, governor, "conditions do not warrant it")
		require.NoError(t, err)

		_, _, err = w.Approve(ctx, req.ID, governor, "")
		require.Error(t, err)
		assert.True(t, domain.IsInvalidTransition(err))
	})
}

func TestWorkflow_Reject(t *testing.T) {
	f, w := newWorkflowFixture(t)
	ctx := context.Background()

	req, err := w.Submit(ctx, submitInput("Lipa City"))
	require.NoError(t, err)

	rejected, err := w.Reject(ctx, req.ID, governor, "forecast improving")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, rejected.Status)
	assert.Equal(t, "forecast improving", rejected.GovernorNotes)

	// Rejection never issues a suspension.
	active, err := f.registry.Active(ctx, "Lipa City")
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Contains(t, f.audit.types(), suspension.EventRequestRejected)
}

func TestWorkflow_Cancel(t *testing.T) {
	t.Run("requester cancels", func(t *testing.T) {
		f, w := newWorkflowFixture(t)
		ctx := context.Background()

		req, err := w.Submit(ctx, submitInput("Lipa City"))
		require.NoError(t, err)

		cancelled, err := w.Cancel(ctx, req.ID, "Mayor Reyes")
		require.NoError(t, err)
		assert.Equal(t, domain.RequestCancelled, cancelled.Status)
		assert.Contains(t, f.audit.types(), suspension.EventRequestCancelled)
	})

	t.Run("cancel leaves an issued suspension untouched", func(t *testing.T) {
		f, w := newWorkflowFixture(t)
		ctx := context.Background()

		req, err := w.Submit(ctx, submitInput("Lipa City"))
		require.NoError(t, err)
		_, rec, err := w.Approve(ctx, req.ID, governor, "")
		require.NoError(t, err)

		_, err = w.Cancel(ctx, req.ID, "Mayor Reyes")
		require.Error(t, err)
		assert.True(t, domain.IsInvalidTransition(err))

		active, err := f.registry.Active(ctx, "Lipa City")
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, rec.ID, active[0].ID)
	})
}
