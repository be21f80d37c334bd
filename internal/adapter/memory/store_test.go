package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalasag-ph/suspension-engine/internal/adapter/memory"
	"github.com/kalasag-ph/suspension-engine/internal/domain"
)

var storeStart = time.Date(2024, 9, 2, 6, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, id, city string) *domain.SuspensionRecord {
	t.Helper()
	rec, err := domain.NewSuspension(domain.IssueInput{
		City:          city,
		Province:      "Batangas",
		Levels:        []domain.SuspensionLevel{domain.LevelPreschool, domain.LevelK12},
		DurationHours: 24,
		Message:       "Classes suspended due to heavy rainfall.",
		Reason:        "Orange rainfall warning",
		Criteria:      domain.WeatherSnapshot{Rainfall: 18},
		IssuedBy:      domain.Authority{Name: "Gov. Santos", Role: "governor"},
	})
	require.NoError(t, err)
	rec.ID = id
	return rec
}

func TestStoreReturnsIsolatedCopies(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(storeStart))
	t.Cleanup(func() { domain.SetClock(nil) })

	ctx := context.Background()
	store := memory.NewStore()

	rec := newRecord(t, "s-1", "Batangas City")
	require.NoError(t, store.IssueSuspension(ctx, rec))

	got, err := store.GetSuspension(ctx, "s-1")
	require.NoError(t, err)
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("stored record differs from issued (-want +got):\n%s", diff)
	}

	// Mutating the returned copy must not leak into the store.
	got.Levels[0] = domain.LevelCollege
	got.Reason = "tampered"

	again, err := store.GetSuspension(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelPreschool, again.Levels[0])
	assert.Equal(t, "Orange rainfall warning", again.Reason)
}

func TestStoreVersionConflict(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(storeStart))
	t.Cleanup(func() { domain.SetClock(nil) })

	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.IssueSuspension(ctx, newRecord(t, "s-1", "Batangas City")))

	first, err := store.GetSuspension(ctx, "s-1")
	require.NoError(t, err)
	second, err := store.GetSuspension(ctx, "s-1")
	require.NoError(t, err)

	first.Reason = "first writer"
	require.NoError(t, store.UpdateSuspension(ctx, first))

	second.Reason = "second writer"
	err = store.UpdateSuspension(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// Unknown id is reported as not found, not as a conflict.
	missing := newRecord(t, "s-404", "Lipa City")
	err = store.UpdateSuspension(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreHistoryOrderAndLimit(t *testing.T) {
	clock := clockwork.NewFakeClockAt(storeStart)
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	ctx := context.Background()
	store := memory.NewStore()

	cities := []string{"Batangas City", "Lipa City", "Tanauan City"}
	for i, city := range cities {
		require.NoError(t, store.IssueSuspension(ctx, newRecord(t, city, city)))
		if i < len(cities)-1 {
			clock.Advance(time.Hour) // distinct IssuedAt for a stable sort
		}
	}

	all, err := store.ListHistory(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Tanauan City", all[0].City) // newest first
	assert.Equal(t, "Batangas City", all[2].City)

	limited, err := store.ListHistory(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Tanauan City", limited[0].City)

	one, err := store.ListHistory(ctx, "lipa city", 0)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Lipa City", one[0].City)
}
