package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeGroup builds a group with n reports, v of them verified, using the
// given description text for every report.
func makeGroup(n, verified int, description string) *ReportGroup {
	g := &ReportGroup{LocationKey: "Poblacion"}
	for i := 0; i < n; i++ {
		status := ReportStatusInvestigating
		if i < verified {
			status = ReportStatusVerified
		}
		g.Reports = append(g.Reports, ReportSummary{
			ID:          fmt.Sprintf("r-%d", i),
			Description: description,
			Category:    "hazard",
			Status:      status,
			Severity:    "medium",
			CreatedAt:   time.Date(2024, 9, 2, 6, 0, i, 0, time.UTC),
		})
	}
	return g
}

func TestConfidence(t *testing.T) {
	t.Run("base score for two unverified reports", func(t *testing.T) {
		// Two reports: no volume adjustment, no bonuses.
		assert.Equal(t, 50, Confidence(makeGroup(2, 0, "water rising")))
	})

	t.Run("single report is penalized", func(t *testing.T) {
		assert.Equal(t, 30, Confidence(makeGroup(1, 0, "water rising")))
	})

	t.Run("empty group is penalized", func(t *testing.T) {
		assert.Equal(t, 30, Confidence(&ReportGroup{LocationKey: "Poblacion"}))
	})

	t.Run("three reports gain volume bonus", func(t *testing.T) {
		assert.Equal(t, 70, Confidence(makeGroup(3, 0, "water rising")))
	})

	t.Run("full house clamps to 100", func(t *testing.T) {
		// 6 reports (+30), 4 verified = 66% (+15), "flood" in every
		// description = 6 keyword hits (+10): 50+30+15+10 = 105 → 100.
		g := makeGroup(6, 4, "flood water on the highway")
		assert.Equal(t, 100, Confidence(g))
	})

	t.Run("verification bonus tiers", func(t *testing.T) {
		// 4 reports: +20 volume. 1/4 verified = 25% → +10.
		assert.Equal(t, 80, Confidence(makeGroup(4, 1, "water rising")))
		// 2/4 verified = 50% → +15.
		assert.Equal(t, 85, Confidence(makeGroup(4, 2, "water rising")))
	})

	t.Run("keyword bonus needs five hits", func(t *testing.T) {
		// 4 reports each matching "flood" = 4 hits: no bonus.
		assert.Equal(t, 70, Confidence(makeGroup(4, 0, "flood here")))
		// Each report matching "flood" and "rain" = 8 hits: +10.
		assert.Equal(t, 80, Confidence(makeGroup(4, 0, "flood from heavy rain")))
	})

	t.Run("non-decreasing in verified ratio", func(t *testing.T) {
		for n := 1; n <= 8; n++ {
			prev := -1
			for v := 0; v <= n; v++ {
				score := Confidence(makeGroup(n, v, "water rising"))
				require.GreaterOrEqual(t, score, prev, "n=%d v=%d", n, v)
				require.GreaterOrEqual(t, score, 0)
				require.LessOrEqual(t, score, 100)
				prev = score
			}
		}
	})
}

func TestClassifyCredibility(t *testing.T) {
	tests := []struct {
		score, count int
		want         CredibilityCategory
	}{
		{95, 5, CredibilityAuthentic},
		{85, 3, CredibilityAuthentic},
		{70, 5, CredibilityNeedsReview},
		{40, 5, CredibilityLowConfidence},
		{90, 1, CredibilityNeedsReview}, // high score alone cannot be authentic
		{59, 2, CredibilityLowConfidence},
		{60, 1, CredibilityNeedsReview},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score=%d count=%d", tt.score, tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCredibility(tt.score, tt.count))
		})
	}
}

func TestAttentionFor(t *testing.T) {
	tests := []struct {
		count, score int
		want         AttentionLevel
	}{
		{10, 75, AttentionHigh},
		{5, 85, AttentionHigh},
		{10, 74, AttentionMedium}, // fails high gate, passes count≥5 score≥50
		{5, 50, AttentionMedium},
		{3, 75, AttentionMedium},
		{3, 74, AttentionLow},
		{2, 95, AttentionLow},
		{0, 0, AttentionLow},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("count=%d score=%d", tt.count, tt.score), func(t *testing.T) {
			assert.Equal(t, tt.want, AttentionFor(tt.count, tt.score))
		})
	}
}

func TestAssessCredibility_FreezesGroup(t *testing.T) {
	g := makeGroup(6, 4, "flood from heavy rain")

	got := AssessCredibility(g)

	assert.Equal(t, 100, got.Score)
	assert.Equal(t, CredibilityAuthentic, got.Category)
	assert.Equal(t, AttentionHigh, got.Attention)
	assert.True(t, g.Closed())

	err := g.Append(ReportSummary{ID: "late"})
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))
}

func TestCompileReports(t *testing.T) {
	reports := []ReportSummary{
		{ID: "1", Location: "Poblacion", Status: ReportStatusVerified, Severity: "high", CreatedAt: time.Date(2024, 9, 2, 6, 0, 0, 0, time.UTC)},
		{ID: "2", Location: "Poblacion", Status: ReportStatusInvestigating, Severity: "critical", CreatedAt: time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC)},
		{ID: "3", Location: "Wawa", Status: ReportStatusVerified, CreatedAt: time.Date(2024, 9, 2, 5, 0, 0, 0, time.UTC)},
		{ID: "4", Location: "", CreatedAt: time.Date(2024, 9, 2, 5, 30, 0, 0, time.UTC)},
	}

	groups := CompileReports(reports)

	require.Len(t, groups, 3)
	// Busiest location first.
	assert.Equal(t, "Poblacion", groups[0].LocationKey)
	assert.Equal(t, 2, groups[0].Count())
	assert.Equal(t, 1, groups[0].CountByStatus(ReportStatusVerified))
	assert.Equal(t, 1, groups[0].CountBySeverity("critical"))
	assert.Equal(t, time.Date(2024, 9, 2, 7, 0, 0, 0, time.UTC), groups[0].LatestReportAt())
	// Empty locations collapse into "Unknown".
	keys := []string{groups[1].LocationKey, groups[2].LocationKey}
	assert.ElementsMatch(t, []string{"Wawa", "Unknown"}, keys)
}
