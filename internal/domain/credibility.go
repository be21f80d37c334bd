package domain

import (
	"math"
	"strings"
)

// CredibilityCategory labels how trustworthy a report group looks.
type CredibilityCategory string

const (
	CredibilityAuthentic     CredibilityCategory = "authentic"
	CredibilityNeedsReview   CredibilityCategory = "needs_review"
	CredibilityLowConfidence CredibilityCategory = "low_confidence"
)

// AttentionLevel ranks how urgently a location needs operator attention.
type AttentionLevel string

const (
	AttentionLow    AttentionLevel = "low"
	AttentionMedium AttentionLevel = "medium"
	AttentionHigh   AttentionLevel = "high"
)

// CredibilityAssessment is a pure derivation of a ReportGroup. It has no
// identity of its own; producing one freezes the group.
type CredibilityAssessment struct {
	Score     int                 `json:"score"` // 0-100
	Category  CredibilityCategory `json:"category"`
	Attention AttentionLevel      `json:"attentionLevel"`
}

// hazardKeywords is the lexicon scanned across report descriptions and
// categories. Each keyword counts once per report it appears in.
var hazardKeywords = []string{
	"flood", "rain", "storm", "typhoon", "landslide", "emergency", "impassable",
}

const baseConfidence = 50

// Confidence scores a report group's trustworthiness on [0,100].
//
// Exactly one report-volume adjustment applies, evaluated in descending
// magnitude: ≥5 reports +30, ≥3 +20, ≤1 −20, otherwise +0. A verification
// bonus adds +15 when at least half the reports are verified, +10 at a
// quarter. A +10 keyword bonus applies when the lexicon matches at least
// five times across all report text. Deterministic and total for any group.
func Confidence(g *ReportGroup) int {
	score := float64(baseConfidence)
	count := g.Count()

	switch {
	case count >= 5:
		score += 30
	case count >= 3:
		score += 20
	case count <= 1:
		score -= 20
	}

	switch ratio := g.VerifiedRatio(); {
	case ratio >= 50:
		score += 15
	case ratio >= 25:
		score += 10
	}

	if keywordHits(g) >= 5 {
		score += 10
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// keywordHits counts lexicon matches across every report's description and
// category text.
func keywordHits(g *ReportGroup) int {
	hits := 0
	for _, r := range g.Reports {
		text := strings.ToLower(r.Description + " " + r.Category)
		for _, kw := range hazardKeywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
	}
	return hits
}

// ClassifyCredibility derives the category from a score and report count.
// Authentic requires both a high score and corroboration from at least
// three reports; a single glowing report can never be authentic.
func ClassifyCredibility(score, count int) CredibilityCategory {
	switch {
	case score >= 85 && count >= 3:
		return CredibilityAuthentic
	case score >= 60:
		return CredibilityNeedsReview
	default:
		return CredibilityLowConfidence
	}
}

// AttentionFor ranks operator attention from report volume and score,
// evaluated in priority order.
func AttentionFor(count, score int) AttentionLevel {
	switch {
	case count >= 10 && score >= 75:
		return AttentionHigh
	case count >= 5 && score >= 85:
		return AttentionHigh
	case count >= 5 && score >= 50:
		return AttentionMedium
	case count >= 3 && score >= 75:
		return AttentionMedium
	default:
		return AttentionLow
	}
}

// AssessCredibility scores, classifies, and freezes a report group.
func AssessCredibility(g *ReportGroup) CredibilityAssessment {
	score := Confidence(g)
	count := g.Count()
	g.Close()
	return CredibilityAssessment{
		Score:     score,
		Category:  ClassifyCredibility(score, count),
		Attention: AttentionFor(count, score),
	}
}
