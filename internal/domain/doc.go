// Package domain models weather-driven class suspensions for a Philippine
// province following PAGASA advisories and DepEd Order No. 022, s. 2024.
//
// # PAGASA Rainfall Warning System
//
// Rainfall intensity (mm/hour, sustained) maps to a three-band advisory:
//
//	Yellow:  7.5 ≤ r < 15   slight flooding in low-lying areas
//	Orange:  15 ≤ r < 30    flooding threat near rivers and low-lying areas
//	Red:     r ≥ 30         serious flooding, evacuation may be necessary
//
// Bands are non-overlapping by construction. Evaluation always checks Red
// first so a lower band can never mask a higher one. Rainfall below 7.5 mm/h
// carries no warning. A missing rainfall value defaults to 0, never null, so
// evaluation stays total.
//
// # Tropical Cyclone Wind Signal (TCWS)
//
// A five-level public warning scale keyed on sustained wind speed (km/h):
//
//	Signal 1:  39–61
//	Signal 2:  62–88
//	Signal 3:  89–117
//	Signal 4:  118–184
//	Signal 5:  185+
//
// Bands are treated as half-open intervals so every wind speed of at least
// 39 km/h resolves to exactly one signal. Below 39 km/h there is no signal.
//
// # DepEd auto-suspend matrix
//
// Per DepEd Order 022, each trigger mandates a fixed set of affected levels:
//
//	Any TCWS (1–5)   → all levels
//	Red warning      → all levels
//	Orange warning   → all levels
//	Yellow warning   → preschool and K-12 only
//
// When an explicit TCWS reading and the wind-speed-derived signal would both
// fire, only one TCWS trigger is reported: the explicit reading wins.
//
// # Credibility scoring
//
// Community report groups are scored with a hand-written heuristic, not a
// trained model. The score starts at 50 and applies exactly one report-volume
// adjustment (≥5 reports +30, ≥3 +20, ≤1 −20), a verification-ratio bonus
// (≥50% verified +15, ≥25% +10), and a keyword bonus (+10 when the lexicon
// matches at least 5 times across all report text). The result is clamped to
// [0,100]. Category and attention level are pure functions of (score, count).
//
// # Suspension lifecycle
//
// A record moves scheduled → active → lifted, or expires. Expiry is derived:
// a record whose effectiveUntil has passed is effectively expired even while
// its stored status still reads active. No background job flips status;
// every read path must apply [SuspensionRecord.IsExpired]. Extensions only
// ever push effectiveUntil forward; every mutation appends to the audit
// trail in Updates.
package domain
