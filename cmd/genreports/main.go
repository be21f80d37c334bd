// Command genreports generates synthetic community report fixtures and the
// weather snapshots that accompany them. It uses the actual decision domain
// package so the printed assessment stats match real engine behavior, which
// makes the output usable for seeding demos and updating test assertions.
//
// Usage:
//
//	go run ./cmd/genreports \
//	  -city "Batangas City" \
//	  -count 40 \
//	  -seed 1 \
//	  -out data/mock/batangas_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kalasag-ph/suspension-engine/internal/domain"
)

var baseDate = time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)

var (
	locations  = []string{"Poblacion", "Alangilan", "Kumintang Ibaba", "Balagtas", "Sta. Rita", ""}
	categories = []string{"flooding", "road", "landslide", "infrastructure", "other"}
	severities = []string{"low", "medium", "high", "critical"}
	statuses   = []string{"pending", "investigating", "verified", "resolved"}

	descriptions = map[string][]string{
		"flooding":       {"knee-deep flood on the main road", "creek overflowing near the school", "floodwater entering houses"},
		"road":           {"road impassable to light vehicles", "fallen tree blocking both lanes", "deep standing water at the junction"},
		"landslide":      {"soil erosion along the hillside road", "minor rockfall reported"},
		"infrastructure": {"power lines down after strong winds", "drainage clogged and backing up"},
		"other":          {"strong winds damaging roofs", "residents requesting evacuation assistance"},
	}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	city := flag.String("city", "Batangas City", "city the reports belong to")
	count := flag.Int("count", 40, "number of reports to generate")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	out := flag.String("out", "", "output path for the report JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fix the clock so CreatedAt offsets are reproducible across runs.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate.Add(6 * time.Hour)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))
	reports := make([]domain.ReportSummary, 0, *count)
	for i := 0; i < *count; i++ {
		cat := categories[rng.Intn(len(categories))]
		texts := descriptions[cat]
		reports = append(reports, domain.ReportSummary{
			ID:          uuid.NewString(),
			Description: texts[rng.Intn(len(texts))],
			Category:    cat,
			Status:      statuses[rng.Intn(len(statuses))],
			Severity:    severities[rng.Intn(len(severities))],
			Location:    locations[rng.Intn(len(locations))],
			CreatedAt:   baseDate.Add(time.Duration(rng.Intn(360)) * time.Minute),
		})
	}

	if err := writeJSON(*out, reports); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote %d reports for %s: %s", len(reports), *city, *out)

	weather := domain.WeatherSnapshot{
		Rainfall:  5 + rng.Float64()*30,
		WindSpeed: 10 + rng.Float64()*60,
	}
	printStats(*city, weather, reports)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats runs the real assessment pipeline over the generated fixture
// and prints the numbers a test would assert on.
func printStats(city string, weather domain.WeatherSnapshot, reports []domain.ReportSummary) {
	critical := 0
	verified := 0
	for i := range reports {
		if reports[i].Severity == "critical" {
			critical++
		}
		if reports[i].Status == domain.ReportStatusVerified {
			verified++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("City: %s\n", city)
	fmt.Printf("Total: %d (verified=%d, critical=%d)\n", len(reports), verified, critical)
	fmt.Printf("Weather: rainfall=%.1f mm/h, wind=%.1f km/h\n", weather.Rainfall, weather.WindSpeed)

	auto := domain.EvaluateAutoSuspend(weather)
	fmt.Printf("Auto-suspend: %v (levels=%v)\n", auto.ShouldAutoSuspend, auto.AffectedLevels)

	risk := domain.RecommendSuspension(weather, len(reports), critical)
	fmt.Printf("Risk: score=%d action=%s\n", risk.Score, risk.Action)

	fmt.Println("\nPer-location credibility:")
	for _, g := range domain.CompileReports(reports) {
		cred := domain.AssessCredibility(g)
		fmt.Printf("  %-18s reports=%-3d verified=%-3d score=%-3d category=%s attention=%s\n",
			g.LocationKey, g.Count(), g.CountByStatus(domain.ReportStatusVerified),
			cred.Score, cred.Category, cred.Attention)
	}
}
