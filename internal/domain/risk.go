package domain

// RiskAction is the recommended operator action for a risk score band.
type RiskAction string

const (
	ActionSafe            RiskAction = "SAFE"
	ActionMonitorClosely  RiskAction = "MONITOR_CLOSELY"
	ActionConsiderSuspend RiskAction = "CONSIDER_SUSPENDING"
	ActionSuspendNow      RiskAction = "SUSPEND_NOW"
)

// RiskFactor is one contributor to the composite risk score.
type RiskFactor struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Value    float64 `json:"value"`
}

// RiskRecommendation bundles the composite score, its contributing factors,
// and the action band.
type RiskRecommendation struct {
	Score         int          `json:"riskScore"` // 0-100
	Action        RiskAction   `json:"action"`
	Level         string       `json:"level"` // low, moderate, high, critical
	Message       string       `json:"message"`
	ShouldSuspend bool         `json:"shouldSuspend"`
	Factors       []RiskFactor `json:"factors"`
}

// RecommendSuspension computes a weighted 0-100 risk score from weather and
// community-report pressure. Weather contributes up to 50 points (rainfall
// 20, wind 15, heat index 15), reports up to 30 (critical ×5 capped at 20,
// volume ×2 capped at 10), and the PAGASA warning band up to 20. The score
// is advisory only; auto-suspension is decided by [EvaluateAutoSuspend].
func RecommendSuspension(w WeatherSnapshot, reportCount, criticalReports int) RiskRecommendation {
	score := 0
	var factors []RiskFactor

	switch {
	case w.Rainfall >= RedThreshold:
		score += 20
		factors = append(factors, RiskFactor{Type: "rainfall", Severity: "critical", Value: w.Rainfall})
	case w.Rainfall >= OrangeThreshold:
		score += 15
		factors = append(factors, RiskFactor{Type: "rainfall", Severity: "high", Value: w.Rainfall})
	case w.Rainfall >= YellowThreshold:
		score += 10
		factors = append(factors, RiskFactor{Type: "rainfall", Severity: "moderate", Value: w.Rainfall})
	}

	switch {
	case w.WindSpeed >= 55:
		score += 15
		factors = append(factors, RiskFactor{Type: "wind", Severity: "critical", Value: w.WindSpeed})
	case w.WindSpeed >= 39:
		score += 10
		factors = append(factors, RiskFactor{Type: "wind", Severity: "high", Value: w.WindSpeed})
	}

	heat := w.HeatIndex
	if heat == 0 {
		heat = w.Temperature
	}
	switch {
	case heat >= 41:
		score += 15
		factors = append(factors, RiskFactor{Type: "heat", Severity: "critical", Value: heat})
	case heat >= 33:
		score += 10
		factors = append(factors, RiskFactor{Type: "heat", Severity: "high", Value: heat})
	}

	if criticalReports > 0 {
		pts := min(20, criticalReports*5)
		score += pts
		factors = append(factors, RiskFactor{Type: "criticalReports", Severity: "high", Value: float64(criticalReports)})
	}
	if reportCount > 0 {
		pts := min(10, reportCount*2)
		score += pts
		factors = append(factors, RiskFactor{Type: "reports", Severity: "moderate", Value: float64(reportCount)})
	}

	if warning, ok := RainfallWarningFor(w.Rainfall); ok {
		switch warning {
		case WarningRed:
			score += 20
			factors = append(factors, RiskFactor{Type: "pagasaWarning", Severity: "critical", Value: float64(RedThreshold)})
		case WarningOrange:
			score += 15
			factors = append(factors, RiskFactor{Type: "pagasaWarning", Severity: "high", Value: float64(OrangeThreshold)})
		case WarningYellow:
			score += 10
			factors = append(factors, RiskFactor{Type: "pagasaWarning", Severity: "moderate", Value: float64(YellowThreshold)})
		}
	}

	if score > 100 {
		score = 100
	}

	rec := RiskRecommendation{Score: score, Factors: factors}
	switch {
	case score >= 75:
		rec.Action = ActionSuspendNow
		rec.Level = "critical"
		rec.Message = "Immediate suspension recommended based on current conditions."
		rec.ShouldSuspend = true
	case score >= 50:
		rec.Action = ActionConsiderSuspend
		rec.Level = "high"
		rec.Message = "Weather conditions warrant serious consideration for suspension."
	case score >= 25:
		rec.Action = ActionMonitorClosely
		rec.Level = "moderate"
		rec.Message = "Continue monitoring conditions. Suspension may be needed soon."
	default:
		rec.Action = ActionSafe
		rec.Level = "low"
		rec.Message = "Current conditions do not warrant suspension at this time."
	}
	return rec
}
