package domain

import "fmt"

// TriggerKind identifies which auto-suspend criterion fired.
type TriggerKind string

const (
	TriggerTCWSAny       TriggerKind = "TCWS_ANY"
	TriggerYellowWarning TriggerKind = "YELLOW_WARNING"
	TriggerOrangeWarning TriggerKind = "ORANGE_WARNING"
	TriggerRedWarning    TriggerKind = "RED_WARNING"
)

// Trigger is one satisfied auto-suspend criterion.
type Trigger struct {
	Kind        TriggerKind       `json:"criterion"`
	Value       float64           `json:"value"`
	Description string            `json:"description"`
	Levels      []SuspensionLevel `json:"levels"`
}

// AutoSuspendAssessment is the result of evaluating a weather snapshot
// against the DepEd auto-suspend matrix.
type AutoSuspendAssessment struct {
	ShouldAutoSuspend bool              `json:"shouldAutoSuspend"`
	Triggers          []Trigger         `json:"triggers"`
	AffectedLevels    []SuspensionLevel `json:"affectedLevels"`
}

// RainfallWarningFor maps rainfall intensity (mm/h) to a PAGASA warning band.
// Red is checked first so a lower band can never mask a higher one. Returns
// ("", false) below the Yellow threshold.
func RainfallWarningFor(rainfall float64) (RainfallWarning, bool) {
	switch {
	case rainfall >= RedThreshold:
		return WarningRed, true
	case rainfall >= OrangeThreshold:
		return WarningOrange, true
	case rainfall >= YellowThreshold:
		return WarningYellow, true
	default:
		return "", false
	}
}

// TCWSLevelFor maps a sustained wind speed (km/h) to the single TCWS signal
// whose band contains it. Returns (0, false) below 39 km/h.
func TCWSLevelFor(windSpeed float64) (int, bool) {
	for _, b := range tcwsBands {
		if windSpeed >= b.min && (b.max < 0 || windSpeed < b.max) {
			return b.signal, true
		}
	}
	return 0, false
}

// EvaluateAutoSuspend collects every satisfied DepEd auto-suspend trigger
// from a weather snapshot. An explicit TCWS reading takes precedence over
// the wind-speed-derived signal so only one TCWS trigger is ever reported.
// The function is total and deterministic: it never fails, whatever the
// snapshot contains.
func EvaluateAutoSuspend(w WeatherSnapshot) AutoSuspendAssessment {
	var triggers []Trigger

	if w.TCWS >= 1 {
		triggers = append(triggers, Trigger{
			Kind:        TriggerTCWSAny,
			Value:       float64(w.TCWS),
			Description: fmt.Sprintf("Tropical Cyclone Wind Signal #%d", w.TCWS),
			Levels:      tcwsMandatedLevels,
		})
	} else if signal, ok := TCWSLevelFor(w.WindSpeed); ok {
		triggers = append(triggers, Trigger{
			Kind:        TriggerTCWSAny,
			Value:       float64(signal),
			Description: fmt.Sprintf("Wind speed %.0f km/h indicates Signal No. %d", w.WindSpeed, signal),
			Levels:      tcwsMandatedLevels,
		})
	}

	if warning, ok := RainfallWarningFor(w.Rainfall); ok {
		triggers = append(triggers, Trigger{
			Kind:        warningTrigger(warning),
			Value:       w.Rainfall,
			Description: fmt.Sprintf("%s rainfall warning (%.1f mm/h)", warningLabel(warning), w.Rainfall),
			Levels:      mandatedLevels[warning],
		})
	}

	return AutoSuspendAssessment{
		ShouldAutoSuspend: len(triggers) > 0,
		Triggers:          triggers,
		AffectedLevels:    unionLevels(triggers),
	}
}

// unionLevels merges every trigger's mandated set, preserving the canonical
// level ordering and dropping duplicates.
func unionLevels(triggers []Trigger) []SuspensionLevel {
	if len(triggers) == 0 {
		return nil
	}
	seen := make(map[SuspensionLevel]bool)
	for _, t := range triggers {
		for _, l := range t.Levels {
			seen[l] = true
		}
	}
	out := make([]SuspensionLevel, 0, len(seen))
	for _, l := range suspensionLevelOrder {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

func warningTrigger(w RainfallWarning) TriggerKind {
	switch w {
	case WarningRed:
		return TriggerRedWarning
	case WarningOrange:
		return TriggerOrangeWarning
	default:
		return TriggerYellowWarning
	}
}

func warningLabel(w RainfallWarning) string {
	switch w {
	case WarningRed:
		return "Red"
	case WarningOrange:
		return "Orange"
	default:
		return "Yellow"
	}
}
