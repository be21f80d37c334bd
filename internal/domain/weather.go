package domain

// WeatherSnapshot holds already-fetched weather metrics for one city.
// It is ephemeral, supplied per evaluation by the caller; the engine never
// fetches network data itself. Missing numeric readings default to zero so
// evaluation stays total.
type WeatherSnapshot struct {
	Rainfall    float64 `json:"rainfall"`  // mm/hour
	WindSpeed   float64 `json:"windSpeed"` // km/h
	TCWS        int     `json:"tcws,omitempty"`
	Temperature float64 `json:"temperature,omitempty"` // Celsius
	HeatIndex   float64 `json:"heatIndex,omitempty"`   // Celsius
	Humidity    float64 `json:"humidity,omitempty"`    // percent
	Conditions  string  `json:"conditions,omitempty"`
}

// SuspensionLevel enumerates what can be suspended.
type SuspensionLevel string

const (
	LevelPreschool  SuspensionLevel = "preschool"
	LevelK12        SuspensionLevel = "k12"
	LevelCollege    SuspensionLevel = "college"
	LevelWork       SuspensionLevel = "work"
	LevelActivities SuspensionLevel = "activities"
	LevelAll        SuspensionLevel = "all"
)

// suspensionLevelOrder fixes the canonical ordering of level sets.
var suspensionLevelOrder = []SuspensionLevel{
	LevelPreschool, LevelK12, LevelCollege, LevelWork, LevelActivities, LevelAll,
}

// ValidSuspensionLevel reports whether l is a known level.
func ValidSuspensionLevel(l SuspensionLevel) bool {
	for _, v := range suspensionLevelOrder {
		if v == l {
			return true
		}
	}
	return false
}

// RainfallWarning is a PAGASA rainfall advisory band.
type RainfallWarning string

const (
	WarningYellow RainfallWarning = "yellow"
	WarningOrange RainfallWarning = "orange"
	WarningRed    RainfallWarning = "red"
)

// PAGASA rainfall thresholds in mm/hour.
const (
	YellowThreshold = 7.5
	OrangeThreshold = 15.0
	RedThreshold    = 30.0
)

// tcwsBand is one row of the TCWS wind-speed table.
type tcwsBand struct {
	signal int
	min    float64 // km/h, inclusive
	max    float64 // km/h, exclusive; <0 means unbounded
}

// tcwsBands is the five-level TCWS table. Half-open intervals so every wind
// speed ≥ 39 km/h resolves to exactly one signal.
var tcwsBands = []tcwsBand{
	{signal: 1, min: 39, max: 62},
	{signal: 2, min: 62, max: 89},
	{signal: 3, min: 89, max: 118},
	{signal: 4, min: 118, max: 185},
	{signal: 5, min: 185, max: -1},
}

// mandatedLevels is the DepEd Order 022 auto-suspend matrix: which education
// levels each warning band mandates.
var mandatedLevels = map[RainfallWarning][]SuspensionLevel{
	WarningYellow: {LevelPreschool, LevelK12},
	WarningOrange: {LevelAll},
	WarningRed:    {LevelAll},
}

// tcwsMandatedLevels applies to any TCWS signal.
var tcwsMandatedLevels = []SuspensionLevel{LevelAll}
