package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendSuspension(t *testing.T) {
	tests := []struct {
		name            string
		weather         WeatherSnapshot
		reportCount     int
		criticalReports int

		wantScore   int
		wantAction  RiskAction
		wantLevel   string
		wantSuspend bool
	}{
		{
			name:       "calm conditions",
			weather:    WeatherSnapshot{Rainfall: 2, WindSpeed: 10, Temperature: 28},
			wantScore:  0,
			wantAction: ActionSafe,
			wantLevel:  "low",
		},
		{
			name:            "severe typhoon with critical reports",
			weather:         WeatherSnapshot{Rainfall: 35, WindSpeed: 90, Temperature: 27},
			reportCount:     10,
			criticalReports: 5,
			wantScore:       85,
			wantAction:      ActionSuspendNow,
			wantLevel:       "critical",
			wantSuspend:     true,
		},
		{
			name:        "orange rainfall with some wind",
			weather:     WeatherSnapshot{Rainfall: 18, WindSpeed: 42},
			reportCount: 3,
			wantScore:   46,
			wantAction:  ActionMonitorClosely,
			wantLevel:   "moderate",
		},
		{
			name:            "orange rainfall with strong wind and a critical report",
			weather:         WeatherSnapshot{Rainfall: 18, WindSpeed: 60},
			reportCount:     2,
			criticalReports: 1,
			wantScore:       54,
			wantAction:      ActionConsiderSuspend,
			wantLevel:       "high",
		},
		{
			name:       "extreme heat alone stays safe",
			weather:    WeatherSnapshot{HeatIndex: 43},
			wantScore:  15,
			wantAction: ActionSafe,
			wantLevel:  "low",
		},
		{
			name:            "everything maxed caps at 100",
			weather:         WeatherSnapshot{Rainfall: 50, WindSpeed: 120, HeatIndex: 42},
			reportCount:     20,
			criticalReports: 10,
			wantScore:       100,
			wantAction:      ActionSuspendNow,
			wantLevel:       "critical",
			wantSuspend:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RecommendSuspension(tt.weather, tt.reportCount, tt.criticalReports)

			assert.Equal(t, tt.wantScore, rec.Score)
			assert.Equal(t, tt.wantAction, rec.Action)
			assert.Equal(t, tt.wantLevel, rec.Level)
			assert.Equal(t, tt.wantSuspend, rec.ShouldSuspend)
			assert.NotEmpty(t, rec.Message)
		})
	}
}

func TestRecommendSuspension_HeatFallsBackToTemperature(t *testing.T) {
	withIndex := RecommendSuspension(WeatherSnapshot{HeatIndex: 43}, 0, 0)
	withTemp := RecommendSuspension(WeatherSnapshot{Temperature: 43}, 0, 0)

	assert.Equal(t, withIndex.Score, withTemp.Score)
	require.Len(t, withTemp.Factors, 1)
	assert.Equal(t, "heat", withTemp.Factors[0].Type)
	assert.Equal(t, 43.0, withTemp.Factors[0].Value)
}

func TestRecommendSuspension_ReportCaps(t *testing.T) {
	base := WeatherSnapshot{}

	atCap := RecommendSuspension(base, 0, 4)
	overCap := RecommendSuspension(base, 0, 12)
	assert.Equal(t, 20, atCap.Score)
	assert.Equal(t, 20, overCap.Score)

	vol := RecommendSuspension(base, 5, 0)
	volCapped := RecommendSuspension(base, 50, 0)
	assert.Equal(t, 10, vol.Score)
	assert.Equal(t, 10, volCapped.Score)
}
