package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubmitInput() SubmitInput {
	return SubmitInput{
		City:            "Lipa City",
		RequestedBy:     Authority{Name: "Mayor Reyes", Role: "mayor"},
		RequestedLevels: []SuspensionLevel{LevelPreschool, LevelK12},
		Duration:        12,
		Reason:          "Flooding reported across several barangays",
		Weather:         WeatherSnapshot{Rainfall: 18, WindSpeed: 35},
		ReportCount:     6,
		CriticalReports: 2,
	}
}

func TestNewSuspensionRequest(t *testing.T) {
	freezeClock(t)

	t.Run("valid input yields a pending request", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())

		require.NoError(t, err)
		assert.Equal(t, RequestPending, req.Status)
		assert.Equal(t, testIssueTime, req.CreatedAt)
		assert.Nil(t, req.ReviewedBy)
		assert.Empty(t, req.LinkedSuspensionID)
	})

	t.Run("duration bounds", func(t *testing.T) {
		for _, d := range []float64{0, 1, 1.9, 48.1, 72} {
			in := testSubmitInput()
			in.Duration = d
			_, err := NewSuspensionRequest(in)
			require.Error(t, err, "duration %v", d)
			assert.True(t, IsValidation(err))
		}
		for _, d := range []float64{2, 12, 48} {
			in := testSubmitInput()
			in.Duration = d
			_, err := NewSuspensionRequest(in)
			assert.NoError(t, err, "duration %v", d)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := map[string]func(*SubmitInput){
			"empty city":        func(in *SubmitInput) { in.City = "" },
			"missing requester": func(in *SubmitInput) { in.RequestedBy = Authority{} },
			"no levels":         func(in *SubmitInput) { in.RequestedLevels = nil },
			"unknown level":     func(in *SubmitInput) { in.RequestedLevels = []SuspensionLevel{"nursery"} },
			"empty reason":      func(in *SubmitInput) { in.Reason = "" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				in := testSubmitInput()
				mutate(&in)
				_, err := NewSuspensionRequest(in)
				require.Error(t, err)
				assert.True(t, IsValidation(err))
			})
		}
	})
}

func TestSuspensionRequest_Approve(t *testing.T) {
	freezeClock(t)
	governor := Authority{Name: "Gov. Santos", Role: "governor"}

	t.Run("links the issued suspension", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		require.NoError(t, req.Approve(governor, "susp-123", "granted as requested"))
		assert.Equal(t, RequestApproved, req.Status)
		assert.Equal(t, "susp-123", req.LinkedSuspensionID)
		require.NotNil(t, req.ReviewedBy)
		assert.Equal(t, governor, *req.ReviewedBy)
		require.NotNil(t, req.ReviewedAt)
	})

	t.Run("requires a suspension id", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		err = req.Approve(governor, "", "granted")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, RequestPending, req.Status)
	})

	t.Run("only pending requests can be approved", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)
		require.NoError(t, req.Reject(governor, "conditions do not warrant it"))

		err = req.Approve(governor, "susp-123", "")
		require.Error(t, err)
		assert.True(t, IsInvalidTransition(err))
	})
}

func TestSuspensionRequest_Reject(t *testing.T) {
	freezeClock(t)
	governor := Authority{Name: "Gov. Santos", Role: "governor"}

	t.Run("requires a reason", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		err = req.Reject(governor, "")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("records reviewer and reason", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		require.NoError(t, req.Reject(governor, "forecast improving"))
		assert.Equal(t, RequestRejected, req.Status)
		assert.Equal(t, "forecast improving", req.GovernorNotes)
		require.NotNil(t, req.ReviewedBy)
	})
}

func TestSuspensionRequest_Cancel(t *testing.T) {
	freezeClock(t)

	t.Run("requester may cancel", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		require.NoError(t, req.Cancel("Mayor Reyes"))
		assert.Equal(t, RequestCancelled, req.Status)
	})

	t.Run("system may cancel", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		require.NoError(t, req.Cancel("system"))
	})

	t.Run("anyone else may not", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)

		err = req.Cancel("Gov. Santos")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, RequestPending, req.Status)
	})

	t.Run("terminal requests cannot be cancelled", func(t *testing.T) {
		req, err := NewSuspensionRequest(testSubmitInput())
		require.NoError(t, err)
		require.NoError(t, req.Cancel("system"))

		err = req.Cancel("system")
		require.Error(t, err)
		assert.True(t, IsInvalidTransition(err))
	})
}
