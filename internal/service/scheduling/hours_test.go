package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, time.March, 10, hour, minute, second, 0, time.UTC)
}

func TestValidateBusinessHours(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr string
	}{
		{
			name:  "opening slot",
			start: at(7, 0, 0),
			end:   at(8, 0, 0),
		},
		{
			name:  "closing slot ends exactly at 19:00",
			start: at(18, 0, 0),
			end:   at(19, 0, 0),
		},
		{
			name:  "midday slot",
			start: at(12, 30, 0),
			end:   at(13, 15, 0),
		},
		{
			name:    "starts one minute before opening",
			start:   at(6, 59, 0),
			end:     at(8, 0, 0),
			wantErr: "start time must be at or after 7:00",
		},
		{
			name:    "starts at midnight",
			start:   at(0, 0, 0),
			end:     at(8, 0, 0),
			wantErr: "start time must be at or after 7:00",
		},
		{
			name:    "ends one second past closing",
			start:   at(18, 0, 0),
			end:     at(19, 0, 1),
			wantErr: "end time must be at or before 19:00",
		},
		{
			name:    "ends at 19:30",
			start:   at(18, 0, 0),
			end:     at(19, 30, 0),
			wantErr: "end time must be at or before 19:00",
		},
		{
			name:    "evening slot entirely after closing",
			start:   at(20, 0, 0),
			end:     at(21, 0, 0),
			wantErr: "end time must be at or before 19:00",
		},
		{
			name:    "zero duration",
			start:   at(10, 0, 0),
			end:     at(10, 0, 0),
			wantErr: "start time must be before end time",
		},
		{
			name:    "inverted interval",
			start:   at(11, 0, 0),
			end:     at(10, 0, 0),
			wantErr: "start time must be before end time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBusinessHours(tt.start, tt.end)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrBusinessHours))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidateBusinessHoursRuleOrder(t *testing.T) {
	// An interval that violates every rule reports the start violation
	// first.
	err := ValidateBusinessHours(at(6, 0, 0), at(5, 0, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start time must be at or after 7:00")

	// Inside the window but inverted: only the ordering rule is left.
	err = ValidateBusinessHours(at(11, 0, 0), at(10, 0, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start time must be before end time")

	// Zero duration is rejected by the ordering rule.
	err = ValidateBusinessHours(at(10, 0, 0), at(10, 0, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start time must be before end time")
}

func TestValidateBusinessHoursBoundaryMessages(t *testing.T) {
	err := ValidateBusinessHours(at(6, 59, 59), at(9, 0, 0))
	require.Error(t, err)
	assert.Equal(t, "start time must be at or after 7:00", err.Error())

	err = ValidateBusinessHours(at(18, 30, 0), at(19, 0, 1))
	require.Error(t, err)
	assert.Equal(t, "end time must be at or before 19:00", err.Error())
}
