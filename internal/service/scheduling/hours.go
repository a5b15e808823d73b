package scheduling

import (
	"fmt"
	"time"

	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

// Daily operating window, 24-hour local wall clock. Appointments must start
// at or after BusinessStartHour and end at or before BusinessEndHour; an end
// of exactly 19:00 is the latest permitted instant.
const (
	BusinessStartHour = 7
	BusinessEndHour   = 19
)

// ValidateBusinessHours checks a candidate interval against the operating
// window and basic sanity. Rules are evaluated in a fixed order and the
// first failure is returned: start before opening, end after closing,
// then non-positive duration.
func ValidateBusinessHours(start, end time.Time) error {
	if start.Hour() < BusinessStartHour {
		return apperrors.NewBusinessHours(fmt.Sprintf("start time must be at or after %d:00", BusinessStartHour))
	}

	if end.Hour() > BusinessEndHour || (end.Hour() == BusinessEndHour && !isTopOfHour(end)) {
		return apperrors.NewBusinessHours(fmt.Sprintf("end time must be at or before %d:00", BusinessEndHour))
	}

	if !start.Before(end) {
		return apperrors.NewBusinessHours("start time must be before end time")
	}

	return nil
}

// isTopOfHour reports whether t is exactly hh:00:00. 19:00:00 is a valid
// end instant; anything past it, down to the nanosecond, is not.
func isTopOfHour(t time.Time) bool {
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
