package booking

import (
	"errors"
	"time"

	"staybook/internal/domain/shared/daterange"
)

var ErrCheckInInPast = errors.New("booking: check-in date is in the past")

// ValidateStayDates rejects stays that start before today.
func ValidateStayDates(dr daterange.DateRange, now time.Time) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	if daterange.DayOf(dr.CheckIn).Before(daterange.DayOf(now)) {
		return ErrCheckInInPast
	}
	return nil
}
