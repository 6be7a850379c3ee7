package swap

import (
	"errors"
	"time"
)

var (
	// ErrUnknownConvention is returned when a prototype carries a convention Generate cannot apply.
	ErrUnknownConvention = errors.New("unknown schedule convention")
	// ErrInvalidDates is returned for schedules ending before they start or starting before the reference date.
	ErrInvalidDates = errors.New("invalid schedule dates")
	// ErrNonFiniteRate is returned when a swap rate or annuity evaluates to NaN or Inf.
	ErrNonFiniteRate = errors.New("non-finite swap rate")
)

// Period is a cashflow period for a single leg.
//
// Dates are business-day adjusted per the prototype's convention.
type Period struct {
	Start   time.Time
	End     time.Time
	Fixing  time.Time
	Payment time.Time
}
