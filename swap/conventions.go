package swap

import (
	"fmt"

	"github.com/meenmo/cubecal/calendar"
	"github.com/meenmo/cubecal/utils"
)

// Frequency enumerates payment frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
)

// PeriodsPerYear returns the number of regular periods in a year.
func (f Frequency) PeriodsPerYear() int {
	return 12 / int(f)
}

// DayCount enum.
type DayCount string

const (
	Act360  DayCount = utils.Act360
	Act365F DayCount = utils.Act365F
	Dc30360 DayCount = utils.Dc30360
	Dc30E   DayCount = utils.Dc30E
)

// BusinessDayAdjustment roll convention.
type BusinessDayAdjustment string

const (
	ModifiedFollowing BusinessDayAdjustment = "MODIFIED_FOLLOWING"
	Following         BusinessDayAdjustment = "FOLLOWING"
	Unadjusted        BusinessDayAdjustment = "UNADJUSTED"
)

// RollConvention for month-end handling.
type RollConvention string

const (
	RollNone    RollConvention = ""
	BackwardEOM RollConvention = "BACKWARD_EOM"
)

// ScheduleDirection selects whether periods are rolled from the start or from the end date.
type ScheduleDirection string

const (
	ScheduleForward  ScheduleDirection = "FORWARD"
	ScheduleBackward ScheduleDirection = "BACKWARD"
)

// Prototype captures the conventions of one swap leg. Generate turns it into a
// concrete Schedule for a given start and end date.
type Prototype struct {
	Frequency     Frequency
	DayCount      DayCount
	Adjustment    BusinessDayAdjustment
	Calendar      calendar.CalendarID
	Roll          RollConvention
	Direction     ScheduleDirection
	FixingLagDays int
	PayDelayDays  int
}

// Validate rejects conventions Generate has no rule for.
func (p Prototype) Validate() error {
	switch p.Frequency {
	case FreqAnnual, FreqSemi, FreqQuarterly, FreqMonthly:
	default:
		return fmt.Errorf("Prototype: frequency %d: %w", p.Frequency, ErrUnknownConvention)
	}
	if !utils.IsKnownDayCount(string(p.DayCount)) {
		return fmt.Errorf("Prototype: day count %q: %w", p.DayCount, ErrUnknownConvention)
	}
	switch p.Adjustment {
	case ModifiedFollowing, Following, Unadjusted:
	default:
		return fmt.Errorf("Prototype: adjustment %q: %w", p.Adjustment, ErrUnknownConvention)
	}
	switch p.Roll {
	case RollNone, BackwardEOM:
	default:
		return fmt.Errorf("Prototype: roll %q: %w", p.Roll, ErrUnknownConvention)
	}
	switch p.Direction {
	case ScheduleForward, ScheduleBackward, "":
	default:
		return fmt.Errorf("Prototype: direction %q: %w", p.Direction, ErrUnknownConvention)
	}
	if !calendar.IsKnown(p.Calendar) {
		return fmt.Errorf("Prototype: calendar %q: %w", p.Calendar, ErrUnknownConvention)
	}
	if p.FixingLagDays < 0 || p.PayDelayDays < 0 {
		return fmt.Errorf("Prototype: negative lag: %w", ErrUnknownConvention)
	}
	return nil
}

// AnnualFixed is a plain annual 30/360 fixed leg.
func AnnualFixed(cal calendar.CalendarID) Prototype {
	return Prototype{
		Frequency:  FreqAnnual,
		DayCount:   Dc30360,
		Adjustment: ModifiedFollowing,
		Calendar:   cal,
		Roll:       BackwardEOM,
		Direction:  ScheduleForward,
	}
}

// SemiAnnualFloat is a 6M ACT/360 floating leg.
func SemiAnnualFloat(cal calendar.CalendarID) Prototype {
	return Prototype{
		Frequency:  FreqSemi,
		DayCount:   Act360,
		Adjustment: ModifiedFollowing,
		Calendar:   cal,
		Roll:       BackwardEOM,
		Direction:  ScheduleForward,
	}
}
