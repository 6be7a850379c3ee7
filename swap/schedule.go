package swap

import (
	"fmt"
	"time"

	"github.com/meenmo/cubecal/calendar"
	"github.com/meenmo/cubecal/utils"
)

// TimeDayCount is the basis of the model time axis: every schedule time is an
// ACT/365F year fraction from the schedule's reference date.
const TimeDayCount = utils.Act365F

// Schedule is a generated leg schedule anchored at a reference date.
type Schedule struct {
	reference time.Time
	frequency Frequency
	dayCount  DayCount
	periods   []Period
}

// Generate builds the schedule running from start to end.
//
// start must not precede reference. Regular periods roll forward from start
// (or backward from end for ScheduleBackward); a short stub absorbs the rest.
func (p Prototype) Generate(reference, start, end time.Time) (*Schedule, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}
	if start.Before(reference) {
		return nil, fmt.Errorf("Generate: start %s before reference %s: %w", start.Format("2006-01-02"), reference.Format("2006-01-02"), ErrInvalidDates)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("Generate: end %s not after start %s: %w", end.Format("2006-01-02"), start.Format("2006-01-02"), ErrInvalidDates)
	}

	var unadjusted []time.Time
	if p.Direction == ScheduleBackward {
		unadjusted = p.rollBackward(start, end)
	} else {
		unadjusted = p.rollForward(start, end)
	}

	periods := make([]Period, 0, len(unadjusted)-1)
	for i := 0; i < len(unadjusted)-1; i++ {
		accrualStart := p.adjust(unadjusted[i])
		accrualEnd := p.adjust(unadjusted[i+1])
		periods = append(periods, Period{
			Start:   accrualStart,
			End:     accrualEnd,
			Fixing:  calendar.AddBusinessDays(p.Calendar, accrualStart, -p.FixingLagDays),
			Payment: calendar.AddBusinessDays(p.Calendar, accrualEnd, p.PayDelayDays),
		})
	}

	return &Schedule{reference: reference, frequency: p.Frequency, dayCount: p.DayCount, periods: periods}, nil
}

func (p Prototype) next(d time.Time, months int) time.Time {
	if p.Roll == BackwardEOM {
		return utils.AddMonth(d, months)
	}
	return d.AddDate(0, months, 0)
}

// rollForward always rolls from the unadjusted start to avoid drift from repeated adjustment.
func (p Prototype) rollForward(start, end time.Time) []time.Time {
	months := int(p.Frequency)
	dates := []time.Time{start}
	for i := 1; ; i++ {
		d := p.next(start, i*months)
		// dates within a week of the end collapse into the final period
		if !d.Before(end.AddDate(0, 0, -7)) {
			break
		}
		dates = append(dates, d)
	}
	return append(dates, end)
}

func (p Prototype) rollBackward(start, end time.Time) []time.Time {
	months := int(p.Frequency)
	var dates []time.Time
	for i := 1; ; i++ {
		d := p.next(end, -i*months)
		if !d.After(start.AddDate(0, 0, 7)) {
			break
		}
		dates = append([]time.Time{d}, dates...)
	}
	dates = append([]time.Time{start}, dates...)
	return append(dates, end)
}

func (p Prototype) adjust(d time.Time) time.Time {
	switch p.Adjustment {
	case ModifiedFollowing:
		return calendar.Adjust(p.Calendar, d)
	case Following:
		return calendar.AdjustFollowing(p.Calendar, d)
	default:
		return d
	}
}

// ReferenceDate returns the date the schedule's times are measured from.
func (s *Schedule) ReferenceDate() time.Time {
	return s.reference
}

// Frequency returns the regular period length of the generating prototype.
func (s *Schedule) Frequency() Frequency {
	return s.frequency
}

// NumberOfPeriods returns the period count.
func (s *Schedule) NumberOfPeriods() int {
	return len(s.periods)
}

// Period returns the i-th period.
func (s *Schedule) Period(i int) Period {
	return s.periods[i]
}

// Start returns the adjusted start of the first period.
func (s *Schedule) Start() time.Time {
	return s.periods[0].Start
}

// End returns the adjusted end of the last period.
func (s *Schedule) End() time.Time {
	return s.periods[len(s.periods)-1].End
}

// Time converts a date to the model time axis of this schedule.
func (s *Schedule) Time(d time.Time) float64 {
	return utils.YearFraction(s.reference, d, TimeDayCount)
}

// FixingTime returns the time of the i-th fixing.
func (s *Schedule) FixingTime(i int) float64 {
	return s.Time(s.periods[i].Fixing)
}

// PaymentTime returns the time of the i-th payment.
func (s *Schedule) PaymentTime(i int) float64 {
	return s.Time(s.periods[i].Payment)
}

// PeriodStartTime returns the time of the i-th accrual start.
func (s *Schedule) PeriodStartTime(i int) float64 {
	return s.Time(s.periods[i].Start)
}

// PeriodEndTime returns the time of the i-th accrual end.
func (s *Schedule) PeriodEndTime(i int) float64 {
	return s.Time(s.periods[i].End)
}

// PeriodLength returns the accrual fraction of the i-th period under the leg day count.
func (s *Schedule) PeriodLength(i int) float64 {
	return utils.YearFraction(s.periods[i].Start, s.periods[i].End, string(s.dayCount))
}
