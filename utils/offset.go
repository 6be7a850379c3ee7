package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownDateUnit is returned when an offset unit is not one of the DateUnit constants.
var ErrUnknownDateUnit = errors.New("unknown date unit")

// DateUnit is the unit in which lattice maturities and tenors are quoted.
type DateUnit string

const (
	UnitDays   DateUnit = "D"
	UnitWeeks  DateUnit = "W"
	UnitMonths DateUnit = "M"
	UnitYears  DateUnit = "Y"
)

// ParseDateUnit accepts the single-letter codes as well as "days", "months", etc.
func ParseDateUnit(s string) (DateUnit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D", "DAY", "DAYS":
		return UnitDays, nil
	case "W", "WEEK", "WEEKS":
		return UnitWeeks, nil
	case "M", "MONTH", "MONTHS":
		return UnitMonths, nil
	case "Y", "YEAR", "YEARS":
		return UnitYears, nil
	default:
		return "", fmt.Errorf("ParseDateUnit: %q: %w", s, ErrUnknownDateUnit)
	}
}

// Validate returns ErrUnknownDateUnit for anything but the DateUnit constants.
func (u DateUnit) Validate() error {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		return nil
	default:
		return fmt.Errorf("DateUnit %q: %w", string(u), ErrUnknownDateUnit)
	}
}

// AddOffset moves date by n units. Month and year offsets use EDATE semantics.
func AddOffset(date time.Time, n int, unit DateUnit) (time.Time, error) {
	switch unit {
	case UnitDays:
		return date.AddDate(0, 0, n), nil
	case UnitWeeks:
		return date.AddDate(0, 0, 7*n), nil
	case UnitMonths:
		return AddMonth(date, n), nil
	case UnitYears:
		return AddMonth(date, 12*n), nil
	default:
		return time.Time{}, fmt.Errorf("AddOffset: %q: %w", string(unit), ErrUnknownDateUnit)
	}
}
