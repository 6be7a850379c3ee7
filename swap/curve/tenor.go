package curve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTenor is returned by TenorToYears for unparseable tenors.
var ErrInvalidTenor = errors.New("invalid tenor")

// TenorToYears converts tenor strings like "1W", "3M", "10Y" to year fractions.
// A bare number is read as years.
func TenorToYears(tenor string) (float64, error) {
	tenor = strings.TrimSpace(strings.ToUpper(tenor))
	if tenor == "" {
		return 0, fmt.Errorf("TenorToYears: empty: %w", ErrInvalidTenor)
	}

	var scale float64
	switch tenor[len(tenor)-1] {
	case 'D':
		scale = 1.0 / 365.0
	case 'W':
		scale = 7.0 / 365.0
	case 'M':
		scale = 1.0 / 12.0
	case 'Y':
		scale = 1.0
	default:
		v, err := strconv.ParseFloat(tenor, 64)
		if err != nil {
			return 0, fmt.Errorf("TenorToYears: %q: %w", tenor, ErrInvalidTenor)
		}
		return v, nil
	}

	v, err := strconv.Atoi(tenor[:len(tenor)-1])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("TenorToYears: %q: %w", tenor, ErrInvalidTenor)
	}
	return float64(v) * scale, nil
}
