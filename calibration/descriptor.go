package calibration

import (
	"fmt"
	"strconv"
	"time"

	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/utils"
)

// Descriptor identifies the swaption behind one target. Moneyness is the
// decimal strike offset from the forward swap rate.
type Descriptor struct {
	Moneyness   float64
	Maturity    time.Time
	Termination time.Time
}

// NewDescriptor converts lattice coordinates into dates.
func NewDescriptor(moneynessBp int, node swaption.NodeKey, reference time.Time, unit utils.DateUnit) (Descriptor, error) {
	if node.Maturity < 0 || node.Tenor <= 0 {
		return Descriptor{}, fmt.Errorf("NewDescriptor: %+v: %w", node, ErrInvalidDescriptor)
	}
	maturity, err := utils.AddOffset(reference, node.Maturity, unit)
	if err != nil {
		return Descriptor{}, fmt.Errorf("NewDescriptor: %w", err)
	}
	termination, err := utils.AddOffset(maturity, node.Tenor, unit)
	if err != nil {
		return Descriptor{}, fmt.Errorf("NewDescriptor: %w", err)
	}
	return Descriptor{
		Moneyness:   float64(moneynessBp) / 1e4,
		Maturity:    maturity,
		Termination: termination,
	}, nil
}

// Key is the annuity-mapping cache key.
func (d Descriptor) Key() string {
	return d.Maturity.Format("2006-01-02") + "|" + d.Termination.Format("2006-01-02") + "|" +
		strconv.FormatFloat(d.Moneyness, 'g', -1, 64)
}
