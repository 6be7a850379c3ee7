// Package annuity builds annuity mappings: functions α(S) approximating the
// ratio of the settlement discount factor to the physical annuity, conditional
// on the terminal swap rate S. Cash-settled swaptions are priced under the
// annuity measure as A0·E[α(S)·Ac(S)·payoff(S)].
package annuity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
)

var (
	// ErrUnknownMappingType is returned by the factory for unsupported types.
	ErrUnknownMappingType = errors.New("unknown annuity mapping type")
	// ErrInvalidReplication is returned for unusable replication settings.
	ErrInvalidReplication = errors.New("invalid replication settings")
	// ErrDegenerateMapping is returned when a mapping cannot be normalized to a finite value.
	ErrDegenerateMapping = errors.New("degenerate annuity mapping")
)

// Type selects the annuity mapping model.
type Type string

const (
	// SimplifiedLinear is linear in S and matches the 1/Στ limit at S=0.
	SimplifiedLinear Type = "SIMPLIFIED_LINEAR"
	// BasicPiterbarg is the flat-yield terminal swap rate mapping rescaled so
	// that its expectation matches today's ratio.
	BasicPiterbarg Type = "BASIC_PITERBARG"
)

// ParseType accepts the constant names in any case, with '-' or '_' separators.
func ParseType(s string) (Type, error) {
	switch Type(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")) {
	case SimplifiedLinear:
		return SimplifiedLinear, nil
	case BasicPiterbarg:
		return BasicPiterbarg, nil
	default:
		return "", fmt.Errorf("ParseType: %q: %w", s, ErrUnknownMappingType)
	}
}

// Mapping is α(S) with its first two derivatives.
type Mapping interface {
	Value(swapRate float64) float64
	FirstDerivative(swapRate float64) float64
	SecondDerivative(swapRate float64) float64
}

// Spec is everything a mapping is built from.
type Spec struct {
	Fix           *swap.Schedule
	Float         *swap.Schedule
	ForwardCurve  string
	DiscountCurve string
	Cube          string
	Replication   Replication
}

// Factory builds mappings. Implementations must be safe for concurrent use.
type Factory interface {
	Build(t Type, spec Spec, m *model.Model) (Mapping, error)
}

// DefaultFactory builds the mapping types of this package.
type DefaultFactory struct{}

func (DefaultFactory) Build(t Type, spec Spec, m *model.Model) (Mapping, error) {
	if err := spec.Replication.Validate(); err != nil {
		return nil, fmt.Errorf("Build %s: %w", t, err)
	}
	u, err := NewUnderlying(spec.Fix, spec.Float, spec.ForwardCurve, spec.DiscountCurve, spec.Cube, m)
	if err != nil {
		return nil, fmt.Errorf("Build %s: %w", t, err)
	}

	switch t {
	case SimplifiedLinear:
		return newSimplifiedLinear(u, spec.Fix), nil
	case BasicPiterbarg:
		mapping, err := newBasicPiterbarg(u, spec.Fix, spec.Replication)
		if err != nil {
			return nil, fmt.Errorf("Build %s: %w", t, err)
		}
		return mapping, nil
	default:
		return nil, fmt.Errorf("Build: %q: %w", t, ErrUnknownMappingType)
	}
}
