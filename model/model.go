// Package model is the read-only market view the pricers run against: named
// curves and volatility cubes on a common reference date.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swap/curve"
	"github.com/meenmo/cubecal/utils"
	"github.com/meenmo/cubecal/volcube"
)

var (
	// ErrCurveNotFound is returned when a curve name is not registered.
	ErrCurveNotFound = errors.New("curve not found")
	// ErrCubeNotFound is returned when a cube name is not registered.
	ErrCubeNotFound = errors.New("volatility cube not found")
)

// Model is immutable. AddVolatilityCube returns an augmented copy and leaves
// the receiver untouched, so a Model can be shared between goroutines.
type Model struct {
	reference time.Time
	curves    map[string]curve.Curve
	cubes     map[string]volcube.Cube
}

// New builds a model from curves keyed by their names.
func New(reference time.Time, curves ...curve.Curve) *Model {
	m := &Model{
		reference: reference,
		curves:    make(map[string]curve.Curve, len(curves)),
		cubes:     make(map[string]volcube.Cube),
	}
	for _, c := range curves {
		m.curves[c.Name()] = c
	}
	return m
}

// ReferenceDate returns the date model times are measured from.
func (m *Model) ReferenceDate() time.Time {
	return m.reference
}

// Time converts a date to ACT/365F years from the reference date.
func (m *Model) Time(d time.Time) float64 {
	return utils.YearFraction(m.reference, d, swap.TimeDayCount)
}

// Curve looks up a curve by name.
func (m *Model) Curve(name string) (curve.Curve, error) {
	c, ok := m.curves[name]
	if !ok {
		return nil, fmt.Errorf("Model: %q: %w", name, ErrCurveNotFound)
	}
	return c, nil
}

// Cube looks up a volatility cube by name.
func (m *Model) Cube(name string) (volcube.Cube, error) {
	c, ok := m.cubes[name]
	if !ok {
		return nil, fmt.Errorf("Model: %q: %w", name, ErrCubeNotFound)
	}
	return c, nil
}

// AddVolatilityCube returns a copy of m with cube registered under its name,
// replacing any cube of the same name in the copy only.
func (m *Model) AddVolatilityCube(cube volcube.Cube) *Model {
	cubes := make(map[string]volcube.Cube, len(m.cubes)+1)
	for k, v := range m.cubes {
		cubes[k] = v
	}
	cubes[cube.Name()] = cube
	return &Model{reference: m.reference, curves: m.curves, cubes: cubes}
}
