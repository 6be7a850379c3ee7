// Package calibration fits volatility cubes to cash-settled swaption premiums.
//
// A Calibrator runs one nonlinear least-squares fit of a Strategy's parameter
// vector. SliceCalibration splits a SABR cube fit into independent per-maturity
// fits seeded by BootstrapCalibration.
package calibration

import "errors"

var (
	// ErrQuotingConvention is returned when the payer or receiver lattice has the wrong convention.
	ErrQuotingConvention = errors.New("wrong quoting convention")
	// ErrIncompatibleLattices is returned when lattices disagree on dates, legs or curves.
	ErrIncompatibleLattices = errors.New("incompatible lattices")
	// ErrInvalidDescriptor is returned for swaptions starting before the reference date.
	ErrInvalidDescriptor = errors.New("invalid swaption descriptor")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid calibration config")
	// ErrParameterCount is returned when a parameter vector has the wrong length.
	ErrParameterCount = errors.New("wrong parameter count")
	// ErrMissingATM is returned when the bootstrap lacks a physical ATM volatility for a quoted node.
	ErrMissingATM = errors.New("missing physical ATM volatility")
	// ErrNoTargets is returned when a calibration has nothing to fit.
	ErrNoTargets = errors.New("no calibration targets")
)
