// Package config loads calibration runs from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/calendar"
	"github.com/meenmo/cubecal/calibration"
	"github.com/meenmo/cubecal/logging"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swap"
	"github.com/meenmo/cubecal/swap/curve"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/utils"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the on-disk description of a calibration run.
type Config struct {
	ReferenceDate string        `yaml:"reference_date"`
	Calendar      string        `yaml:"calendar"`
	Unit          string        `yaml:"unit"`
	ForwardCurve  string        `yaml:"forward_curve"`
	DiscountCurve string        `yaml:"discount_curve"`
	Curves        []CurveConfig `yaml:"curves"`

	Lattice     LatticeConfig     `yaml:"lattice"`
	Static      StaticConfig      `yaml:"static"`
	SABR        SABRConfig        `yaml:"sabr"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Log         logging.LogConfig `yaml:"log"`
}

// CurveConfig is a flat curve, or a zero curve when Zeros is set. Zero rates
// are continuously compounded and keyed by tenor ("6M", "2Y").
type CurveConfig struct {
	Name  string             `yaml:"name"`
	Rate  float64            `yaml:"rate"`
	Zeros map[string]float64 `yaml:"zeros"`
}

// LatticeConfig lists the quoted keys. Moneyness is in basis points,
// maturities and tenors in Unit.
type LatticeConfig struct {
	PayerMoneyness    []int `yaml:"payer_moneyness"`
	ReceiverMoneyness []int `yaml:"receiver_moneyness"`
	Maturities        []int `yaml:"maturities"`
	Tenors            []int `yaml:"tenors"`
}

// StaticConfig is the true static cube and the starting point of its fit.
type StaticConfig struct {
	Value                   float64 `yaml:"value"`
	CorrelationDecay        float64 `yaml:"correlation_decay"`
	InitialValue            float64 `yaml:"initial_value"`
	InitialCorrelationDecay float64 `yaml:"initial_correlation_decay"`
}

// SABRConfig is the true SABR smile, applied to every grid node.
type SABRConfig struct {
	Rho     float64 `yaml:"rho"`
	BaseVol float64 `yaml:"base_vol"`
	VolVol  float64 `yaml:"vol_vol"`
}

// CalibrationConfig mirrors calibration.Config.
type CalibrationConfig struct {
	MaxIterations       int                 `yaml:"max_iterations"`
	Threads             int                 `yaml:"threads"`
	MappingType         string              `yaml:"mapping_type"`
	MaturityOrder       string              `yaml:"maturity_order"`
	BootstrapMethod     string              `yaml:"bootstrap_method"`
	BootstrapIterations int                 `yaml:"bootstrap_iterations"`
	SABRBeta            float64             `yaml:"sabr_beta"`
	SABRDisplacement    float64             `yaml:"sabr_displacement"`
	Replication         annuity.Replication `yaml:"replication"`
}

// Default returns a one-curve EUR-style setup on a 1Y-5Y grid.
func Default() Config {
	defaults := calibration.DefaultConfig()
	return Config{
		ReferenceDate: "2025-01-02",
		Calendar:      string(calendar.TARGET),
		Unit:          string(utils.UnitMonths),
		ForwardCurve:  "ESTR",
		DiscountCurve: "ESTR",
		Curves:        []CurveConfig{{Name: "ESTR", Rate: 0.02}},
		Lattice: LatticeConfig{
			PayerMoneyness:    []int{-50, 0, 50, 100},
			ReceiverMoneyness: []int{0, 50, 100},
			Maturities:        []int{12, 24, 60},
			Tenors:            []int{12, 24, 60},
		},
		Static: StaticConfig{
			Value:                   0.008,
			CorrelationDecay:        0.01,
			InitialValue:            0.01,
			InitialCorrelationDecay: 0.02,
		},
		SABR: SABRConfig{
			Rho:     -0.2,
			BaseVol: 0.015,
			VolVol:  0.3,
		},
		Calibration: CalibrationConfig{
			MaxIterations:       defaults.MaxIterations,
			Threads:             0,
			MappingType:         string(defaults.MappingType),
			MaturityOrder:       string(defaults.MaturityOrder),
			BootstrapMethod:     string(defaults.BootstrapMethod),
			BootstrapIterations: defaults.BootstrapIterations,
			SABRBeta:            defaults.SABRBeta,
			SABRDisplacement:    defaults.SABRDisplacement,
			Replication:         defaults.Replication,
		},
		Log: logging.LogConfig{Level: "info", Format: "console"},
	}
}

// LoadFile reads path over the defaults and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("LoadFile: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("LoadFile %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("LoadFile %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.Reference(); err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	if !calendar.IsKnown(calendar.CalendarID(c.Calendar)) {
		return fmt.Errorf("Validate: calendar %q: %w", c.Calendar, ErrInvalid)
	}
	if err := utils.DateUnit(c.Unit).Validate(); err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	names := make(map[string]bool, len(c.Curves))
	for _, cc := range c.Curves {
		if cc.Name == "" {
			return fmt.Errorf("Validate: unnamed curve: %w", ErrInvalid)
		}
		names[cc.Name] = true
	}
	for _, name := range []string{c.ForwardCurve, c.DiscountCurve} {
		if !names[name] {
			return fmt.Errorf("Validate: curve %q not configured: %w", name, ErrInvalid)
		}
	}
	if len(c.Lattice.Maturities) == 0 || len(c.Lattice.Tenors) == 0 || len(c.Lattice.PayerMoneyness)+len(c.Lattice.ReceiverMoneyness) == 0 {
		return fmt.Errorf("Validate: empty lattice: %w", ErrInvalid)
	}
	if _, err := c.CalibrationConfig(); err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	return nil
}

func (c Config) Reference() (time.Time, error) {
	return utils.ParseDate(c.ReferenceDate)
}

// CalibrationConfig converts the calibration section. Zero threads means GOMAXPROCS.
func (c Config) CalibrationConfig() (calibration.Config, error) {
	cc := c.Calibration
	mapping, err := annuity.ParseType(cc.MappingType)
	if err != nil {
		return calibration.Config{}, err
	}
	threads := cc.Threads
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}
	out := calibration.Config{
		MaxIterations:       cc.MaxIterations,
		Threads:             threads,
		Replication:         cc.Replication,
		MappingType:         mapping,
		MaturityOrder:       calibration.MaturityOrder(cc.MaturityOrder),
		BootstrapMethod:     calibration.BootstrapMethod(cc.BootstrapMethod),
		BootstrapIterations: cc.BootstrapIterations,
		SABRBeta:            cc.SABRBeta,
		SABRDisplacement:    cc.SABRDisplacement,
	}
	if err := out.Validate(); err != nil {
		return calibration.Config{}, err
	}
	return out, nil
}

// Model builds the configured curves.
func (c Config) Model() (*model.Model, error) {
	ref, err := c.Reference()
	if err != nil {
		return nil, fmt.Errorf("Model: %w", err)
	}
	curves := make([]curve.Curve, 0, len(c.Curves))
	for _, cc := range c.Curves {
		if len(cc.Zeros) == 0 {
			curves = append(curves, curve.NewFlat(cc.Name, cc.Rate))
			continue
		}
		zc, err := curve.NewZeroCurve(cc.Name, cc.Zeros)
		if err != nil {
			return nil, fmt.Errorf("Model: %w", err)
		}
		curves = append(curves, zc)
	}
	return model.New(ref, curves...), nil
}

// LatticeParams returns an unpriced lattice of the configured keys. Price
// conventions take their side's moneyness, PayerNormalVolatility the ATM column.
func (c Config) LatticeParams(conv swaption.QuotingConvention) (swaption.LatticeParams, error) {
	ref, err := c.Reference()
	if err != nil {
		return swaption.LatticeParams{}, fmt.Errorf("LatticeParams: %w", err)
	}
	var moneyness []int
	switch conv {
	case swaption.PayerPrice:
		moneyness = c.Lattice.PayerMoneyness
	case swaption.ReceiverPrice:
		moneyness = c.Lattice.ReceiverMoneyness
	default:
		moneyness = []int{0}
	}
	quotes := make(map[swaption.Key]float64)
	for _, m := range moneyness {
		for _, mat := range c.Lattice.Maturities {
			for _, ten := range c.Lattice.Tenors {
				quotes[swaption.Key{Moneyness: m, Maturity: mat, Tenor: ten}] = 0
			}
		}
	}
	cal := calendar.CalendarID(c.Calendar)
	return swaption.LatticeParams{
		ReferenceDate: ref,
		Convention:    conv,
		Unit:          utils.DateUnit(c.Unit),
		Fix:           swap.AnnualFixed(cal),
		Float:         swap.SemiAnnualFloat(cal),
		ForwardCurve:  c.ForwardCurve,
		DiscountCurve: c.DiscountCurve,
		Quotes:        quotes,
	}, nil
}
