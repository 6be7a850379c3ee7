package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/cubecal/annuity"
	"github.com/meenmo/cubecal/calibration"
	"github.com/meenmo/cubecal/config"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/utils"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cubecal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_Valid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cc, err := cfg.CalibrationConfig()
	require.NoError(t, err)
	assert.Equal(t, 250, cc.MaxIterations)
	assert.Positive(t, cc.Threads)
	assert.Equal(t, annuity.DefaultReplication(), cc.Replication)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
reference_date: "2024-06-14"
forward_curve: EUR6M
discount_curve: ESTR
curves:
  - name: ESTR
    rate: 0.025
  - name: EUR6M
    zeros: {"1Y": 0.027, "5Y": 0.028, "10Y": 0.029}
lattice:
  maturities: [12]
  tenors: [24, 60]
calibration:
  mapping_type: basic-piterbarg
  maturity_order: SHORTEST_FIRST
  replication:
    use_as_offset: false
    lower_bound: -0.05
    upper_bound: 0.2
    evaluation_points: 301
`)
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	ref, err := cfg.Reference()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-14", ref.Format("2006-01-02"))

	cc, err := cfg.CalibrationConfig()
	require.NoError(t, err)
	assert.Equal(t, annuity.BasicPiterbarg, cc.MappingType)
	assert.Equal(t, calibration.ShortestFirst, cc.MaturityOrder)
	assert.Equal(t, annuity.Replication{UseAsOffset: false, LowerBound: -0.05, UpperBound: 0.2, EvaluationPoints: 301}, cc.Replication)
	// untouched sections keep their defaults
	assert.Equal(t, config.Default().Static, cfg.Static)
	assert.Equal(t, []int{-50, 0, 50, 100}, cfg.Lattice.PayerMoneyness)

	m, err := cfg.Model()
	require.NoError(t, err)
	zc, err := m.Curve("EUR6M")
	require.NoError(t, err)
	assert.Less(t, zc.DiscountFactor(5), zc.DiscountFactor(1))

	p, err := cfg.LatticeParams(swaption.ReceiverPrice)
	require.NoError(t, err)
	assert.Len(t, p.Quotes, 3*1*2)
	assert.Equal(t, utils.UnitMonths, p.Unit)
	_, err = swaption.NewLattice(p)
	require.NoError(t, err)

	atm, err := cfg.LatticeParams(swaption.PayerNormalVolatility)
	require.NoError(t, err)
	assert.Len(t, atm.Quotes, 2)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.LoadFile(writeFile(t, "curves: [\n"))
	assert.Error(t, err)

	_, err = config.LoadFile(writeFile(t, "calendar: MARS\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = config.LoadFile(writeFile(t, "discount_curve: SOFR\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = config.LoadFile(writeFile(t, "unit: Q\n"))
	assert.ErrorIs(t, err, utils.ErrUnknownDateUnit)

	_, err = config.LoadFile(writeFile(t, "calibration:\n  mapping_type: cubic\n"))
	assert.ErrorIs(t, err, annuity.ErrUnknownMappingType)

	_, err = config.LoadFile(writeFile(t, "calibration:\n  bootstrap_method: GRID\n"))
	assert.ErrorIs(t, err, calibration.ErrInvalidConfig)

	_, err = config.LoadFile(writeFile(t, "lattice:\n  maturities: []\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)
}
