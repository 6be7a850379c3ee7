package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallConfig = `
reference_date: "2025-01-02"
lattice:
  payer_moneyness: [-50, 0, 50]
  receiver_moneyness: [0, 50]
  maturities: [12]
  tenors: [12, 24, 36]
log:
  level: error
`

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cubecal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallConfig), 0o600))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(append(args, "--config", path))
	require.NoError(t, cmd.Execute())
	return out.Bytes()
}

func TestStaticCommand(t *testing.T) {
	var out StaticOutput
	require.NoError(t, json.Unmarshal(run(t, "static"), &out))

	assert.Equal(t, 15, out.Targets)
	assert.InDelta(t, out.TrueValue, out.Value, 1e-6)
	assert.InDelta(t, out.TrueCorrelationDecay, out.CorrelationDecay, 1e-6)
}

func TestSABRCommand_BootstrapOnly(t *testing.T) {
	var out SABROutput
	require.NoError(t, json.Unmarshal(run(t, "sabr", "--bootstrap-only"), &out))

	assert.Equal(t, "bootstrap", out.Method)
	require.Len(t, out.Nodes, 3)
	for _, n := range out.Nodes {
		assert.Equal(t, 12, n.Maturity)
		assert.Positive(t, n.BaseVol)
		assert.Less(t, n.Rho*n.Rho, 1.0)
	}
}

func TestSABRCommand_ExclusiveFlags(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"sabr", "--joint", "--bootstrap-only"})
	assert.Error(t, cmd.Execute())
}
