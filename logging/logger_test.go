package logging_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meenmo/cubecal/logging"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "console", ""} {
		l, err := logging.NewLogger(logging.LogConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}

	_, err := logging.NewLogger(logging.LogConfig{OutputPaths: []string{"/nonexistent-dir/x/y.log"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zapcore.DebugLevel, logging.ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, logging.ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, logging.ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, logging.ParseLevel("verbose"))
}

func TestFieldsReachCore(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := logging.NewLoggerFromCore(core).Named("solver").With(logging.String("cube", "SABR"))

	l.Debug("iteration",
		logging.Int("iteration", 3),
		logging.Float64("rmse", 1.5e-7),
		logging.Floats("params", []float64{0.1, 0.2}),
		logging.Bool("accepted", true),
		logging.Err(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "iteration", e.Message)
	assert.Equal(t, "solver", e.LoggerName)

	ctx := e.ContextMap()
	assert.Equal(t, "SABR", ctx["cube"])
	assert.Equal(t, int64(3), ctx["iteration"])
	assert.Equal(t, 1.5e-7, ctx["rmse"])
	assert.Equal(t, true, ctx["accepted"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, []interface{}{0.1, 0.2}, ctx["params"])
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	l := logging.NewLoggerFromCore(core)
	l.Debug("hidden")
	l.Info("shown")
	l.Warn("shown")
	l.Error("shown")
	assert.Equal(t, 3, logs.FilterMessage("shown").Len())
	assert.Equal(t, 0, logs.FilterMessage("hidden").Len())
}

func TestDefault(t *testing.T) {
	nop := logging.NewNopLogger()
	nop.Info("discarded")
	assert.Equal(t, nop, nop.With(logging.Int("k", 1)).Named("x"))

	core, logs := observer.New(zapcore.InfoLevel)
	prev := logging.Default()
	logging.SetDefault(logging.NewLoggerFromCore(core))
	t.Cleanup(func() { logging.SetDefault(prev) })

	logging.SetDefault(nil)
	logging.Default().Info("hello")
	assert.Equal(t, 1, logs.Len())
}
