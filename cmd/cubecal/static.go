package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/meenmo/cubecal/calibration"
	"github.com/meenmo/cubecal/logging"
	"github.com/meenmo/cubecal/swaption"
	"github.com/meenmo/cubecal/volcube"
)

// StaticOutput is the JSON result of the static subcommand.
type StaticOutput struct {
	TrueValue            float64 `json:"true_value"`
	TrueCorrelationDecay float64 `json:"true_correlation_decay"`
	Value                float64 `json:"value"`
	CorrelationDecay     float64 `json:"correlation_decay"`
	Targets              int     `json:"targets"`
	Iterations           int     `json:"iterations"`
	RMSE                 float64 `json:"rmse"`
	ElapsedMs            int64   `json:"elapsed_ms"`
}

func newStaticCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "static",
		Short: "Calibrate a two-parameter static cube",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load(opts)
			if err != nil {
				return err
			}
			cc, err := cfg.CalibrationConfig()
			if err != nil {
				return err
			}
			m, err := cfg.Model()
			if err != nil {
				return err
			}
			ref, err := cfg.Reference()
			if err != nil {
				return err
			}

			payerParams, err := cfg.LatticeParams(swaption.PayerPrice)
			if err != nil {
				return err
			}
			receiverParams, err := cfg.LatticeParams(swaption.ReceiverPrice)
			if err != nil {
				return err
			}
			underlying := 1 / float64(payerParams.Fix.Frequency.PeriodsPerYear())
			truth := volcube.NewStaticCube("truth", ref, cfg.Static.Value, cfg.Static.CorrelationDecay, underlying)

			payer, err := calibration.GenerateLattice(payerParams, truth, m, cc)
			if err != nil {
				return err
			}
			receiver, err := calibration.GenerateLattice(receiverParams, truth, m, cc)
			if err != nil {
				return err
			}

			c, err := calibration.NewStaticCubeCalibration(payer, receiver, m, cc)
			if err != nil {
				return err
			}
			c.SetLogger(logger.Named("static"))
			c.SetInitialValue(cfg.Static.InitialValue)
			c.SetInitialCorrelationDecay(cfg.Static.InitialCorrelationDecay)

			start := time.Now()
			cube, err := c.Calibrate("static")
			if err != nil {
				return err
			}
			value, decay := cube.(*volcube.StaticCube).Parameters()
			diag := c.Diagnostics()
			logger.Info("static round trip done", logging.Float64("value", value), logging.Float64("correlation_decay", decay))

			return printJSON(cmd.OutOrStdout(), StaticOutput{
				TrueValue:            cfg.Static.Value,
				TrueCorrelationDecay: cfg.Static.CorrelationDecay,
				Value:                value,
				CorrelationDecay:     decay,
				Targets:              c.Targets().Len(),
				Iterations:           diag.Iterations,
				RMSE:                 diag.RootMeanSquaredError,
				ElapsedMs:            time.Since(start).Milliseconds(),
			})
		},
	}
}
