package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/meenmo/cubecal/calibration"
	"github.com/meenmo/cubecal/config"
	"github.com/meenmo/cubecal/model"
	"github.com/meenmo/cubecal/swaption"
)

// NodeOutput is the fitted smile of one grid node.
type NodeOutput struct {
	Maturity int     `json:"maturity"`
	Tenor    int     `json:"tenor"`
	SwapRate float64 `json:"swap_rate"`
	Rho      float64 `json:"rho"`
	BaseVol  float64 `json:"base_vol"`
	VolVol   float64 `json:"vol_vol"`
}

// SABROutput is the JSON result of the sabr subcommand.
type SABROutput struct {
	Method string            `json:"method"`
	Truth  config.SABRConfig `json:"truth"`
	Nodes  []NodeOutput      `json:"nodes"`
}

type sabrOptions struct {
	joint         bool
	bootstrapOnly bool
}

func newSABRCommand(root *rootOptions) *cobra.Command {
	opts := &sabrOptions{}
	cmd := &cobra.Command{
		Use:   "sabr",
		Short: "Calibrate a SABR cube by slices, seeded by the smile bootstrap",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.joint && opts.bootstrapOnly {
				return errors.New("--joint and --bootstrap-only are exclusive")
			}
			cfg, logger, err := load(root)
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
			payer, receiver, atm, err := sabrMarket(cfg, cc, m)
			if err != nil {
				return err
			}

			var (
				tables *calibration.SABRTables
				method string
			)
			bootstrap, err := calibration.NewBootstrapCalibration(payer, receiver, atm, m, cc)
			if err != nil {
				return err
			}
			bootstrap.SetLogger(logger.Named("bootstrap"))

			switch {
			case opts.bootstrapOnly:
				method = "bootstrap"
				tables, err = bootstrap.Run()
			case opts.joint:
				method = "joint"
				var initial *calibration.SABRTables
				if initial, err = bootstrap.Run(); err != nil {
					return err
				}
				var c *calibration.SABRCubeCalibration
				if c, err = calibration.NewSABRCubeCalibration(payer, receiver, m, initial, cc); err != nil {
					return err
				}
				c.SetLogger(logger.Named("joint"))
				tables, err = c.CalibrateTables("sabr")
			default:
				method = "slices"
				var c *calibration.SliceCalibration
				if c, err = calibration.NewSliceCalibration(payer, receiver, atm, m, cc); err != nil {
					return err
				}
				c.SetLogger(logger.Named("slices"))
				tables, err = c.CalibrateTables("sabr")
			}
			if err != nil {
				return err
			}

			out := SABROutput{Method: method, Truth: cfg.SABR}
			for _, mat := range tables.Maturities() {
				for _, ten := range tables.Tenors() {
					n := swaption.NodeKey{Maturity: mat, Tenor: ten}
					rate, _ := tables.SwapRate(n)
					rho, baseVol, volVol, _ := tables.Parameters(n)
					out.Nodes = append(out.Nodes, NodeOutput{
						Maturity: mat,
						Tenor:    ten,
						SwapRate: rate,
						Rho:      rho,
						BaseVol:  baseVol,
						VolVol:   volVol,
					})
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&opts.joint, "joint", false, "fit all nodes in one solve instead of by maturity")
	cmd.Flags().BoolVar(&opts.bootstrapOnly, "bootstrap-only", false, "stop after the smile bootstrap")
	return cmd
}

// sabrMarket prices the configured lattices off a SABR cube with the
// configured smile at every node.
func sabrMarket(cfg config.Config, cc calibration.Config, m *model.Model) (payer, receiver, atm *swaption.Lattice, err error) {
	payerParams, err := cfg.LatticeParams(swaption.PayerPrice)
	if err != nil {
		return nil, nil, nil, err
	}
	receiverParams, err := cfg.LatticeParams(swaption.ReceiverPrice)
	if err != nil {
		return nil, nil, nil, err
	}
	atmParams, err := cfg.LatticeParams(swaption.PayerNormalVolatility)
	if err != nil {
		return nil, nil, nil, err
	}

	payerTemplate, err := swaption.NewLattice(payerParams)
	if err != nil {
		return nil, nil, nil, err
	}
	receiverTemplate, err := swaption.NewLattice(receiverParams)
	if err != nil {
		return nil, nil, nil, err
	}
	grid := calibration.NewNodeTable(payerTemplate, receiverTemplate)
	truth, err := calibration.NewSABRTables(grid, payerTemplate, m)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, n := range grid.Nodes() {
		truth.SetParameters(n, cfg.SABR.Rho, cfg.SABR.BaseVol, cfg.SABR.VolVol)
	}
	cube, err := truth.Cube("truth", cc.SABRBeta, cc.SABRDisplacement)
	if err != nil {
		return nil, nil, nil, err
	}

	if payer, err = calibration.GenerateLattice(payerParams, cube, m, cc); err != nil {
		return nil, nil, nil, err
	}
	if receiver, err = calibration.GenerateLattice(receiverParams, cube, m, cc); err != nil {
		return nil, nil, nil, err
	}
	if atm, err = calibration.GenerateLattice(atmParams, cube, m, cc); err != nil {
		return nil, nil, nil, err
	}
	return payer, receiver, atm, nil
}
