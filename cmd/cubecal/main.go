// Command cubecal prices a synthetic swaption lattice off a known volatility
// cube, calibrates a cube back to it and prints the fitted parameters as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meenmo/cubecal/config"
	"github.com/meenmo/cubecal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "cubecal",
		Short:         "Round-trip calibration of swaption volatility cubes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default: built-in defaults)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newStaticCommand(opts), newSABRCommand(opts))
	return cmd
}

// load reads the config and installs its logger as the process default.
func load(opts *rootOptions) (config.Config, logging.Logger, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(opts.configPath); err != nil {
			return cfg, nil, err
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if cfg.Log.OutputPaths == nil {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return cfg, nil, err
	}
	logging.SetDefault(logger)
	return cfg, logger, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
