package main

import (
	"fmt"

	"github.com/iwvelando/forecast-dashboard/internal/config"
	"github.com/iwvelando/forecast-dashboard/internal/logging"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "forecast-dashboard",
		Short: "Dashboard for exponential smoothing grid search results",
		Long: `forecast-dashboard compares the results of a grid search over exponential
smoothing models (SES, Holt, Holt-Winters).

It selects the best model configuration per ID by an error metric, reports
the share of best models won by each family, and serves a web dashboard for
browsing comparison and forecast spreadsheets.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSummarizeCommand(opts))

	return cmd
}

// load reads the configuration and builds the logger the subcommands share.
func (o *rootOptions) load() (*config.Configuration, *zap.Logger, error) {
	conf, err := config.LoadConfiguration(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", o.configPath, err)
	}

	logger, err := logging.New(conf.Logging, o.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := conf.Validate(); err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, logger, nil
}

func execute() error {
	return newRootCommand().Execute()
}
