package main

import (
	"fmt"
	"os"

	"github.com/iwvelando/forecast-dashboard/internal/gridsearch"
	"github.com/iwvelando/forecast-dashboard/internal/table"
	"github.com/iwvelando/forecast-dashboard/pkg/constants"
	"github.com/iwvelando/forecast-dashboard/pkg/output"
	"github.com/iwvelando/forecast-dashboard/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSummarizeCommand(opts *rootOptions) *cobra.Command {
	var (
		file         string
		metricFlag   string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the best model per ID and the share of each model family",
		Long: `Print the best model per ID and the share of each model family.

The grid search results file (.csv or .xlsx) needs the columns ID, Model and
the selected metric. For every ID the row with the lowest metric value wins;
ties keep the earliest row.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			// CLI override takes precedence over config
			if outputFormat == "" {
				outputFormat = conf.Output.Format
			}
			if outputFormat == "" {
				outputFormat = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}

			if metricFlag == "" {
				metricFlag = conf.Dashboard.DefaultMetric
			}
			metric, err := gridsearch.ParseMetric(metricFlag)
			if err != nil {
				return err
			}

			report, err := summarize(logger, file, metric)
			if err != nil {
				return err
			}

			switch outputFormat {
			case constants.OutputFormatCSV:
				return output.CsvFormat(cmd.OutOrStdout(), report)
			default:
				return output.PrettyFormat(cmd.OutOrStdout(), report)
			}
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "grid search results file (.csv or .xlsx)")
	cmd.Flags().StringVar(&metricFlag, "metric", "", "metric to minimize (MAE, RMSE, MAPE)")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "type of output override: pretty, csv")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func summarize(logger *zap.Logger, path string, metric gridsearch.Metric) (output.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return output.Report{}, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn("failed to close results file",
				zap.String("op", "main.summarize"),
				zap.Error(closeErr),
			)
		}
	}()

	src, err := table.Read(path, f)
	if err != nil {
		return output.Report{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	rows, err := gridsearch.RowsFromTable(src, metric)
	if err != nil {
		return output.Report{}, err
	}
	for _, warning := range gridsearch.CheckCoverage(rows) {
		logger.Warn("grid search warning: "+warning,
			zap.String("op", "main.summarize"),
		)
	}

	best, err := gridsearch.SelectBest(rows, metric)
	if err != nil {
		return output.Report{}, err
	}
	stats, err := gridsearch.SummarizeFamilies(best, metric)
	if err != nil {
		return output.Report{}, err
	}

	logger.Debug("selected best models",
		zap.String("op", "main.summarize"),
		zap.String("metric", metric.String()),
		zap.Int("rows", len(rows)),
		zap.Int("ids", len(best)),
	)
	return output.Report{
		Metric: metric,
		Best:   best,
		Source: src,
		Shares: gridsearch.Tally(best),
		Stats:  stats,
	}, nil
}
