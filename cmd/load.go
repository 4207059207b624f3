package cmd

import (
	"fmt"

	"data-loader/feature/jobs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	loadJobFile     string
	loadDryRun      bool
	loadMetricsFile string
)

// loadCmd runs a job file once.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the sources of a job into the database",
	Long: `Runs every step of a job: extract the source, transform its rows and
reconcile them into the step's table.

Examples:
  # Load
  data-loader load --job jobs/library.yaml

  # Report what would change without writing
  data-loader load --job jobs/library.yaml --dry-run

  # Write node-exporter metrics after the run
  data-loader load --job jobs/library.yaml --metrics-file /var/lib/node_exporter/loader.prom`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadJobFile, "job", "", "Path of the job definition (required)")
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "Compute the changes without writing")
	loadCmd.Flags().StringVar(&loadMetricsFile, "metrics-file", "", "Write run metrics to this textfile (overrides metrics.textfile)")
	_ = loadCmd.MarkFlagRequired("job")

	RootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	job, err := jobs.LoadFile(loadJobFile)
	if err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	report, runErr := a.service().Run(cmd.Context(), job, jobs.RunOptions{DryRun: loadDryRun})

	for _, s := range report.Steps {
		a.log.Info("Step summary",
			zap.String("step", s.Name),
			zap.String("table", s.Table),
			zap.Int("rows", s.Rows),
			zap.Int("created", s.Created),
			zap.Int("updated", s.Updated),
			zap.Int("unchanged", s.Unchanged),
			zap.Int("duplicates", s.Duplicates),
			zap.Int("unresolved", s.Unresolved),
			zap.Int64("duration_ms", s.DurationMS),
		)
	}

	path := loadMetricsFile
	if path == "" {
		path = a.cfg.Metrics.Textfile
	}
	if path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.log.Warn("Failed to write metrics", zap.Error(err))
		}
	}

	if runErr != nil {
		return fmt.Errorf("job %s failed: %w", job.Name, runErr)
	}
	return nil
}
