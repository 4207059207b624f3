package cmd

import (
	"fmt"

	"data-loader/feature/jobs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkJobFile string

// checkCmd validates a job against the database without loading anything.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify a job's tables, columns and sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		job, err := jobs.LoadFile(checkJobFile)
		if err != nil {
			return err
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		problems, err := jobs.Check(cmd.Context(), a.db, a.reader(), job)
		if err != nil {
			return err
		}
		for _, p := range problems {
			a.log.Warn("Preflight problem", zap.String("step", p.Step), zap.String("problem", p.Message))
		}
		if len(problems) > 0 {
			return fmt.Errorf("job %s has %d problem(s)", job.Name, len(problems))
		}

		a.log.Info("Job is ready", zap.String("job", job.Name), zap.Int("steps", len(job.Steps)))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkJobFile, "job", "", "Path of the job definition (required)")
	_ = checkCmd.MarkFlagRequired("job")

	RootCmd.AddCommand(checkCmd)
}
