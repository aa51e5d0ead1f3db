package main

import (
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden-analysis/internal/application"
	"github.com/wardenhq/warden-analysis/internal/application/testrun"
	execengine "github.com/wardenhq/warden-analysis/internal/infra/engine/exec"
)

var (
	benchIterations int
	benchLogType    string
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark <spec-file>",
	Short: "Benchmark one detection against its first test case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		svc := &testrun.Service{
			Engine: execengine.NewRunner(a.cfg.Engine.Command, a.log),
			Clock:  application.SystemClock{},
			Log:    a.log,
		}
		report, err := svc.Benchmark(cmd.Context(), args[0], benchLogType, benchIterations)
		if err != nil {
			return err
		}

		code := 0
		if !report.Success {
			code = 1
		}
		j, jerr := report.JSON()
		return emit(code, report.Text(), j, jerr)
	},
}

func init() {
	benchmarkCmd.Flags().IntVar(&benchIterations, "iterations", 10, "number of benchmark iterations")
	benchmarkCmd.Flags().StringVar(&benchLogType, "log-type", "", "log type label recorded in the report")
}
