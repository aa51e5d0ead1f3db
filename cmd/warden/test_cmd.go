package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardenhq/warden-analysis/internal/application"
	"github.com/wardenhq/warden-analysis/internal/application/testrun"
	execengine "github.com/wardenhq/warden-analysis/internal/infra/engine/exec"
)

var (
	testFilter []string
	aiTriage   bool
)

var testCmd = &cobra.Command{
	Use:   "test <path>",
	Short: "Run detection tests and report results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		svc := &testrun.Service{
			Engine: execengine.NewRunner(a.cfg.Engine.Command, a.log),
			Repo:   a.runs,
			Clock:  application.SystemClock{},
			Log:    a.log,
		}
		report, err := svc.Run(cmd.Context(), args[0], testrun.Options{Filter: testFilter})
		if err != nil {
			return err
		}

		j, jerr := report.JSON()
		emitErr := emit(report.Summary.ReturnCode, report.Text(), j, jerr)

		// Triage is advisory and goes to stderr so it never pollutes the report
		if aiTriage && a.ai != nil && report.Summary.FailedTests > 0 && jerr == nil {
			summary, err := a.ai.Triage(cmd.Context(), j)
			if err != nil {
				a.log.Warn("ai triage failed", zap.Error(err))
			} else {
				fmt.Fprintf(os.Stderr, "\nAI triage:\n%s\n", summary)
			}
		}
		return emitErr
	},
}

func init() {
	testCmd.Flags().StringSliceVar(&testFilter, "filter", nil, "run only tests with these names")
	testCmd.Flags().BoolVar(&aiTriage, "ai-triage", false, "summarize failures with the configured AI model")
}
