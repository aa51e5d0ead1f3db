package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the configured backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		a.log.Info("checking connection", zap.String("api_host", a.cfg.API.Host))
		code, report := a.bulk.CheckConnection(cmd.Context(), a.cfg.API.Host)
		j, jerr := report.JSON()
		return emit(code, report.Text(), j, jerr)
	},
}
