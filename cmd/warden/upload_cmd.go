package main

import (
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Package detection content and upload it to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		out := a.bulk.Upload(cmd.Context(), args[0])
		j, jerr := out.Report.JSON()
		return emit(out.Code, out.Report.Text(), j, jerr)
	},
}
