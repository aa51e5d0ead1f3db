package main

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Package detection content and validate it remotely without uploading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.log.Sync()

		out := a.bulk.Validate(cmd.Context(), args[0])
		j, jerr := out.Report.JSON()
		return emit(out.Code, out.Report.Text(), j, jerr)
	},
}
