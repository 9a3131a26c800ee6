package main

import (
	"fmt"

	"gymcore/internal/staticfiles"

	"github.com/spf13/cobra"
)

func newCollectstaticCmd(opts *globalOptions) *cobra.Command {
	var copts staticfiles.Options

	cmd := &cobra.Command{
		Use:   "collectstatic",
		Short: "Collect static files into STATIC_ROOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.load()
			if err != nil {
				return err
			}
			res, err := staticfiles.Collect(cmd.Context(), settings, copts)
			if err != nil {
				return err
			}

			verb := "copied"
			if copts.DryRun {
				verb = "would be copied"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d static files %s to '%s', %d unmodified, %d skipped.\n",
				res.Copied, verb, settings.StaticRoot, res.Unmodified, res.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&copts.Clear, "clear", false, "remove STATIC_ROOT before collecting")
	cmd.Flags().BoolVarP(&copts.DryRun, "dry-run", "n", false, "report what would be copied without writing")
	return cmd
}
