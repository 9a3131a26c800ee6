package main

import (
	"context"
	"fmt"

	"gymcore/internal/config"
	"gymcore/internal/storage"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.load()
			if err != nil {
				return err
			}

			db, err := storage.Open(cmd.Context(), settings.Default())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), config.StartupMigrationTimeout)
			defer cancel()
			applied, err := storage.Migrate(ctx, db.DB(), db.Dialect())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "No migrations to apply.")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "  Applying %s... OK\n", v)
			}
			return nil
		},
	}
}
