package main

import (
	"context"
	"fmt"

	"gymcore/internal/config"
	"gymcore/internal/storage"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var withDB bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate settings and optionally database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load 已执行 Validate，失败直接返回
			settings, err := opts.load()
			if err != nil {
				return err
			}

			if withDB {
				ctx, cancel := context.WithTimeout(cmd.Context(), config.StartupDBPingTimeout)
				defer cancel()
				db, err := storage.Open(ctx, settings.Default())
				if err != nil {
					return err
				}
				_ = db.Close()
			}

			out := cmd.OutOrStdout()
			warnings := checkWarnings(settings)
			for _, w := range warnings {
				fmt.Fprintf(out, "WARNING: %s\n", w)
			}
			switch len(warnings) {
			case 0:
				fmt.Fprintf(out, "System check identified no issues (profile=%s).\n", settings.Profile)
			case 1:
				fmt.Fprintf(out, "System check identified 1 issue (profile=%s).\n", settings.Profile)
			default:
				fmt.Fprintf(out, "System check identified %d issues (profile=%s).\n", len(warnings), settings.Profile)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDB, "database", false, "also connect to the default database")
	return cmd
}

// checkWarnings 不阻止启动但需要提示的配置问题
func checkWarnings(s *config.Settings) []string {
	var warnings []string
	if s.IsProduction() && s.SecretKey == config.DefaultSecretKey {
		warnings = append(warnings, fmt.Sprintf("%s uses the development default.", config.EnvSecretKey))
	}
	return warnings
}
