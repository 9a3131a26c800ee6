package main

import (
	"gymcore/internal/config"
	"gymcore/internal/version"

	"github.com/spf13/cobra"
)

// globalOptions 所有子命令共享的参数
type globalOptions struct {
	profile    string
	baseDir    string
	skipDotEnv bool
}

func (o *globalOptions) load() (*config.Settings, error) {
	return config.Load(config.LoadOptions{
		BaseDir:    o.baseDir,
		Profile:    config.Profile(o.profile),
		SkipDotEnv: o.skipDotEnv,
	})
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Gym backend management commands",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.profile, "profile", "", "settings profile: base, local or prod (default $"+config.EnvProfile+")")
	pf.StringVar(&opts.baseDir, "base-dir", "", "project root (default $"+config.EnvBaseDir+" or working directory)")
	pf.BoolVar(&opts.skipDotEnv, "no-dotenv", false, "do not read <base-dir>/.env")

	root.AddCommand(
		newRunserverCmd(opts),
		newMigrateCmd(opts),
		newCollectstaticCmd(opts),
		newCheckCmd(opts),
		newDiffsettingsCmd(opts),
	)
	return root
}
