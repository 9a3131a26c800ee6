package main

import (
	"fmt"
	"reflect"

	"gymcore/internal/config"
	"gymcore/internal/util"

	"github.com/spf13/cobra"
)

func newDiffsettingsCmd(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "diffsettings",
		Short: "Show settings that differ from the base profile (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.load()
			if err != nil {
				return err
			}

			view := any(settings.Public())
			if !all {
				base, err := config.Load(config.LoadOptions{
					BaseDir:    settings.BaseDir,
					Profile:    config.ProfileBase,
					SkipDotEnv: true,
				})
				if err != nil {
					return err
				}
				view, err = diffSettings(settings.Public(), base.Public())
				if err != nil {
					return err
				}
			}

			out, err := util.MarshalIndentJSON(view)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show all settings, not only the differences")
	return cmd
}

// diffSettings 按 JSON 字段比较，返回 current 中与 base 不同的项
func diffSettings(current, base *config.Settings) (map[string]any, error) {
	cur, err := settingsMap(current)
	if err != nil {
		return nil, err
	}
	def, err := settingsMap(base)
	if err != nil {
		return nil, err
	}

	diff := make(map[string]any)
	for k, v := range cur {
		if !reflect.DeepEqual(v, def[k]) {
			diff[k] = v
		}
	}
	return diff, nil
}

func settingsMap(s *config.Settings) (map[string]any, error) {
	raw, err := util.MarshalJSON(s)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := util.UnmarshalJSON([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}
