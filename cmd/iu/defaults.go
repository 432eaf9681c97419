package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/config"
	"github.com/conn-castle/install-unity/internal/messages"
)

func newDefaultsCmd(root *rootFlags) *cobra.Command {
	var pkgs []string
	var clearSaved bool
	cmd := &cobra.Command{
		Use:   messages.DefaultsUse,
		Short: messages.DefaultsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			save := func(pkgs []string) error {
				cfg, err := config.Load(a.configPath)
				if err != nil {
					return err
				}
				cfg.DefaultPackages = pkgs
				return config.Save(a.configPath, cfg)
			}
			switch {
			case clearSaved:
				if err := save(nil); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.stdout, messages.DefaultsCleared)
			case len(pkgs) > 0:
				if err := save(pkgs); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, messages.DefaultsSavedFmt, strings.Join(pkgs, ", "))
			case len(a.cfg.DefaultPackages) == 0:
				_, _ = fmt.Fprintln(a.stdout, messages.DefaultsNone)
			default:
				_, _ = fmt.Fprintf(a.stdout, messages.DefaultsShowFmt, strings.Join(a.cfg.DefaultPackages, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&pkgs, "package", "p", nil, messages.InstallFlagPackages)
	cmd.Flags().BoolVar(&clearSaved, "clear", false, messages.DefaultsFlagClear)
	return cmd
}
