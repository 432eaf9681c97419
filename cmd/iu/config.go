package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/config"
	"github.com/conn-castle/install-unity/internal/messages"
)

func newConfigCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.ConfigUse,
		Short: messages.ConfigShort,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   messages.ConfigListUse,
			Short: messages.ConfigListShort,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp(cmd, root)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, messages.ConfigPathFmt, a.configPath)
				for _, f := range config.Fields() {
					value, err := a.cfg.Get(f.Key)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(a.stdout, messages.ConfigListLineFmt, f.Key, value)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   messages.ConfigGetUse,
			Short: messages.ConfigGetShort,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp(cmd, root)
				if err != nil {
					return err
				}
				value, err := a.cfg.Get(args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.stdout, value)
				return nil
			},
		},
		&cobra.Command{
			Use:   messages.ConfigSetUse,
			Short: messages.ConfigSetShort,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := loadApp(cmd, root)
				if err != nil {
					return err
				}
				// Environment overrides must not be persisted.
				cfg, err := config.Load(a.configPath)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				return config.Save(a.configPath, cfg)
			},
		},
	)
	return cmd
}
