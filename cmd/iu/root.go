package main

import (
	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/messages"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	verbose    bool
	update     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", messages.RootFlagConfig)
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, messages.RootFlagVerbose)
	cmd.PersistentFlags().BoolVar(&flags.update, "update", false, messages.RootFlagUpdate)

	cmd.AddCommand(
		newInstallCmd(flags, false),
		newInstallCmd(flags, true),
		newPackagesCmd(flags),
		newVersionsCmd(flags),
		newInstallsCmd(flags),
		newUninstallCmd(flags),
		newMoveCmd(flags),
		newRunCmd(flags),
		newDefaultsCmd(flags),
		newConfigCmd(flags),
	)
	return cmd
}
