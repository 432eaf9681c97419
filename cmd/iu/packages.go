package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/packages"
)

func newPackagesCmd(root *rootFlags) *cobra.Command {
	var showHidden bool
	var plat string
	cmd := &cobra.Command{
		Use:   messages.PackagesUse,
		Short: messages.PackagesShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			rec, err := a.lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := catalog.Platform(plat)
			if p == "" {
				inst, err := a.installer()
				if err != nil {
					return err
				}
				p = inst.Platform()
			}
			pkgs := rec.PackagesFor(p)
			if len(pkgs) == 0 {
				return fmt.Errorf(messages.PackagesNoneFmt, rec.Version, p)
			}
			defaults := packages.GetDefaultPackages(pkgs, packages.DefaultOptions{Saved: a.cfg.DefaultPackages})
			_, _ = fmt.Fprintf(a.stdout, messages.PackagesHeaderFmt, rec.Version, p)
			writePackageTable(a.stdout, pkgs, defaults, showHidden)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHidden, "hidden", false, messages.PackagesFlagHidden)
	cmd.Flags().StringVar(&plat, "platform", "", messages.InstallFlagPlatform)
	return cmd
}

func writePackageTable(out io.Writer, pkgs []catalog.Package, defaults []string, showHidden bool) {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("", "NAME", "SIZE", "INSTALLED", "TITLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	for _, p := range pkgs {
		if p.Hidden && !showHidden {
			continue
		}
		mark := " "
		if slices.Contains(defaults, p.Name) {
			mark = "*"
		}
		installed := ""
		if p.InstalledSize > 0 {
			installed = humanize.IBytes(uint64(p.InstalledSize))
		}
		t.Row(mark, p.Name, humanize.IBytes(uint64(max(p.Size, 0))), installed, p.Title)
	}
	_, _ = fmt.Fprintln(out, t.String())
}
