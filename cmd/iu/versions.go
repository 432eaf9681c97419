package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/install-unity/internal/catalog"
	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/version"
)

func newVersionsCmd(root *rootFlags) *cobra.Command {
	var kind string
	var match string
	cmd := &cobra.Command{
		Use:   messages.VersionsUse,
		Short: messages.VersionsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			k, err := version.ParseKind(kind)
			if err != nil {
				return err
			}
			pattern := version.Version{Major: version.Unset, Minor: version.Unset, Patch: version.Unset, Build: version.Unset}
			if match != "" {
				if pattern, err = version.Parse(match); err != nil {
					return err
				}
			}
			if pattern.Kind == version.KindUndefined {
				pattern.Kind = k
			}
			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			writeVersions(a.stdout, filterVersions(c.Versions(), pattern))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "f", messages.VersionsFlagKind)
	cmd.Flags().StringVar(&match, "match", "", messages.VersionsFlagMatch)
	return cmd
}

// filterVersions returns the catalog versions matching pattern, oldest first.
func filterVersions(records []catalog.VersionRecord, pattern version.Version) []version.Version {
	var out []version.Version
	for _, r := range records {
		if r.Version.Matches(pattern) {
			out = append(out, r.Version)
		}
	}
	return out
}

// writeVersions prints versions grouped by major.minor, newest first.
func writeVersions(out io.Writer, versions []version.Version) {
	if len(versions) == 0 {
		_, _ = fmt.Fprintln(out, messages.VersionsNone)
		return
	}
	var group string
	var line []string
	flush := func() {
		if len(line) > 0 {
			_, _ = fmt.Fprintf(out, "%s: %s\n", group, strings.Join(line, " "))
		}
		line = nil
	}
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		g := fmt.Sprintf("%d.%d", v.Major, v.Minor)
		if g != group {
			flush()
			group = g
		}
		line = append(line, v.String())
	}
	flush()
}
