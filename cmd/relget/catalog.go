package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/relget/relget/internal/artifact"
)

func newCatalogCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List known artifacts",
		Long: `List artifacts relget can install: the built-in catalog plus any Lua
specs found in the configured spec directories. Spec-directory entries
shadow built-ins of the same name.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(verbose)
			if err != nil {
				return err
			}

			type entry struct {
				spec   *artifact.Spec
				source string
			}
			entries := map[string]entry{}
			for _, name := range artifact.Names() {
				spec, err := artifact.Lookup(name)
				if err != nil {
					return err
				}
				entries[name] = entry{spec: spec, source: "builtin"}
			}
			for _, spec := range rt.specDirSpecs(cmd.Context()) {
				entries[spec.Name] = entry{spec: spec, source: "spec-dir"}
			}

			names := make([]string, 0, len(entries))
			for name := range entries {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tKIND\tARCHS\tSOURCE")
			for _, name := range names {
				e := entries[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.spec.Name, e.spec.Version, e.spec.Kind, archList(e.spec), e.source)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// archList renders the architectures a spec maps, "any" for
// architecture-independent artifacts.
func archList(spec *artifact.Spec) string {
	if len(spec.Targets) == 0 {
		return "any"
	}
	archs := make([]string, 0, len(spec.Targets))
	for arch := range spec.Targets {
		archs = append(archs, arch)
	}
	sort.Strings(archs)
	list := strings.Join(archs, ",")
	if spec.FallbackTarget != "" {
		list += ",+fallback"
	}
	return list
}
