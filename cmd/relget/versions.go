package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	var (
		specFile string
		limit    int
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "versions <artifact>",
		Short: "List released versions of an artifact",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(verbose)
			if err != nil {
				return err
			}

			spec, err := rt.loadSpec(cmd.Context(), args[0], specFile)
			if err != nil {
				return err
			}
			if spec.ReleasesURL == "" {
				return fmt.Errorf("%s does not declare a releases endpoint", spec.Name)
			}

			versions, err := rt.downloader.ListVersions(cmd.Context(), spec.ReleasesURL)
			if err != nil {
				return err
			}
			if limit > 0 && len(versions) > limit {
				versions = versions[:limit]
			}

			for _, v := range versions {
				marker := " "
				if v == spec.Version {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, v)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&specFile, "spec", "", "Lua spec file overriding the catalog")
	flags.IntVarP(&limit, "limit", "n", 20, "Show at most this many versions (0 for all)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}
