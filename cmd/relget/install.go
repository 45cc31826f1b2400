package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relget/relget/internal/run"
)

func newInstallCmd() *cobra.Command {
	var (
		version    string
		destDir    string
		specFile   string
		keyring    string
		assumeYes  bool
		force      bool
		selfVerify bool
		verbose    bool
		scriptArgs []string
	)

	cmd := &cobra.Command{
		Use:   "install <artifact>",
		Short: "Download, verify, and install an artifact",
		Long: `Download an artifact for the current platform, verify it, and either
install it into the destination directory or, for script artifacts,
execute it after showing a preview.

A run that finds the same version already installed does nothing.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(verbose)
			if err != nil {
				return err
			}

			spec, err := rt.loadSpec(cmd.Context(), args[0], specFile)
			if err != nil {
				return err
			}

			gate := run.NewGate(assumeYes || rt.settings.AssumeYes)
			runner, err := rt.newRunner(gate)
			if err != nil {
				return err
			}

			if destDir == "" {
				destDir = rt.settings.DestDir
			}
			if keyring == "" {
				keyring = rt.settings.Keyring
			}

			result, err := runner.Run(cmd.Context(), run.Options{
				Spec:        spec,
				Version:     version,
				DestDir:     destDir,
				KeyringPath: keyring,
				SelfVerify:  selfVerify || rt.settings.SelfVerify,
				Force:       force,
				ScriptArgs:  scriptArgs,
			})
			if err != nil {
				return err
			}

			switch {
			case result.Skipped:
				fmt.Fprintf(cmd.OutOrStdout(), "%s already installed at %s\n", spec.Name, result.InstalledPath)
			case result.InstalledPath != "":
				fmt.Fprintf(cmd.OutOrStdout(), "installed %s to %s (verified: %s)\n",
					spec.Name, result.InstalledPath, result.Verified)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "ran %s\n", spec.Name)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&version, "version", "", "Version to install (default: the spec's version)")
	flags.StringVarP(&destDir, "dest", "d", "", "Destination directory for binaries")
	flags.StringVar(&specFile, "spec", "", "Lua spec file overriding the catalog")
	flags.StringVar(&keyring, "keyring", "", "GPG keyring for signature verification")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	flags.BoolVar(&force, "force", false, "Reinstall even when already present")
	flags.BoolVar(&selfVerify, "self-verify", false, "Run the installed binary with --version")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringArrayVar(&scriptArgs, "arg", nil, "Argument passed to script artifacts (repeatable)")

	return cmd
}
