package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/stage"
	"github.com/relget/relget/internal/verify"
)

func newFetchCmd() *cobra.Command {
	var (
		version  string
		specFile string
		output   string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <artifact>",
		Short: "Download and verify an artifact without installing it",
		Long: `Download the artifact for the current platform into the cache, run
integrity and checksum verification, and print the payload path.
Nothing is executed or installed.`,
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

			info, err := rt.detector.Detect(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := spec.Resolve(version, info.Arch, info.OS)
			if err != nil {
				return err
			}

			var payloadPath string
			if spec.Kind == artifact.KindScript {
				area, err := stage.New(rt.stagingDir)
				if err != nil {
					return err
				}
				defer area.Remove()
				payloadPath = area.Path(resolved.Filename())
				if err := rt.downloader.DownloadToFile(cmd.Context(), resolved.URL, payloadPath); err != nil {
					return err
				}
				if output == "" {
					output = resolved.Filename()
				}
			} else {
				payloadPath, err = rt.downloader.DownloadArtifact(cmd.Context(), resolved)
				if err != nil {
					return err
				}
			}

			if err := verify.CheckIntegrity(payloadPath, spec.Kind, spec.MaxSize); err != nil {
				return err
			}
			if resolved.ChecksumURL != "" {
				checksumPath, err := rt.downloader.DownloadSidecar(cmd.Context(), resolved, resolved.ChecksumURL)
				if err != nil {
					return fmt.Errorf("download checksums: %w", err)
				}
				if err := verify.VerifySHA256(payloadPath, checksumPath); err != nil {
					return err
				}
			}

			if output != "" {
				if err := copyPayload(payloadPath, output); err != nil {
					return err
				}
				payloadPath = output
			}

			fmt.Fprintln(cmd.OutOrStdout(), payloadPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&version, "version", "", "Version to fetch (default: the spec's version)")
	flags.StringVar(&specFile, "spec", "", "Lua spec file overriding the catalog")
	flags.StringVarP(&output, "output", "o", "", "Copy the verified payload to this path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func copyPayload(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy payload: %w", err)
	}
	return out.Close()
}
