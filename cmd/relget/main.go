// Package main provides the relget CLI for fetching and installing
// released artifacts: archives and raw binaries from release pages,
// and vendor install scripts run after review.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relget/relget/internal/run"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	ctx, cancel := setupSignals()
	defer cancel()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var usageErr *usageError
		if errors.As(err, &usageErr) {
			os.Exit(run.ExitUsage)
		}
		os.Exit(run.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relget",
		Short: "Fetch, verify, and install released tools",
		Long: `relget downloads released artifacts over HTTPS, verifies them, and
installs them with a single confirmation gate before anything runs.

Artifacts come from the built-in catalog or from Lua spec files.
Downloads retry transient failures, staged files are always cleaned
up, and every run is journaled.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	rootCmd.AddCommand(
		newInstallCmd(),
		newFetchCmd(),
		newVersionsCmd(),
		newCatalogCmd(),
	)

	return rootCmd
}

// usageError marks bad invocations so they exit with the usage code
// instead of a failure code.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exactArgs wraps cobra's validator so argument-count mistakes map to
// the usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

func setupSignals() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
