package run

import (
	"context"
	"errors"
	"os"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/fetch"
	"github.com/relget/relget/internal/install"
	"github.com/relget/relget/internal/stage"
	"github.com/relget/relget/internal/verify"
)

// Process exit codes. Scripts wrapping relget rely on these staying
// stable, so they distinguish every failure class the flow can hit.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitUsage             = 2
	ExitDependencyMissing = 10
	ExitUnsupportedArch   = 11
	ExitDownloadExhausted = 12
	ExitIntegrity         = 13
	ExitPermission        = 14
	ExitExecution         = 15
	ExitCancelled         = 20
)

// ExitCode maps an error from a run to its process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return ExitCancelled
	}

	var envErr *EnvError
	if errors.As(err, &envErr) {
		return ExitDependencyMissing
	}

	var archErr *artifact.UnsupportedArchError
	if errors.As(err, &archErr) {
		return ExitUnsupportedArch
	}

	var exhausted *fetch.ExhaustedError
	if errors.As(err, &exhausted) {
		return ExitDownloadExhausted
	}

	// A member missing from an archive is corrupt content, not an
	// execution failure.
	var integrityErr *verify.IntegrityError
	var missingMember *install.MissingMemberError
	if errors.As(err, &integrityErr) || errors.As(err, &missingMember) {
		return ExitIntegrity
	}

	var permErr *stage.PermissionError
	if errors.As(err, &permErr) || errors.Is(err, os.ErrPermission) {
		return ExitPermission
	}

	var execErr *install.ExecError
	if errors.As(err, &execErr) {
		return ExitExecution
	}

	return ExitFailure
}
