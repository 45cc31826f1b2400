package run

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a run stopped by the user, either by declining the
// confirmation gate or by interrupt. It is a clean outcome: cleanup has
// run, nothing was installed, and the exit code is distinct from
// genuine failures.
var ErrCancelled = errors.New("cancelled by user")

// EnvError indicates the host is missing something the run needs before
// any network activity: a required tool, an unsupported OS. Never
// retried; the hint tells the user what to change.
type EnvError struct {
	Missing string
	Hint    string
}

func (e *EnvError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("environment error: %s", e.Missing)
	}
	return fmt.Sprintf("environment error: %s (%s)", e.Missing, e.Hint)
}

// VersionNotFoundError indicates the resolved URL does not exist. It
// carries the versions the releases endpoint knows about so the caller
// can self-correct.
type VersionNotFoundError struct {
	Artifact  string
	Version   string
	URL       string
	Available []string
	Cause     error
}

func (e *VersionNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s version %s not found at %s: %v", e.Artifact, e.Version, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s version %s not found at %s (known versions: %v)",
		e.Artifact, e.Version, e.URL, e.Available)
}

func (e *VersionNotFoundError) Unwrap() error {
	return e.Cause
}
