// Package install places validated artifacts on the system: it runs
// installer scripts and copies binaries out of archives into a
// destination directory.
//
// Nothing in this package retries. By the time an artifact reaches the
// installer it has passed integrity checks, so a failure here is an
// environment problem (missing privilege, missing shared library) that
// retrying cannot fix; it is surfaced once with enough detail to act on.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/logging"
	"github.com/relget/relget/internal/stage"
)

// MissingMemberError indicates the expected binary was not found inside
// an archive.
type MissingMemberError struct {
	Archive string
	Member  string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("member %q not found in archive %s", e.Member, e.Archive)
}

// ExecError indicates a script or self-verification run exited
// non-zero.
type ExecError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Command, e.ExitCode)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Installer executes scripts and installs binaries.
type Installer struct {
	log logging.Logger
}

// NewInstaller creates an installer.
func NewInstaller(log logging.Logger) *Installer {
	if log == nil {
		log = logging.Discard()
	}
	return &Installer{log: log}
}

// RunScript marks a staged script executable and runs it with the
// spec's interpreter, inheriting stdio so the script can interact with
// the terminal. The script's exit status is propagated as an ExecError.
func (i *Installer) RunScript(ctx context.Context, spec *artifact.Spec, scriptPath string, args ...string) error {
	if err := SetExecutable(scriptPath); err != nil {
		return err
	}

	interpreter := spec.InterpreterOrDefault()
	i.log.Info("executing installer script",
		"artifact", spec.Name, "interpreter", interpreter, "path", scriptPath)

	cmd := exec.CommandContext(ctx, interpreter, append([]string{scriptPath}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecError{
				Command:  fmt.Sprintf("%s %s", interpreter, scriptPath),
				ExitCode: exitErr.ExitCode(),
				Err:      err,
			}
		}
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}

// InstallBinary installs a staged payload into destDir under the
// artifact's name. For archives the expected member is extracted first;
// raw binaries are copied as-is. The destination is locked for the
// duration, and the binary lands under a temporary name before an
// atomic rename, so a concurrent reader never sees a partial
// executable.
func (i *Installer) InstallBinary(ctx context.Context, spec *artifact.Spec, area *stage.Area, payloadPath, destDir string) (string, error) {
	staged := area.Path(spec.Name)

	switch spec.Kind {
	case artifact.KindArchive:
		if err := ExtractMember(payloadPath, staged, spec.Member); err != nil {
			return "", err
		}
	case artifact.KindBinary:
		if err := copyFile(payloadPath, staged, 0o755); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("artifact kind %s does not install a binary", spec.Kind)
	}

	lock, err := stage.LockDest(ctx, destDir)
	if err != nil {
		return "", err
	}
	defer lock.Unlock()

	destPath := filepath.Join(destDir, spec.Name)
	tmpPath := destPath + ".partial"
	if err := copyFile(staged, tmpPath, 0o755); err != nil {
		return "", stage.WrapPermission(destDir, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", stage.WrapPermission(destDir, fmt.Errorf("rename into destination: %w", err))
	}

	i.log.Info("installed binary", "artifact", spec.Name, "path", destPath)
	return destPath, nil
}

// SelfVerify runs the installed binary with --version to confirm it
// executes on this host. Failure means an environment problem (wrong
// architecture slipped through, missing shared library), reported
// without retry.
func (i *Installer) SelfVerify(ctx context.Context, binaryPath string) error {
	cmd := exec.CommandContext(ctx, binaryPath, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExecError{
				Command:  binaryPath + " --version",
				ExitCode: exitErr.ExitCode(),
				Err:      err,
			}
		}
		return fmt.Errorf("self-verify %s: %w", binaryPath, err)
	}
	i.log.Debug("self-verify ok", "binary", binaryPath, "output", string(out))
	return nil
}

// copyFile copies src to dst with the given mode.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy contents: %w", err)
	}
	return out.Close()
}
