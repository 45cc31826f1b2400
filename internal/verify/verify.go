// Package verify validates downloaded artifacts before anything is
// allowed to execute or install them.
//
// Validation layers, weakest to strongest:
//
//  1. Structural integrity: the payload is non-empty, within its size
//     ceiling, and looks like what the spec says it is (shebang for
//     scripts, openable archive for archives). Always performed.
//  2. SHA256 checksum, when the spec publishes a checksum file.
//  3. Detached GPG signature, when the spec publishes one and a
//     keyring is available.
//
// Integrity failures are fatal and never retried: the same source would
// serve the same corrupt bytes again.
package verify

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/relget/relget/internal/artifact"
)

// Method indicates the strongest verification applied to an artifact.
type Method int

const (
	// MethodNone indicates no verification (never reaches the installer).
	MethodNone Method = iota
	// MethodIntegrity indicates only structural checks passed.
	MethodIntegrity
	// MethodSHA256 indicates checksum verification was performed.
	MethodSHA256
	// MethodGPG indicates signature verification was performed.
	MethodGPG
)

// String returns the string representation of the method.
func (m Method) String() string {
	switch m {
	case MethodIntegrity:
		return "integrity"
	case MethodSHA256:
		return "SHA256"
	case MethodGPG:
		return "GPG"
	case MethodNone:
		return "none"
	default:
		return "unknown"
	}
}

// IntegrityError indicates a downloaded artifact failed validation.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: %s", e.Path, e.Reason)
}

// CheckIntegrity performs the structural checks for a payload of the
// given kind.
func CheckIntegrity(path string, kind artifact.Kind, maxSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	if info.Size() == 0 {
		return &IntegrityError{Path: path, Reason: "file is empty"}
	}
	if maxSize > 0 && info.Size() > maxSize {
		return &IntegrityError{
			Path:   path,
			Reason: fmt.Sprintf("size %d exceeds ceiling %d", info.Size(), maxSize),
		}
	}

	switch kind {
	case artifact.KindScript:
		return checkScript(path)
	case artifact.KindArchive:
		return checkArchive(path)
	case artifact.KindBinary:
		return nil
	default:
		return fmt.Errorf("unknown artifact kind: %s", kind)
	}
}

// checkScript requires the interpreter marker at the start of the file.
// Error pages saved as scripts are the classic failure this catches.
func checkScript(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	head := make([]byte, 2)
	if _, err := io.ReadFull(f, head); err != nil {
		return &IntegrityError{Path: path, Reason: "too short to contain an interpreter marker"}
	}
	if !bytes.Equal(head, []byte("#!")) {
		return &IntegrityError{Path: path, Reason: "missing #! interpreter marker"}
	}
	return nil
}

// checkArchive requires the archive to be structurally openable.
func checkArchive(path string) error {
	switch {
	case strings.HasSuffix(path, ".tar.gz") || strings.HasSuffix(path, ".tgz"):
		return checkTarGz(path)
	case strings.HasSuffix(path, ".zip"):
		return checkZip(path)
	default:
		// No extension hint; accept whichever format opens.
		if checkTarGz(path) == nil || checkZip(path) == nil {
			return nil
		}
		return &IntegrityError{Path: path, Reason: "not a recognized archive format"}
	}
}

func checkTarGz(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return &IntegrityError{Path: path, Reason: fmt.Sprintf("gzip does not open: %v", err)}
	}
	defer gz.Close()

	if _, err := tar.NewReader(gz).Next(); err != nil {
		return &IntegrityError{Path: path, Reason: fmt.Sprintf("tar does not open: %v", err)}
	}
	return nil
}

func checkZip(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return &IntegrityError{Path: path, Reason: fmt.Sprintf("zip does not open: %v", err)}
	}
	r.Close()
	return nil
}
