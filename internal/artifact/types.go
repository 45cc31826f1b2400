package artifact

import (
	"fmt"
	"strings"
)

// Kind classifies the payload of an artifact.
type Kind string

const (
	// KindScript is a directly executable installer script.
	KindScript Kind = "script"
	// KindArchive is a compressed archive containing the binary.
	KindArchive Kind = "archive"
	// KindBinary is a raw executable.
	KindBinary Kind = "binary"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// valid reports whether k is a known kind.
func (k Kind) valid() bool {
	switch k {
	case KindScript, KindArchive, KindBinary:
		return true
	}
	return false
}

// Template placeholders understood by URL templates.
const (
	placeholderVersion = "{version}"
	placeholderTarget  = "{target}"
	placeholderOS      = "{os}"
)

// Spec describes a downloadable artifact family. A Spec is immutable
// once it has passed Validate; resolution never mutates it.
type Spec struct {
	// Name identifies the artifact ("bore", "telebit", ...).
	Name string

	// Version is the default version installed when the caller does
	// not override it.
	Version string

	// Kind classifies the payload.
	Kind Kind

	// URLTemplate builds the download URL. It may reference {version},
	// {target}, and {os}.
	URLTemplate string

	// Targets maps normalized architectures to the release's target
	// spelling. May be empty for architecture-independent artifacts
	// (typically scripts), in which case {target} must not appear in
	// any template.
	Targets map[string]string

	// FallbackTarget, when non-empty, is used for architectures absent
	// from Targets. Resolution reports when the fallback was taken so
	// the decision is visible in logs. Empty means unmapped
	// architectures fail.
	FallbackTarget string

	// Member is the basename of the executable inside an archive.
	// Required for KindArchive.
	Member string

	// ChecksumURLTemplate, when non-empty, locates a SHA256 checksum
	// file for the release.
	ChecksumURLTemplate string

	// SignatureURLTemplate, when non-empty, locates a detached GPG
	// signature for the payload.
	SignatureURLTemplate string

	// ReleasesURL lists known releases. Used to suggest versions when
	// a requested one does not exist.
	ReleasesURL string

	// MaxSize caps the payload size in bytes. Zero means no ceiling.
	MaxSize int64

	// Interpreter runs KindScript payloads. Defaults to "sh".
	Interpreter string
}

// Validate checks structural consistency of the spec.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("artifact spec: name is required")
	}
	if !s.Kind.valid() {
		return fmt.Errorf("artifact %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.URLTemplate == "" {
		return fmt.Errorf("artifact %s: url template is required", s.Name)
	}
	if s.Kind == KindArchive && s.Member == "" {
		return fmt.Errorf("artifact %s: archive artifacts require a member name", s.Name)
	}
	if len(s.Targets) == 0 && s.FallbackTarget == "" {
		if strings.Contains(s.URLTemplate, placeholderTarget) {
			return fmt.Errorf("artifact %s: url template references {target} but no targets are defined", s.Name)
		}
	}
	for arch, target := range s.Targets {
		if target == "" {
			return fmt.Errorf("artifact %s: empty target for architecture %s", s.Name, arch)
		}
	}
	return nil
}

// InterpreterOrDefault returns the configured interpreter or "sh".
func (s *Spec) InterpreterOrDefault() string {
	if s.Interpreter != "" {
		return s.Interpreter
	}
	return "sh"
}

// UnsupportedArchError indicates the spec has no target for an
// architecture and declares no fallback.
type UnsupportedArchError struct {
	Artifact string
	Arch     string
}

func (e *UnsupportedArchError) Error() string {
	return fmt.Sprintf("artifact %s does not support architecture %s", e.Artifact, e.Arch)
}
