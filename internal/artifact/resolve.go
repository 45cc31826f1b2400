package artifact

import (
	"fmt"
	"strings"
)

// Resolved carries the concrete URLs for one version of an artifact on
// one architecture.
type Resolved struct {
	Spec         *Spec
	Version      string
	Target       string
	FellBack     bool // FallbackTarget was used for an unmapped arch
	URL          string
	ChecksumURL  string
	SignatureURL string
}

// Filename returns the basename the payload should be stored under.
func (r *Resolved) Filename() string {
	url := r.URL
	if i := strings.LastIndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	if i := strings.LastIndexByte(url, '/'); i >= 0 && i < len(url)-1 {
		return url[i+1:]
	}
	return r.Spec.Name
}

// ResolveTarget maps a normalized architecture to the spec's target
// spelling. The second return reports whether the documented fallback
// was taken; callers log that at warn level. An unmapped architecture
// without a fallback is an UnsupportedArchError, never a silent guess.
func (s *Spec) ResolveTarget(arch string) (string, bool, error) {
	if target, ok := s.Targets[arch]; ok {
		return target, false, nil
	}
	if s.FallbackTarget != "" {
		return s.FallbackTarget, true, nil
	}
	if len(s.Targets) == 0 && !strings.Contains(s.URLTemplate, placeholderTarget) {
		// Architecture-independent artifact.
		return "", false, nil
	}
	return "", false, &UnsupportedArchError{Artifact: s.Name, Arch: arch}
}

// Resolve produces the concrete download URLs for a version and
// architecture. An empty version selects the spec's default.
func (s *Spec) Resolve(version, arch, goos string) (*Resolved, error) {
	if version == "" {
		version = s.Version
	}
	if version == "" {
		return nil, fmt.Errorf("artifact %s: no version given and no default version", s.Name)
	}

	target, fellBack, err := s.ResolveTarget(arch)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Spec:     s,
		Version:  version,
		Target:   target,
		FellBack: fellBack,
		URL:      expand(s.URLTemplate, version, target, goos),
	}
	if s.ChecksumURLTemplate != "" {
		r.ChecksumURL = expand(s.ChecksumURLTemplate, version, target, goos)
	}
	if s.SignatureURLTemplate != "" {
		r.SignatureURL = expand(s.SignatureURLTemplate, version, target, goos)
	}
	return r, nil
}

// expand substitutes the template placeholders literally.
func expand(tmpl, version, target, goos string) string {
	return strings.NewReplacer(
		placeholderVersion, version,
		placeholderTarget, target,
		placeholderOS, goos,
	).Replace(tmpl)
}
