// Package stage provides the exclusively-owned temporary workspace an
// install run uses for downloaded and extracted files, plus the
// exclusive lock held on the destination during the install step.
//
// An Area is registered for removal at creation; callers defer Remove
// immediately, so cleanup runs on every exit path (normal return, fatal
// error, or interrupt-driven context cancellation). No run leaves files
// behind under its staging root.
package stage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Area is an exclusively-owned temporary directory.
type Area struct {
	root    string
	removed bool
}

// New creates a staging area under parent. An empty parent uses the
// system temp directory.
func New(parent string) (*Area, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("create staging parent: %w", err)
		}
	}
	root, err := os.MkdirTemp(parent, "relget-stage-*")
	if err != nil {
		return nil, fmt.Errorf("create staging area: %w", err)
	}
	return &Area{root: root}, nil
}

// Root returns the staging directory path.
func (a *Area) Root() string {
	return a.root
}

// Path joins elements onto the staging root.
func (a *Area) Path(elem ...string) string {
	return filepath.Join(append([]string{a.root}, elem...)...)
}

// Remove deletes the staging area and everything in it. Safe to call
// more than once.
func (a *Area) Remove() error {
	if a.removed {
		return nil
	}
	if err := os.RemoveAll(a.root); err != nil {
		return fmt.Errorf("remove staging area: %w", err)
	}
	a.removed = true
	return nil
}
