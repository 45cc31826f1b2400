package stage

import (
	"errors"
	"fmt"
	"os"
)

// PermissionError indicates the destination rejected a write. The
// message names the ways out: elevate privileges or pick a destination
// the current user can write to.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied writing %s: %v (retry with elevated privileges, or choose a user-writable destination with --dest)",
		e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// WrapPermission converts a permission-denied failure on path into a
// PermissionError carrying the remediation hint. Other errors pass
// through unchanged.
func WrapPermission(path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrPermission) {
		return &PermissionError{Path: path, Err: err}
	}
	return err
}
