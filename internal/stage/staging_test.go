package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAreaCreateAndRemove(t *testing.T) {
	parent := t.TempDir()

	area, err := New(parent)
	if err != nil {
		t.Fatalf("create area: %v", err)
	}

	if _, err := os.Stat(area.Root()); err != nil {
		t.Fatalf("staging root does not exist: %v", err)
	}

	// Populate with nested content to prove recursive removal.
	nested := area.Path("extracted", "bin")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "tool"), []byte("binary"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := area.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := os.Stat(area.Root()); !os.IsNotExist(err) {
		t.Error("staging root still exists after Remove")
	}

	// The parent must hold no residue from this area.
	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatalf("read parent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging residue left in parent: %v", entries)
	}
}

func TestAreaRemoveIdempotent(t *testing.T) {
	area, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	if err := area.Remove(); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if err := area.Remove(); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestAreaPath(t *testing.T) {
	area, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	defer area.Remove()

	got := area.Path("a", "b")
	want := filepath.Join(area.Root(), "a", "b")
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestAreaIsolation(t *testing.T) {
	parent := t.TempDir()

	a1, err := New(parent)
	if err != nil {
		t.Fatalf("create first area: %v", err)
	}
	defer a1.Remove()

	a2, err := New(parent)
	if err != nil {
		t.Fatalf("create second area: %v", err)
	}
	defer a2.Remove()

	if a1.Root() == a2.Root() {
		t.Error("two staging areas share a root")
	}
}

func TestLockDestExclusive(t *testing.T) {
	dest := t.TempDir()

	l1, err := LockDest(context.Background(), dest)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := LockDest(ctx, dest); err == nil {
		t.Error("second lock on the same destination should not succeed while held")
	}

	if err := l1.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	l2, err := LockDest(context.Background(), dest)
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	if err := l2.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}

func TestUnlockKeepsLockFile(t *testing.T) {
	dest := t.TempDir()

	l, err := LockDest(context.Background(), dest)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	// Unlinking the file would let a waiter on the old inode and a
	// newcomer on a fresh file hold the lock at once.
	if _, err := os.Stat(filepath.Join(dest, ".relget.lock")); err != nil {
		t.Errorf("lock file removed on unlock: %v", err)
	}

	l2, err := LockDest(context.Background(), dest)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	if err := l2.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}

func TestLockDestUnwritableDestination(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0o555); err != nil {
		t.Fatalf("chmod parent: %v", err)
	}
	t.Cleanup(func() { os.Chmod(parent, 0o755) })

	_, err := LockDest(context.Background(), filepath.Join(parent, "dest"))
	if err == nil {
		t.Fatal("lock into an unwritable destination succeeded")
	}

	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("error = %v, want PermissionError", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("PermissionError does not unwrap to os.ErrPermission")
	}
	if !strings.Contains(err.Error(), "user-writable destination") {
		t.Errorf("error %q names no way out", err.Error())
	}
}

func TestWrapPermissionPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("disk on fire")
	if got := WrapPermission("/x", plain); got != plain {
		t.Errorf("WrapPermission rewrote a non-permission error: %v", got)
	}
	if got := WrapPermission("/x", nil); got != nil {
		t.Errorf("WrapPermission(nil) = %v", got)
	}
}

func TestLockDestCreatesDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "not", "yet", "there")

	l, err := LockDest(context.Background(), dest)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer l.Unlock()

	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination was not created: %v", err)
	}
}
