package install

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func buildTarGz(t *testing.T, dir, name string, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for member, content := range files {
		hdr := &tar.Header{Name: member, Mode: 0o755, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write(content); err != nil {
			t.Fatalf("write member: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return path
}

func buildZip(t *testing.T, dir, name string, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for member, content := range files {
		w, err := zw.Create(member)
		if err != nil {
			t.Fatalf("create member: %v", err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("write member: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestExtractMemberTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := buildTarGz(t, dir, "bore.tar.gz", map[string][]byte{
		"README.md": []byte("docs"),
		"bore":      []byte("the binary"),
	})

	destPath := filepath.Join(dir, "out", "bore")
	if err := ExtractMember(archive, destPath, "bore"); err != nil {
		t.Fatalf("extract: %v", err)
	}

	content, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if string(content) != "the binary" {
		t.Errorf("content = %q", content)
	}

	info, _ := os.Stat(destPath)
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("extracted member is not executable")
	}
}

func TestExtractMemberNestedPath(t *testing.T) {
	dir := t.TempDir()
	archive := buildTarGz(t, dir, "tool.tar.gz", map[string][]byte{
		"tool-v1.0.0-linux/bin/tool": []byte("nested binary"),
	})

	destPath := filepath.Join(dir, "tool")
	if err := ExtractMember(archive, destPath, "tool"); err != nil {
		t.Fatalf("extract by basename: %v", err)
	}
}

func TestExtractMemberZip(t *testing.T) {
	dir := t.TempDir()
	archive := buildZip(t, dir, "localtonet.zip", map[string][]byte{
		"localtonet": []byte("zip binary"),
	})

	destPath := filepath.Join(dir, "localtonet")
	if err := ExtractMember(archive, destPath, "localtonet"); err != nil {
		t.Fatalf("extract: %v", err)
	}

	content, _ := os.ReadFile(destPath)
	if string(content) != "zip binary" {
		t.Errorf("content = %q", content)
	}
}

func TestExtractMemberMissing(t *testing.T) {
	dir := t.TempDir()
	archive := buildTarGz(t, dir, "tool.tar.gz", map[string][]byte{
		"other": []byte("not it"),
	})

	err := ExtractMember(archive, filepath.Join(dir, "tool"), "tool")
	if err == nil {
		t.Fatal("expected missing member error")
	}

	var missing *MissingMemberError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingMemberError, got %T: %v", err, err)
	}
	if missing.Member != "tool" {
		t.Errorf("member = %q, want %q", missing.Member, "tool")
	}
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	archive := buildTarGz(t, dir, "bundle.tar.gz", map[string][]byte{
		"bin/tool":  []byte("binary"),
		"share/doc": []byte("docs"),
	})

	destDir := filepath.Join(dir, "out")
	if err := ExtractAll(archive, destDir); err != nil {
		t.Fatalf("extract all: %v", err)
	}

	for _, rel := range []string{"bin/tool", "share/doc"} {
		if _, err := os.Stat(filepath.Join(destDir, rel)); err != nil {
			t.Errorf("missing extracted file %s: %v", rel, err)
		}
	}
}

func TestExtractAllRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := buildTarGz(t, dir, "evil.tar.gz", map[string][]byte{
		"../escape": []byte("evil"),
	})

	if err := ExtractAll(archive, filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected path traversal rejection")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the destination")
	}
}

func TestSetExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := SetExecutable(path); err != nil {
		t.Fatalf("set executable: %v", err)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}
