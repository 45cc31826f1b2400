package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/relget/relget/internal/platform"
)

func testDetector() platform.Detector {
	return &platform.Static{Info: platform.Info{
		OS:      "linux",
		Arch:    "amd64",
		ArchRaw: "amd64",
	}}
}

func TestLuaParserFullSpec(t *testing.T) {
	code := `
		artifact = {
			name = "bore",
			version = "0.6.0",
			kind = "archive",
			url = "https://github.com/ekzhang/bore/releases/download/v{version}/bore-v{version}-{target}.tar.gz",
			targets = {
				amd64 = "x86_64-unknown-linux-musl",
				arm64 = "aarch64-unknown-linux-musl",
			},
			member = "bore",
			releases_url = "https://api.github.com/repos/ekzhang/bore/releases",
			max_size = 10485760,
		}
	`

	parser := NewLuaParser(testDetector())
	spec, err := parser.ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if spec.Name != "bore" || spec.Kind != KindArchive {
		t.Errorf("unexpected spec: %+v", spec)
	}
	if spec.Targets["arm64"] != "aarch64-unknown-linux-musl" {
		t.Errorf("targets not extracted: %v", spec.Targets)
	}
	if spec.MaxSize != 10485760 {
		t.Errorf("max_size = %d, want 10485760", spec.MaxSize)
	}
}

func TestLuaParserUsesPlatformTable(t *testing.T) {
	code := `
		local url
		if platform.is_amd64 then
			url = "https://example.com/tool-x64.tar.gz"
		else
			url = "https://example.com/tool-other.tar.gz"
		end
		artifact = {
			name = "tool",
			version = "1.0.0",
			kind = "archive",
			url = url,
			member = "tool",
		}
	`

	parser := NewLuaParser(testDetector())
	spec, err := parser.ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.URLTemplate != "https://example.com/tool-x64.tar.gz" {
		t.Errorf("platform branch not taken: %s", spec.URLTemplate)
	}
}

func TestLuaParserMissingArtifactTable(t *testing.T) {
	parser := NewLuaParser(testDetector())
	_, err := parser.ParseString(context.Background(), `x = 1`)
	if err == nil {
		t.Fatal("expected error for missing artifact table")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T", err)
	}
}

func TestLuaParserSyntaxError(t *testing.T) {
	parser := NewLuaParser(testDetector())
	_, err := parser.ParseString(context.Background(), `artifact = {`)
	if err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestLuaParserInvalidSpec(t *testing.T) {
	// Archive kind without a member must be rejected at parse time.
	code := `
		artifact = {
			name = "tool",
			version = "1.0.0",
			kind = "archive",
			url = "https://example.com/tool.tar.gz",
		}
	`
	parser := NewLuaParser(testDetector())
	_, err := parser.ParseString(context.Background(), code)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLuaParserSandbox(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "os_removed", code: `artifact = { name = os.getenv("HOME") }`},
		{name: "io_removed", code: `artifact = { name = io.open("/etc/passwd") }`},
		{name: "require_removed", code: `local m = require("socket")`},
		{name: "dofile_removed", code: `dofile("/tmp/evil.lua")`},
	}

	parser := NewLuaParser(testDetector())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseString(context.Background(), tt.code)
			if err == nil {
				t.Error("sandboxed function should not be callable")
			}
		})
	}
}

func TestLuaParserParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.lua")
	code := `
		artifact = {
			name = "tool",
			version = "2.0.0",
			kind = "script",
			url = "https://example.com/install.sh",
		}
	`
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	parser := NewLuaParser(testDetector())
	spec, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if spec.Name != "tool" || spec.Version != "2.0.0" {
		t.Errorf("unexpected spec: %+v", spec)
	}

	if _, err := parser.ParseFile(context.Background(), filepath.Join(dir, "missing.lua")); err == nil {
		t.Error("expected error for missing file")
	}
}
