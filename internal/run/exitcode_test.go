package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/fetch"
	"github.com/relget/relget/internal/install"
	"github.com/relget/relget/internal/stage"
	"github.com/relget/relget/internal/verify"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"cancelled", ErrCancelled, ExitCancelled},
		{"wrapped cancelled", fmt.Errorf("run: %w", ErrCancelled), ExitCancelled},
		{"context cancelled", context.Canceled, ExitCancelled},
		{"env", &EnvError{Missing: "bash"}, ExitDependencyMissing},
		{"unsupported arch", &artifact.UnsupportedArchError{Artifact: "bore", Arch: "mips"}, ExitUnsupportedArch},
		{"exhausted", &fetch.ExhaustedError{URL: "https://example.invalid", Attempts: 3, Last: errors.New("timeout")}, ExitDownloadExhausted},
		{"integrity", &verify.IntegrityError{Path: "/tmp/x", Reason: "empty file"}, ExitIntegrity},
		{"missing member", &install.MissingMemberError{Archive: "tool.tar.gz", Member: "tool"}, ExitIntegrity},
		{"permission", fmt.Errorf("install: %w", os.ErrPermission), ExitPermission},
		{"permission with remedy", &stage.PermissionError{Path: "/usr/local/bin", Err: os.ErrPermission}, ExitPermission},
		{"exec", &install.ExecError{Command: "sh", ExitCode: 7}, ExitExecution},
		{"generic", errors.New("boom"), ExitFailure},
		{"wrapped exhausted", fmt.Errorf("fetch tool: %w", &fetch.ExhaustedError{URL: "u", Attempts: 3}), ExitDownloadExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
