package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relget/relget/internal/testutil"
)

func TestNewRootCmd(t *testing.T) {
	rootCmd := newRootCmd()

	assert.Equal(t, "relget", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmdHelp(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"--help"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "install")
	assert.Contains(t, output, "fetch")
	assert.Contains(t, output, "versions")
	assert.Contains(t, output, "catalog")
}

func TestMissingArgumentIsUsageError(t *testing.T) {
	for _, sub := range []string{"install", "fetch", "versions"} {
		t.Run(sub, func(t *testing.T) {
			rootCmd := newRootCmd()
			rootCmd.SetArgs([]string{sub})
			rootCmd.SetOut(&bytes.Buffer{})
			rootCmd.SetErr(&bytes.Buffer{})

			err := rootCmd.Execute()
			require.Error(t, err)

			var usageErr *usageError
			assert.True(t, errors.As(err, &usageErr), "error %v is not a usage error", err)
		})
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"catalog", "--no-such-flag"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()
	require.Error(t, err)

	var usageErr *usageError
	assert.True(t, errors.As(err, &usageErr), "error %v is not a usage error", err)
}

func TestCatalogCmdListsBuiltins(t *testing.T) {
	testutil.SetupTestEnv(t)

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"catalog"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "bore")
	assert.Contains(t, output, "localtonet")
	assert.Contains(t, output, "telebit")
	assert.Contains(t, output, "metasploit")
	assert.Contains(t, output, "builtin")
}

func TestCatalogCmdIncludesSpecDirEntries(t *testing.T) {
	tmpDir := testutil.SetupTestEnv(t)

	spec := `
artifact = {
  name = "mytool",
  version = "2.0.0",
  kind = "archive",
  url = "https://example.invalid/mytool-{version}-{target}.tar.gz",
  targets = { amd64 = "x86_64-linux" },
  member = "mytool",
}
`
	specPath := filepath.Join(tmpDir, "config", "specs", "mytool.lua")
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"catalog"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "mytool")
	assert.Contains(t, output, "spec-dir")
}

func TestVersionsCmdListsReleases(t *testing.T) {
	tmpDir := testutil.SetupTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"tag_name":"v0.6.0"},{"tag_name":"v0.5.2"},{"tag_name":"v0.5.1"}]`)
	}))
	defer server.Close()

	spec := fmt.Sprintf(`
artifact = {
  name = "mytool",
  version = "0.6.0",
  kind = "archive",
  url = "https://example.invalid/mytool-{version}-{target}.tar.gz",
  targets = { amd64 = "x86_64-linux" },
  member = "mytool",
  releases_url = %q,
}
`, server.URL)
	specPath := filepath.Join(tmpDir, "specs", "mytool.lua")
	require.NoError(t, os.MkdirAll(filepath.Dir(specPath), 0o755))
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"versions", "mytool", "--spec", specPath, "--limit", "2"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "* 0.6.0")
	assert.Contains(t, output, "0.5.2")
	assert.NotContains(t, output, "0.5.1")
}

func TestVersionsCmdWithoutReleasesEndpoint(t *testing.T) {
	tmpDir := testutil.SetupTestEnv(t)

	spec := `
artifact = {
  name = "mytool",
  version = "1.0.0",
  kind = "script",
  url = "https://example.invalid/setup.sh",
}
`
	specPath := filepath.Join(tmpDir, "mytool.lua")
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"versions", "mytool", "--spec", specPath})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "releases endpoint")
}

func TestInstallCmdUnknownArtifact(t *testing.T) {
	testutil.SetupTestEnv(t)

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"install", "no-such-artifact"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-artifact")
}
