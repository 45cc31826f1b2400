package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/config"
	"github.com/relget/relget/internal/fetch"
	"github.com/relget/relget/internal/logging"
	"github.com/relget/relget/internal/platform"
	"github.com/relget/relget/internal/run"
)

// runtime bundles the wiring every subcommand needs: loaded settings,
// resolved directories, and the collaborators built from them.
type runtime struct {
	settings   *config.Settings
	log        logging.Logger
	detector   platform.Detector
	downloader *fetch.Downloader
	cacheDir   string
	dataDir    string
	stagingDir string
}

func newRuntime(verbose bool) (*runtime, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, err
	}

	log := logging.New(verbose || settings.Verbose)
	downloader := fetch.NewDownloader(filepath.Join(cacheDir, "downloads"),
		fetch.WithMaxAttempts(settings.MaxAttempts),
		fetch.WithBackoff(settings.Backoff()),
		fetch.WithTimeout(settings.Timeout()),
		fetch.WithLogger(log),
	)

	return &runtime{
		settings:   settings,
		log:        log,
		detector:   platform.NewDetector(),
		downloader: downloader,
		cacheDir:   cacheDir,
		dataDir:    filepath.Join(dataDir, "journal"),
		stagingDir: filepath.Join(cacheDir, "staging"),
	}, nil
}

func (rt *runtime) newRunner(gate *run.Gate) (*run.Runner, error) {
	if err := os.MkdirAll(rt.stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	if err := os.MkdirAll(rt.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return run.NewRunner(run.Config{
		CacheDir:   filepath.Join(rt.cacheDir, "downloads"),
		DataDir:    rt.dataDir,
		StagingDir: rt.stagingDir,
		Detector:   rt.detector,
		Downloader: rt.downloader,
		Gate:       gate,
		Logger:     rt.log,
	})
}

// loadSpec resolves an artifact name to its spec. An explicit Lua file
// wins, then Lua files in the configured spec dirs, then the built-in
// catalog.
func (rt *runtime) loadSpec(ctx context.Context, name, specFile string) (*artifact.Spec, error) {
	parser := artifact.NewLuaParser(rt.detector)

	if specFile != "" {
		return parser.ParseFile(ctx, specFile)
	}

	for _, dir := range rt.settings.SpecDirs {
		path := filepath.Join(dir, name+".lua")
		if _, err := os.Stat(path); err == nil {
			return parser.ParseFile(ctx, path)
		}
	}

	return artifact.Lookup(name)
}

// specDirSpecs parses every Lua spec in the configured dirs, skipping
// unreadable files with a warning. Used by the catalog listing.
func (rt *runtime) specDirSpecs(ctx context.Context) []*artifact.Spec {
	parser := artifact.NewLuaParser(rt.detector)

	var specs []*artifact.Spec
	for _, dir := range rt.settings.SpecDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			spec, err := parser.ParseFile(ctx, path)
			if err != nil {
				rt.log.Warn("skipping unparseable spec", "path", path, "error", err)
				continue
			}
			specs = append(specs, spec)
		}
	}
	return specs
}
