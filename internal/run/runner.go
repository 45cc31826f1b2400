// Package run orchestrates a full install run: resolve, probe,
// download, verify, confirm, install, journal. One Runner handles one
// artifact per invocation; the only shared state across concurrent
// processes is the install destination, which the install step locks.
package run

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/fetch"
	"github.com/relget/relget/internal/install"
	"github.com/relget/relget/internal/logging"
	"github.com/relget/relget/internal/platform"
	"github.com/relget/relget/internal/stage"
	"github.com/relget/relget/internal/verify"
)

// Options configures a single run.
type Options struct {
	Spec        *artifact.Spec
	Version     string // override; empty selects the spec default
	DestDir     string // install destination for binaries
	AssumeYes   bool
	KeyringPath string // GPG keyring for specs with a signature URL
	SelfVerify  bool   // run the installed binary with --version
	Force       bool   // reinstall even when the journal says done
	ScriptArgs  []string
}

// Result reports what a run did.
type Result struct {
	InstalledPath string
	Verified      verify.Method
	Skipped       bool // already installed at this version
	Steps         []Step
}

// Config wires a Runner's collaborators and directories.
type Config struct {
	CacheDir   string
	DataDir    string // journal location
	StagingDir string // parent for staging areas; empty uses the system temp dir
	Detector   platform.Detector
	Downloader *fetch.Downloader
	Installer  *install.Installer
	Gate       *Gate
	Logger     logging.Logger
}

// Runner executes install runs.
type Runner struct {
	cfg Config
	log logging.Logger
}

// NewRunner creates a runner, filling in default collaborators.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.NewDetector()
	}
	if cfg.Downloader == nil {
		cfg.Downloader = fetch.NewDownloader(cfg.CacheDir, fetch.WithLogger(cfg.Logger))
	}
	if cfg.Installer == nil {
		cfg.Installer = install.NewInstaller(cfg.Logger)
	}
	if cfg.Gate == nil {
		cfg.Gate = NewGate(false)
	}
	return &Runner{cfg: cfg, log: cfg.Logger}, nil
}

// Run performs the full fetch-verify-install flow for one artifact.
// The staging area is removed on every exit path, including
// cancellation; the download cache and the journal are the only
// persistent writes besides the installed artifact itself.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	spec := opts.Spec
	if spec == nil {
		return nil, fmt.Errorf("artifact spec is required")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := checkEnvironment(spec); err != nil {
		return nil, err
	}

	info, err := r.cfg.Detector.Detect(ctx)
	if err != nil {
		return nil, err
	}

	resolved, err := spec.Resolve(opts.Version, info.Arch, info.OS)
	if err != nil {
		return nil, err
	}
	if resolved.FellBack {
		r.log.Warn("architecture not mapped for artifact, using documented fallback target",
			"artifact", spec.Name, "arch", info.Arch, "target", resolved.Target)
	}

	record := NewRecord(spec.Name, resolved.Version)
	result := &Result{}

	outcome := OutcomeFailed
	defer func() {
		record.Outcome = outcome
		record.InstalledPath = result.InstalledPath
		record.Verified = result.Verified.String()
		if err := record.Save(r.cfg.DataDir); err != nil {
			r.log.Warn("failed to write journal record", "error", err)
		}
		result.Steps = record.Steps
	}()

	// Idempotence: an archive or raw binary already installed at this
	// version is done. Scripts always rerun; their effect lives outside
	// the destination directory.
	if !opts.Force && spec.Kind != artifact.KindScript {
		if prev, _ := LatestSuccess(r.cfg.DataDir, spec.Name); prev != nil &&
			prev.Version == resolved.Version && installedAt(prev.InstalledPath) {
			r.log.Info("already installed", "artifact", spec.Name, "version", resolved.Version,
				"path", prev.InstalledPath)
			record.AddStep("already-installed", prev.InstalledPath)
			result.InstalledPath = prev.InstalledPath
			result.Skipped = true
			outcome = OutcomeSuccess
			return result, nil
		}
	}

	if err := r.probe(ctx, record, resolved); err != nil {
		return nil, err
	}

	area, err := stage.New(r.cfg.StagingDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := area.Remove(); err != nil {
			r.log.Warn("failed to remove staging area", "path", area.Root(), "error", err)
		}
	}()
	record.AddStep("stage", area.Root())

	payloadPath, err := r.download(ctx, record, resolved, area)
	if err != nil {
		return nil, err
	}

	method, err := r.verify(ctx, record, resolved, payloadPath, opts.KeyringPath)
	if err != nil {
		return nil, err
	}
	result.Verified = method

	ok, err := r.cfg.Gate.Confirm(spec, payloadPath)
	if err != nil {
		return nil, err
	}
	if !ok {
		record.AddStep("confirm", "declined")
		outcome = OutcomeCancelled
		return nil, ErrCancelled
	}
	record.AddStep("confirm", "approved")

	switch spec.Kind {
	case artifact.KindScript:
		if err := r.cfg.Installer.RunScript(ctx, spec, payloadPath, opts.ScriptArgs...); err != nil {
			return nil, err
		}
		record.AddStep("execute", payloadPath)

	case artifact.KindArchive, artifact.KindBinary:
		destDir := opts.DestDir
		if destDir == "" {
			destDir = "."
		}
		installedPath, err := r.cfg.Installer.InstallBinary(ctx, spec, area, payloadPath, destDir)
		if err != nil {
			return nil, err
		}
		result.InstalledPath = installedPath
		record.AddStep("install", installedPath)

		if opts.SelfVerify {
			if err := r.cfg.Installer.SelfVerify(ctx, installedPath); err != nil {
				return nil, err
			}
			record.AddStep("self-verify", "ok")
		}
	}

	outcome = OutcomeSuccess
	return result, nil
}

// probe checks the resolved URL exists before committing to a full
// download, surfacing known versions when it does not.
func (r *Runner) probe(ctx context.Context, record *Record, resolved *artifact.Resolved) error {
	if err := r.cfg.Downloader.Probe(ctx, resolved.URL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		notFound := &VersionNotFoundError{
			Artifact: resolved.Spec.Name,
			Version:  resolved.Version,
			URL:      resolved.URL,
			Cause:    err,
		}
		if resolved.Spec.ReleasesURL != "" {
			if versions, listErr := r.cfg.Downloader.ListVersions(ctx, resolved.Spec.ReleasesURL); listErr == nil {
				notFound.Available = versions
			}
		}
		return notFound
	}
	record.AddStep("probe", resolved.URL)
	return nil
}

// download fetches the payload. Scripts go straight into staging and
// are fetched fresh every run; archives and binaries go through the
// version-keyed cache.
func (r *Runner) download(ctx context.Context, record *Record, resolved *artifact.Resolved, area *stage.Area) (string, error) {
	var payloadPath string
	if resolved.Spec.Kind == artifact.KindScript {
		payloadPath = area.Path(resolved.Filename())
		if err := r.cfg.Downloader.DownloadToFile(ctx, resolved.URL, payloadPath); err != nil {
			return "", err
		}
	} else {
		var err error
		payloadPath, err = r.cfg.Downloader.DownloadArtifact(ctx, resolved)
		if err != nil {
			return "", err
		}
	}
	record.AddStep("download", resolved.URL)
	return payloadPath, nil
}

// verify applies the integrity check and the strongest declared
// cryptographic verification. Failures are fatal; retrying would fetch
// identical bytes.
func (r *Runner) verify(ctx context.Context, record *Record, resolved *artifact.Resolved, payloadPath, keyringPath string) (verify.Method, error) {
	if err := verify.CheckIntegrity(payloadPath, resolved.Spec.Kind, resolved.Spec.MaxSize); err != nil {
		return verify.MethodNone, err
	}
	method := verify.MethodIntegrity
	record.AddStep("integrity", "ok")

	if resolved.ChecksumURL != "" {
		checksumPath, err := r.cfg.Downloader.DownloadSidecar(ctx, resolved, resolved.ChecksumURL)
		if err != nil {
			return method, fmt.Errorf("download checksums: %w", err)
		}
		if err := verify.VerifySHA256(payloadPath, checksumPath); err != nil {
			return method, err
		}
		method = verify.MethodSHA256
		record.AddStep("checksum", "ok")
	}

	if resolved.SignatureURL != "" && keyringPath != "" {
		sigPath, err := r.cfg.Downloader.DownloadSidecar(ctx, resolved, resolved.SignatureURL)
		if err != nil {
			return method, fmt.Errorf("download signature: %w", err)
		}
		if err := verify.VerifyGPG(payloadPath, sigPath, keyringPath); err != nil {
			return method, err
		}
		method = verify.MethodGPG
		record.AddStep("signature", "ok")
	}

	return method, nil
}

// checkEnvironment fails fast on hosts that cannot run the artifact's
// install path at all.
func checkEnvironment(spec *artifact.Spec) error {
	if runtime.GOOS == "windows" {
		return &EnvError{
			Missing: "POSIX environment",
			Hint:    "relget installs Linux/macOS artifacts only",
		}
	}
	if spec.Kind == artifact.KindScript {
		interpreter := spec.InterpreterOrDefault()
		if _, err := exec.LookPath(interpreter); err != nil {
			return &EnvError{
				Missing: interpreter,
				Hint:    fmt.Sprintf("install %s or set a different interpreter in the spec", interpreter),
			}
		}
	}
	return nil
}

// installedAt reports whether path exists and is an executable regular
// file.
func installedAt(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// DefaultDirs returns the cache, data, and staging directories under
// the user's standard locations.
func DefaultDirs() (cacheDir, dataDir, stagingDir string, err error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", "", "", fmt.Errorf("resolve cache dir: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", "", fmt.Errorf("resolve home dir: %w", err)
	}
	cacheDir = filepath.Join(base, "relget", "downloads")
	dataDir = filepath.Join(home, ".local", "share", "relget", "journal")
	stagingDir = filepath.Join(base, "relget", "staging")
	return cacheDir, dataDir, stagingDir, nil
}
