package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/asset-sync/internal/config"
	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
	"github.com/oshokin/asset-sync/internal/report"
	"github.com/oshokin/asset-sync/internal/repository/versions"
	"github.com/oshokin/asset-sync/internal/service/archive"
	"github.com/oshokin/asset-sync/internal/service/release"
	"github.com/oshokin/asset-sync/internal/service/transport"
)

var errInvalidLogLevel = errors.New("invalid log level")

// ReportedError marks failures that were already summarized to the reporting sink.
type ReportedError struct {
	Err error
}

// Error implements the error interface.
func (e *ReportedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying failure.
func (e *ReportedError) Unwrap() error {
	return e.Err
}

func reported(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return &ReportedError{Err: errors.Join(errs...)}
}

// Options are the command-line inputs shared by the sync, check and status commands.
type Options struct {
	ConfigPath string    // Explicit configuration file; empty means lookup.
	Assets     []string  // Asset names to process; empty means all configured assets.
	Force      bool      // Reinstall regardless of the stored tag.
	Verbose    bool      // Mirror the durable log to stderr.
	LogLevel   string    // Minimum log level; empty means info.
	Out        io.Writer // Reporting output; nil means stdout with terminal detection.
}

// Run syncs the selected assets and is the public entry point for the CLI.
// Every asset is attempted; the returned error joins the failures.
func Run(ctx context.Context, opts *Options) error {
	cfg, cfgPath, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	names, err := selectAssets(cfg, opts.Assets)
	if err != nil {
		return err
	}

	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		return err
	}

	logPath := cfg.Resolve(cfg.LogFile)

	fileLogger, closeLog, err := logger.OpenFile(logger.FileOptions{
		Path:    logPath,
		Level:   level,
		Verbose: opts.Verbose,
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = closeLog()
	}()

	ctx = logger.WithName(logger.ToContext(ctx, fileLogger), "asset-sync")
	logConfigSource(ctx, cfgPath)

	sink := report.WithLog(newConsole(opts.Out, logPath))
	sink.Stage(ctx, "Starting...")

	var errs []error

	for _, name := range names {
		s, buildErr := FromConfig(cfg, name, sink, opts.Force)
		if buildErr != nil {
			sink.Failure(ctx, buildErr)
			errs = append(errs, buildErr)

			continue
		}

		if _, err = s.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))

			if errors.Is(err, asset.ErrAlreadyRunning) {
				break
			}
		}
	}

	return reported(errs)
}

// Check reports, for every selected asset, whether an update is available. It writes nothing.
func Check(ctx context.Context, opts *Options) error {
	cfg, cfgPath, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	names, err := selectAssets(cfg, opts.Assets)
	if err != nil {
		return err
	}

	level, err := parseLevel(opts.LogLevel)
	if err != nil {
		return err
	}

	// Without the durable log, diagnostics go to stderr only when asked for.
	if !opts.Verbose && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	logger.SetLevel(level)

	ctx = logger.WithName(ctx, "asset-sync")
	logConfigSource(ctx, cfgPath)

	sink := report.WithLog(newConsole(opts.Out, ""))

	var errs []error

	for _, name := range names {
		s, buildErr := FromConfig(cfg, name, sink, opts.Force)
		if buildErr != nil {
			sink.Failure(ctx, buildErr)
			errs = append(errs, buildErr)

			continue
		}

		if _, err = s.Check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return reported(errs)
}

// TreeStatus describes one installed tree.
type TreeStatus struct {
	Asset      string
	Tag        string
	Platform   string
	InstallDir string
	State      string
}

// Status lists the stored tag and installed tree state of every platform of the selected
// assets. It performs no network access and writes nothing.
func Status(ctx context.Context, opts *Options) ([]TreeStatus, error) {
	cfg, _, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	names, err := selectAssets(cfg, opts.Assets)
	if err != nil {
		return nil, err
	}

	record, err := versions.NewFileRepository(cfg.Resolve(cfg.VersionFile), cfg.AssetNames()...).Load(ctx)
	if err != nil {
		return nil, err
	}

	var rows []TreeStatus

	for _, name := range names {
		a, lookupErr := cfg.Asset(name)
		if lookupErr != nil {
			return nil, lookupErr
		}

		for _, platform := range cfg.Platforms(a) {
			rows = append(rows, TreeStatus{
				Asset:      name,
				Tag:        record.Tag(name),
				Platform:   platform.Name,
				InstallDir: platform.InstallDir,
				State:      TreeState(platform.InstallDir),
			})
		}
	}

	return rows, nil
}

// FromConfig wires a Syncer for the named asset with the production components.
func FromConfig(cfg *config.Config, name string, sink report.Sink, force bool) (*Syncer, error) {
	a, err := cfg.Asset(name)
	if err != nil {
		return nil, err
	}

	compare, err := asset.ComparatorFor(a.Compare)
	if err != nil {
		return nil, err
	}

	httpClient := transport.NewHTTPClient(cfg.Timeout.Std())

	locator, err := release.New(cfg, a, httpClient)
	if err != nil {
		return nil, err
	}

	tempDir := ""
	if cfg.TempDir != "" {
		tempDir = cfg.Resolve(cfg.TempDir)
	}

	return New(Params{
		Name:        a.Name,
		Format:      a.Format,
		Payload:     a.Payload,
		Platforms:   cfg.Platforms(a),
		Compare:     compare,
		Force:       force,
		Concurrency: cfg.Concurrency,
		TempDir:     tempDir,
		Store:       versions.NewFileRepository(cfg.Resolve(cfg.VersionFile), cfg.AssetNames()...),
		Locator:     locator,
		Downloader:  transport.NewDownloader(httpClient, sink),
		Installer:   archive.NewInstaller(sink),
		Marker:      NewMarker(filepath.Join(cfg.Resolve("."), MarkerFilename)),
		Sink:        sink,
	})
}

func selectAssets(cfg *config.Config, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return cfg.AssetNames(), nil
	}

	for _, name := range requested {
		if _, err := cfg.Asset(name); err != nil {
			return nil, err
		}
	}

	return requested, nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	if raw == "" {
		return zapcore.InfoLevel, nil
	}

	level, ok := logger.ParseLogLevel(raw)
	if !ok {
		return zapcore.InfoLevel, fmt.Errorf("%q: %w", raw, errInvalidLogLevel)
	}

	return level, nil
}

func newConsole(out io.Writer, logPath string) *report.Console {
	if out == nil {
		return report.NewConsole(logPath)
	}

	return report.NewConsoleWriter(out, false, logPath)
}

func logConfigSource(ctx context.Context, path string) {
	if path == "" {
		logger.Info(ctx, "No configuration file found, using built-in presets")
		return
	}

	logger.InfoKV(ctx, "Configuration loaded", "path", path)
}
