package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/asset-sync/internal/domain/asset"
	"github.com/oshokin/asset-sync/internal/logger"
	"github.com/oshokin/asset-sync/internal/report"
	"github.com/oshokin/asset-sync/internal/repository/versions"
	"github.com/oshokin/asset-sync/internal/service/archive"
)

var errMissingDependency = errors.New("missing dependency")

// Locator resolves upstream tags and their download URLs.
type Locator interface {
	LatestTag(ctx context.Context) (string, error)
	AssetsForTag(ctx context.Context, tag string) (map[string]string, error)
}

// Downloader fetches one URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest, title string) (int64, error)
}

// Installer makes a downloaded archive the installed tree of a platform.
type Installer interface {
	Install(ctx context.Context, job *archive.Job) error
}

// Params holds everything a Syncer needs for one asset.
type Params struct {
	// Name is the asset key in the version record.
	Name string
	// Format is the archive format; empty means detect per URL.
	Format string
	// Payload is the glob of the subtree to install.
	Payload string
	// Platforms lists the targets, each owning one installed tree.
	Platforms []asset.Platform
	// Compare orders tags; nil means lexical.
	Compare asset.TagComparator
	// Force treats the asset as never installed.
	Force bool
	// Concurrency above one downloads platforms in parallel. Installs stay sequential.
	Concurrency int
	// TempDir is the parent of the per-run download directory; empty means the OS default.
	TempDir string

	Store      versions.Repository
	Locator    Locator
	Downloader Downloader
	Installer  Installer
	Marker     *Marker
	Sink       report.Sink
}

// Syncer runs the sync pipeline for one asset.
type Syncer struct {
	p Params
}

// New validates p and returns a Syncer.
func New(p Params) (*Syncer, error) {
	switch {
	case p.Store == nil:
		return nil, fmt.Errorf("version store: %w", errMissingDependency)
	case p.Locator == nil:
		return nil, fmt.Errorf("locator: %w", errMissingDependency)
	case p.Downloader == nil:
		return nil, fmt.Errorf("downloader: %w", errMissingDependency)
	case p.Installer == nil:
		return nil, fmt.Errorf("installer: %w", errMissingDependency)
	}

	if p.Compare == nil {
		p.Compare = asset.LexicalCompare
	}

	if p.Sink == nil {
		p.Sink = report.Discard
	}

	if p.Concurrency <= 0 {
		p.Concurrency = 1
	}

	if len(p.Platforms) == 0 {
		return nil, fmt.Errorf("platforms of %s: %w", p.Name, errMissingDependency)
	}

	return &Syncer{p: p}, nil
}

// Run executes the pipeline. On failure the error is also reported to the sink and the
// returned Result ends in StateFailed; the version record is left untouched.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	ctx = logger.WithKV(ctx, "asset", s.p.Name)

	result := &Result{Asset: s.p.Name}

	if err := s.run(ctx, result); err != nil {
		result.enter(StateFailed)
		s.p.Sink.Failure(ctx, err)

		return result, err
	}

	return result, nil
}

// Check resolves the remote tag and reports whether an update is pending without
// writing anything. The Result ends in StateUpToDate or StateUpdating.
func (s *Syncer) Check(ctx context.Context) (*Result, error) {
	ctx = logger.WithKV(ctx, "asset", s.p.Name)

	result := &Result{Asset: s.p.Name}
	result.enter(StateStart)

	needed, err := s.checkVersion(ctx, result)
	if err != nil {
		result.enter(StateFailed)
		s.p.Sink.Failure(ctx, err)

		return result, err
	}

	if !needed {
		result.enter(StateUpToDate)
		s.p.Sink.Success(ctx, "%s is at the latest version (%s).", s.p.Name, result.LocalTag)

		return result, nil
	}

	result.enter(StateUpdating)

	switch {
	case result.LocalTag == asset.NeverInstalled:
		s.p.Sink.Stage(ctx, "%s is not installed, %s is available.", s.p.Name, result.RemoteTag)
	case result.Repair && !asset.IsNewer(result.LocalTag, result.RemoteTag, s.p.Compare):
		s.p.Sink.Stage(ctx, "%s needs a reinstall of %s.", s.p.Name, result.RemoteTag)
	default:
		s.p.Sink.Stage(ctx, "%s can be updated from %s to %s.", s.p.Name, result.LocalTag, result.RemoteTag)
	}

	return result, nil
}

func (s *Syncer) run(ctx context.Context, result *Result) error {
	result.enter(StateStart)

	needed, err := s.checkVersion(ctx, result)
	if err != nil {
		return err
	}

	if !needed {
		result.enter(StateUpToDate)
		logger.Info(ctx, "Nothing to do")
		s.p.Sink.Success(ctx, "Already at the latest version.")
		result.enter(StateDone)

		return nil
	}

	result.enter(StateUpdating)
	s.p.Sink.Stage(ctx, "Updating to %s.", result.RemoteTag)

	if s.p.Marker != nil {
		if err = s.p.Marker.Acquire(ctx); err != nil {
			return err
		}

		defer s.p.Marker.Release(ctx)
	}

	runDir, err := os.MkdirTemp(s.p.TempDir, "asset-sync-"+s.p.Name+"-")
	if err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(runDir); removeErr != nil {
			logger.WarnKV(ctx, "Unable to remove run directory", "path", runDir, "error", removeErr)
		}
	}()

	targets, err := s.resolveTargets(ctx, result.RemoteTag, runDir)
	if err != nil {
		return err
	}

	if err = s.transfer(ctx, result, targets); err != nil {
		return err
	}

	result.enter(StatePersisting)

	if err = s.persist(ctx, result.RemoteTag); err != nil {
		return err
	}

	result.Updated = true
	result.enter(StateDone)
	s.p.Sink.Success(ctx, "Finished. Updated to release %s.", result.RemoteTag)

	return nil
}

// checkVersion fills LocalTag, RemoteTag and Repair and reports whether an update is needed.
func (s *Syncer) checkVersion(ctx context.Context, result *Result) (bool, error) {
	result.enter(StateCheckVersion)

	record, err := s.p.Store.Load(ctx)
	if err != nil {
		return false, err
	}

	result.LocalTag = record.Tag(s.p.Name)
	logger.InfoKV(ctx, "Local tag", "tag", result.LocalTag)

	result.RemoteTag, err = s.p.Locator.LatestTag(ctx)
	if err != nil {
		return false, err
	}

	logger.InfoKV(ctx, "Remote tag", "tag", result.RemoteTag)

	repair := s.p.Force
	if repair {
		logger.Info(ctx, "Forced download requested")
	} else if repair, err = s.needsRepair(ctx); err != nil {
		return false, err
	}

	if repair {
		result.Repair = true
		record = record.Clone()
		record[s.p.Name] = asset.NeverInstalled
	}

	return record.NeedsUpdate(s.p.Name, result.RemoteTag, s.p.Compare), nil
}

// needsRepair reports whether any required platform's installed tree is missing or empty.
// A tree that exists but cannot be read fails the run instead of being reinstalled over.
func (s *Syncer) needsRepair(ctx context.Context) (bool, error) {
	repair := false

	for _, platform := range s.p.Platforms {
		if platform.Optional {
			continue
		}

		switch state := TreeState(platform.InstallDir); state {
		case TreePresent:
		case TreeUnreadable:
			return false, fmt.Errorf("installed tree %s of %s is %s: %w",
				platform.InstallDir, platform.Name, state, asset.ErrInstallFailed)
		default:
			logger.InfoKV(ctx, "Installed tree needs repair", "platform", platform.Name, "state", state)

			repair = true
		}
	}

	return repair, nil
}

// target is one platform scheduled for download and install.
type target struct {
	platform asset.Platform
	url      string
	format   string
	archive  string
}

// resolveTargets maps every platform to its download URL. A required platform without
// an asset fails the run before anything is downloaded.
func (s *Syncer) resolveTargets(ctx context.Context, tag, runDir string) ([]*target, error) {
	urls, err := s.p.Locator.AssetsForTag(ctx, tag)
	if err != nil {
		return nil, err
	}

	release := &asset.Release{Tag: tag, Assets: urls}
	logger.InfoKV(ctx, "Release resolved", "tag", release.Tag, "platforms", release.Platforms())

	targets := make([]*target, 0, len(s.p.Platforms))

	for _, platform := range s.p.Platforms {
		url, ok := release.Assets[platform.Name]
		if !ok {
			if platform.Optional {
				logger.WarnKV(ctx, "Optional platform has no asset, skipping", "platform", platform.Name, "tag", tag)
				continue
			}

			return nil, fmt.Errorf("platform %s of %s %s: %w", platform.Name, s.p.Name, tag, asset.ErrAssetMissing)
		}

		format := s.p.Format
		if format == "" {
			format = archive.DetectFormat(url)
		}

		targets = append(targets, &target{
			platform: platform,
			url:      url,
			format:   format,
			archive:  filepath.Join(runDir, platform.Name+archive.Extension(format)),
		})
	}

	return targets, nil
}

// transfer downloads and installs every target. Sequential runs alternate download and
// install per platform; parallel runs download everything first.
func (s *Syncer) transfer(ctx context.Context, result *Result, targets []*target) error {
	if s.p.Concurrency <= 1 || len(targets) < 2 {
		for _, t := range targets {
			result.enter(StateDownloading)

			if err := s.download(ctx, t); err != nil {
				return err
			}

			result.enter(StateInstalling)

			if err := s.install(ctx, result, t); err != nil {
				return err
			}
		}

		return nil
	}

	result.enter(StateDownloading)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.p.Concurrency)

	for _, t := range targets {
		group.Go(func() error {
			return s.download(groupCtx, t)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	result.enter(StateInstalling)

	for _, t := range targets {
		if err := s.install(ctx, result, t); err != nil {
			return err
		}
	}

	return nil
}

func (s *Syncer) download(ctx context.Context, t *target) error {
	s.p.Sink.Stage(ctx, "Downloading %s", t.url)

	_, err := s.p.Downloader.Download(ctx, t.url, t.archive, "Downloading "+t.platform.Name)

	return err
}

func (s *Syncer) install(ctx context.Context, result *Result, t *target) error {
	s.p.Sink.Stage(ctx, "Installing %s into %s.", t.platform.Name, t.platform.InstallDir)

	err := s.p.Installer.Install(ctx, &archive.Job{
		Archive:  t.archive,
		Format:   t.format,
		Payload:  s.p.Payload,
		Platform: t.platform,
	})
	if err != nil {
		return err
	}

	result.Installed = append(result.Installed, t.platform.Name)

	return nil
}

func (s *Syncer) persist(ctx context.Context, tag string) error {
	// Reload so that tags written by other assets since the check are kept.
	record, err := s.p.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload version record: %w: %w", asset.ErrPersistFailed, err)
	}

	record = record.Clone()
	record[s.p.Name] = tag

	return s.p.Store.Save(ctx, record)
}
