package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/asset-sync/internal/domain/asset"
)

// Config describes where asset-sync keeps its state and which assets it vendors.
type Config struct {
	// BaseDir is the project root that relative paths resolve against.
	BaseDir string `yaml:"base_dir" toml:"base_dir"`
	// VersionFile is the JSON document mapping asset names to installed tags.
	VersionFile string `yaml:"version_file" toml:"version_file"`
	// LogFile is the durable append-only log.
	LogFile string `yaml:"log_file" toml:"log_file"`
	// TempDir is where per-run download directories are created (empty: OS default).
	TempDir string `yaml:"temp_dir,omitempty" toml:"temp_dir,omitempty"`
	// Timeout bounds every HTTP request, including the body transfer.
	Timeout Duration `yaml:"timeout" toml:"timeout"`
	// Concurrency is the number of platform downloads run in parallel.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
	// APIURL is the GitHub REST API root.
	APIURL string `yaml:"api_url" toml:"api_url"`
	// WebURL is the GitHub web root used by the latest-redirect strategy.
	WebURL string `yaml:"web_url" toml:"web_url"`
	// Assets lists the vendored assets.
	Assets []Asset `yaml:"assets" toml:"assets"`
}

// Asset describes one vendored upstream artifact.
type Asset struct {
	// Name is the key of the asset in the version file.
	Name string `yaml:"name" toml:"name"`
	// Repository is the upstream "owner/repo".
	Repository string `yaml:"repository" toml:"repository"`
	// TagStrategy selects how the latest tag is resolved.
	TagStrategy string `yaml:"tag_strategy" toml:"tag_strategy"`
	// LatestURL overrides the latest-release page for the latest-redirect strategy.
	LatestURL string `yaml:"latest_url,omitempty" toml:"latest_url,omitempty"`
	// AssetSource selects how download URLs are resolved for a tag.
	AssetSource string `yaml:"asset_source" toml:"asset_source"`
	// URLTemplate builds the download URL for the template source ({tag}, {platform}).
	URLTemplate string `yaml:"url_template,omitempty" toml:"url_template,omitempty"`
	// Exclude lists substrings that disqualify a release asset name.
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	// Format is the archive format; empty means detect from the URL.
	Format string `yaml:"format,omitempty" toml:"format,omitempty"`
	// Payload is the glob, relative to the extraction root, of the subtree to install.
	Payload string `yaml:"payload" toml:"payload"`
	// InstallDir is the installed tree of the default platform, or the parent of per-platform trees.
	InstallDir string `yaml:"install_dir" toml:"install_dir"`
	// Compare selects the tag comparison policy (lexical or semver).
	Compare string `yaml:"compare,omitempty" toml:"compare,omitempty"`
	// Platforms lists per-platform builds; empty means a single default platform.
	Platforms []Platform `yaml:"platforms,omitempty" toml:"platforms,omitempty"`
}

// Platform describes one per-platform build of an asset.
type Platform struct {
	// Name is the platform identifier.
	Name string `yaml:"name" toml:"name"`
	// Match is the asset-name substring selecting this platform (default: Name).
	Match string `yaml:"match,omitempty" toml:"match,omitempty"`
	// InstallDir overrides the installed tree (default: <asset install_dir>/<name>).
	InstallDir string `yaml:"install_dir,omitempty" toml:"install_dir,omitempty"`
	// Optional platforms may be missing from a release.
	Optional bool `yaml:"optional,omitempty" toml:"optional,omitempty"`
}

const (
	// DefaultConfigFilename is the YAML settings file looked up in the working directory.
	DefaultConfigFilename = "asset-sync.yaml"

	// DefaultTOMLConfigFilename is the TOML alternative of DefaultConfigFilename.
	DefaultTOMLConfigFilename = "asset-sync.toml"

	// DefaultVersionFilename is the default version record location.
	DefaultVersionFilename = "versions.json"

	// DefaultLogFilename is the default durable log location.
	DefaultLogFilename = "asset-sync.log"

	// DefaultTimeout is the default duration for a single HTTP exchange.
	DefaultTimeout = 5 * time.Minute

	// DefaultAPIURL is the public GitHub REST API root.
	DefaultAPIURL = "https://api.github.com/"

	// DefaultWebURL is the public GitHub web root.
	DefaultWebURL = "https://github.com/"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// Tag strategies.
const (
	TagLatestRedirect = "latest-redirect"
	TagList           = "tag-list"
	TagLatestRelease  = "latest-release"
)

// Asset sources.
const (
	SourceTemplate = "template"
	SourceRelease  = "release"
)

// Archive formats.
const (
	FormatZip    = "zip"
	FormatTar    = "tar"
	FormatTarZst = "tar.zst"
	FormatTarGz  = "tar.gz"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNoAssets is returned when the configuration lists nothing to sync.
	errNoAssets = errors.New("at least one asset must be configured")
	// errInvalidAsset is returned for an asset definition that cannot be synced.
	errInvalidAsset = errors.New("invalid asset")
	// errUnknownExtension is returned for a settings file that is neither YAML nor TOML.
	errUnknownExtension = errors.New("unsupported settings file extension")
	// errUnknownAsset is returned when a requested asset is not configured.
	errUnknownAsset = errors.New("asset is not configured")
)

// Load reads configuration from path (YAML or TOML by extension) and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(contents, &cfg)
	case ".toml":
		err = toml.Unmarshal(contents, &cfg)
	default:
		return nil, fmt.Errorf("%s: %w", path, errUnknownExtension)
	}

	if err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.BaseDir == "" {
		settings.BaseDir = "."
	}

	if settings.VersionFile == "" {
		settings.VersionFile = DefaultVersionFilename
	}

	if settings.LogFile == "" {
		settings.LogFile = DefaultLogFilename
	}

	if settings.Timeout <= 0 {
		settings.Timeout = Duration(DefaultTimeout)
	}

	if settings.Concurrency <= 0 {
		settings.Concurrency = 1
	}

	if settings.APIURL == "" {
		settings.APIURL = DefaultAPIURL
	}

	if settings.WebURL == "" {
		settings.WebURL = DefaultWebURL
	}

	for _, raw := range []string{settings.APIURL, settings.WebURL} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
	}

	if len(settings.Assets) == 0 {
		return errNoAssets
	}

	seen := make(map[string]struct{}, len(settings.Assets))

	for i := range settings.Assets {
		a := &settings.Assets[i]
		if err := validateAsset(a); err != nil {
			return err
		}

		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: duplicate name %q", errInvalidAsset, a.Name)
		}

		seen[a.Name] = struct{}{}
	}

	return nil
}

// validateAsset checks a single asset definition and fills its defaults.
func validateAsset(a *Asset) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name must be provided", errInvalidAsset)
	}

	if a.TagStrategy == "" {
		a.TagStrategy = TagLatestRelease
	}

	if a.AssetSource == "" {
		a.AssetSource = SourceRelease
		if a.URLTemplate != "" {
			a.AssetSource = SourceTemplate
		}
	}

	switch a.TagStrategy {
	case TagLatestRedirect:
		if a.Repository == "" && a.LatestURL == "" {
			return fmt.Errorf("%w %s: repository or latest_url required", errInvalidAsset, a.Name)
		}
	case TagList, TagLatestRelease:
		if !validRepository(a.Repository) {
			return fmt.Errorf("%w %s: repository must be owner/repo", errInvalidAsset, a.Name)
		}
	default:
		return fmt.Errorf("%w %s: unknown tag strategy %q", errInvalidAsset, a.Name, a.TagStrategy)
	}

	switch a.AssetSource {
	case SourceTemplate:
		if !strings.Contains(a.URLTemplate, "{tag}") {
			return fmt.Errorf("%w %s: url_template must contain {tag}", errInvalidAsset, a.Name)
		}
	case SourceRelease:
		if !validRepository(a.Repository) {
			return fmt.Errorf("%w %s: repository must be owner/repo", errInvalidAsset, a.Name)
		}
	default:
		return fmt.Errorf("%w %s: unknown asset source %q", errInvalidAsset, a.Name, a.AssetSource)
	}

	switch a.Format {
	case "", FormatZip, FormatTar, FormatTarZst, FormatTarGz:
	default:
		return fmt.Errorf("%w %s: unknown format %q", errInvalidAsset, a.Name, a.Format)
	}

	if _, err := asset.ComparatorFor(a.Compare); err != nil {
		return fmt.Errorf("%w %s: %w", errInvalidAsset, a.Name, err)
	}

	if a.InstallDir == "" {
		return fmt.Errorf("%w %s: install_dir must be provided", errInvalidAsset, a.Name)
	}

	platforms := make(map[string]struct{}, len(a.Platforms))

	for _, p := range a.Platforms {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w %s: platform name must be provided", errInvalidAsset, a.Name)
		}

		if _, dup := platforms[p.Name]; dup {
			return fmt.Errorf("%w %s: duplicate platform %q", errInvalidAsset, a.Name, p.Name)
		}

		platforms[p.Name] = struct{}{}
	}

	return nil
}

// validRepository reports whether repo looks like "owner/repo".
func validRepository(repo string) bool {
	owner, name, ok := strings.Cut(repo, "/")

	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}

// Resolve returns path joined to BaseDir unless it is already absolute.
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(c.BaseDir, path)
}

// Asset returns the configured asset with the given name.
func (c *Config) Asset(name string) (*Asset, error) {
	for i := range c.Assets {
		if c.Assets[i].Name == name {
			return &c.Assets[i], nil
		}
	}

	return nil, fmt.Errorf("%q: %w", name, errUnknownAsset)
}

// AssetNames returns the names of every configured asset in configuration order.
func (c *Config) AssetNames() []string {
	names := make([]string, 0, len(c.Assets))
	for _, a := range c.Assets {
		names = append(names, a.Name)
	}

	return names
}

// Platforms expands the asset's platform table into domain targets with absolute install paths.
// An asset without platforms yields the single default platform installed at InstallDir.
func (c *Config) Platforms(a *Asset) []asset.Platform {
	installRoot := c.Resolve(a.InstallDir)

	if len(a.Platforms) == 0 {
		return []asset.Platform{{
			Name:       asset.DefaultPlatform,
			InstallDir: installRoot,
		}}
	}

	result := make([]asset.Platform, 0, len(a.Platforms))

	for _, p := range a.Platforms {
		installDir := filepath.Join(installRoot, p.Name)
		if p.InstallDir != "" {
			installDir = c.Resolve(p.InstallDir)
		}

		result = append(result, asset.Platform{
			Name:       p.Name,
			Match:      p.Match,
			InstallDir: installDir,
			Optional:   p.Optional,
		})
	}

	return result
}
