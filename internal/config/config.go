package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// CurrentVersion is the configuration format version this build reads.
const CurrentVersion = "1.0"

// Config is the docsite configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Source     SourceConfig     `yaml:"source"`
	Output     OutputConfig     `yaml:"output"`
	Markdown   MarkdownConfig   `yaml:"markdown"`
	Build      BuildConfig      `yaml:"build"`
	Watch      WatchConfig      `yaml:"watch"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Events     EventsConfig     `yaml:"events"`
}

// SourceConfig selects the documents to render.
type SourceConfig struct {
	Dir     string   `yaml:"dir"`     // Directory holding Markdown documents
	Exclude []string `yaml:"exclude"` // Glob patterns (relative to dir) to skip
	// Optional git repository; when set, Dir is resolved inside the clone.
	Repository *RepositoryConfig `yaml:"repository,omitempty"`
}

// RepositoryConfig describes a git repository holding the documents.
type RepositoryConfig struct {
	URL      string `yaml:"url"`
	Branch   string `yaml:"branch"`
	Depth    int    `yaml:"depth"`
	CacheDir string `yaml:"cache_dir"`
	// Token is sent as HTTP basic auth password; usually ${DOCSITE_GIT_TOKEN}.
	Token string      `yaml:"token"`
	Retry RetryConfig `yaml:"retry"`
}

// RetryBackoffMode selects how the delay grows between sync attempts.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig controls retries of transient repository sync failures.
type RetryConfig struct {
	Attempts     int              `yaml:"attempts"` // Total attempts including the first
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay time.Duration    `yaml:"initial_delay"`
	MaxDelay     time.Duration    `yaml:"max_delay"`
}

// OutputConfig controls where and how pages are written.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	Clean      bool   `yaml:"clean"`      // Remove the output directory before a full build
	SiteTitle  string `yaml:"site_title"` // Appended to every page <title>
	Stylesheet string `yaml:"stylesheet"` // Optional stylesheet href linked from every page
}

// MarkdownConfig maps onto markdown.Options.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions"`
	Unsafe     bool     `yaml:"unsafe"`
	HardWraps  bool     `yaml:"hard_wraps"`
	XHTML      bool     `yaml:"xhtml"`
	YouTube    *bool    `yaml:"youtube"` // Embed YouTube links as players (default true)
}

// BuildConfig controls build execution.
type BuildConfig struct {
	Concurrency   int    `yaml:"concurrency"`
	Incremental   bool   `yaml:"incremental"`
	StateDB       string `yaml:"state_db"` // SQLite file for incremental state
	IncludeDrafts bool   `yaml:"include_drafts"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	RebuildInterval time.Duration `yaml:"rebuild_interval"` // Periodic full rebuild; 0 disables
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// EventsConfig configures build event publishing. Empty NATSURL disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// YouTubeEnabled reports whether YouTube links are embedded.
func (m MarkdownConfig) YouTubeEnabled() bool {
	return m.YouTube == nil || *m.YouTube
}

// Options converts the markdown section to renderer options.
func (m MarkdownConfig) Options() markdown.Options {
	return markdown.Options{
		Extensions: m.Extensions,
		Unsafe:     m.Unsafe,
		HardWraps:  m.HardWraps,
		XHTML:      m.XHTML,
		YouTube:    m.YouTubeEnabled(),
	}
}

// Load reads, normalizes, defaults and validates a configuration file.
//
// Variables from .env and .env.local are loaded first (without overriding the
// process environment) so ${VAR} references in the file can use them.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "load env file").Fatal().Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.NotFoundError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read config file").
			WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes after expanding environment variables.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration yaml").Fatal().Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version %q (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	for _, w := range normalize(&cfg) {
		slog.Warn("config normalization", "detail", w)
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		slog.Debug("Loaded environment variables", "file", p)
	}
	return nil
}

const exampleConfig = `version: "1.0"

source:
  dir: ./docs
  exclude:
    - "drafts/*"
  # repository:
  #   url: https://github.com/example/project.git
  #   branch: main
  #   depth: 1
  #   cache_dir: ./.docsite/repo
  #   token: ${DOCSITE_GIT_TOKEN}
  #   retry:
  #     attempts: 3
  #     backoff: exponential
  #     initial_delay: 1s
  #     max_delay: 30s

output:
  dir: ./site
  clean: true
  site_title: Documentation
  stylesheet: /css/docs.css

markdown:
  extensions: [gfm, footnote]
  unsafe: false
  youtube: true

build:
  concurrency: 4
  incremental: false
  state_db: ./.docsite/state.db

watch:
  debounce: 500ms
  rebuild_interval: 0s

monitoring:
  metrics:
    enabled: false
    addr: ":9464"
    path: /metrics
  logging:
    level: info
    format: text

events:
  nats_url: ${DOCSITE_NATS_URL}
  subject: docsite.builds
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
