package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestParse_MinimalAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("version: \"1.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.Source.Dir)
	assert.Equal(t, "site", cfg.Output.Dir)
	assert.True(t, cfg.Markdown.YouTubeEnabled())
	assert.Equal(t, 4, cfg.Build.Concurrency)
	assert.Equal(t, filepath.Join(".docsite", "state.db"), cfg.Build.StateDB)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
	assert.Equal(t, "/metrics", cfg.Monitoring.Metrics.Path)
	assert.Equal(t, "docsite.builds", cfg.Events.Subject)
}

func TestParse_FullDocument(t *testing.T) {
	src := `version: "1.0"
source:
  dir: content
  exclude: ["drafts/*"]
  repository:
    url: https://example.com/docs.git
    branch: main
    depth: 1
    retry:
      backoff: Exponential
output:
  dir: public
  site_title: GraphQL
markdown:
  extensions: [" GFM ", footnote]
  unsafe: true
  youtube: false
build:
  concurrency: 8
  incremental: true
watch:
  debounce: 2s
  rebuild_interval: 1h
monitoring:
  logging:
    level: DEBUG
    format: Json
`
	cfg, err := Parse([]byte(src))
	require.NoError(t, err)

	require.NotNil(t, cfg.Source.Repository)
	assert.Equal(t, "main", cfg.Source.Repository.Branch)
	assert.Equal(t, filepath.Join(".docsite", "repo"), cfg.Source.Repository.CacheDir)
	assert.Equal(t, RetryConfig{Attempts: 3, Backoff: RetryBackoffExponential, InitialDelay: time.Second, MaxDelay: 30 * time.Second}, cfg.Source.Repository.Retry)
	assert.Equal(t, []string{"gfm", "footnote"}, cfg.Markdown.Extensions)
	assert.False(t, cfg.Markdown.YouTubeEnabled())
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, time.Hour, cfg.Watch.RebuildInterval)
	assert.Equal(t, LogLevelDebug, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)

	opts := cfg.Markdown.Options()
	assert.True(t, opts.Unsafe)
	assert.False(t, opts.YouTube)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCSITE_TEST_OUT", "rendered")
	cfg, err := Parse([]byte("version: \"1.0\"\noutput:\n  dir: ${DOCSITE_TEST_OUT}\n"))
	require.NoError(t, err)
	require.Equal(t, "rendered", cfg.Output.Dir)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		category ferrors.ErrorCategory
		contains string
	}{
		{name: "wrong version", src: "version: \"2.0\"\n", category: ferrors.CategoryConfig, contains: "unsupported configuration version"},
		{name: "unknown field", src: "version: \"1.0\"\nbogus: true\n", category: ferrors.CategoryConfig, contains: "invalid configuration yaml"},
		{name: "unknown extension", src: "version: \"1.0\"\nmarkdown:\n  extensions: [mermaid]\n", category: ferrors.CategoryValidation, contains: "mermaid"},
		{name: "output is cwd", src: "version: \"1.0\"\noutput:\n  dir: .\n", category: ferrors.CategoryValidation, contains: "output.dir"},
		{name: "output equals source", src: "version: \"1.0\"\nsource:\n  dir: docs\noutput:\n  dir: ./docs\n", category: ferrors.CategoryValidation, contains: "differ"},
		{name: "repository without url", src: "version: \"1.0\"\nsource:\n  repository:\n    branch: main\n", category: ferrors.CategoryValidation, contains: "url"},
		{name: "unknown backoff", src: "version: \"1.0\"\nsource:\n  repository:\n    url: x\n    retry:\n      backoff: random\n", category: ferrors.CategoryValidation, contains: "backoff"},
		{name: "bad exclude", src: "version: \"1.0\"\nsource:\n  exclude: [\"[\"]\n", category: ferrors.CategoryValidation, contains: "exclude"},
		{name: "concurrency too high", src: "version: \"1.0\"\nbuild:\n  concurrency: 1000\n", category: ferrors.CategoryValidation, contains: "concurrency"},
		{name: "short rebuild interval", src: "version: \"1.0\"\nwatch:\n  rebuild_interval: 10ms\n", category: ferrors.CategoryValidation, contains: "rebuild_interval"},
		{name: "bad metrics path", src: "version: \"1.0\"\nmonitoring:\n  metrics:\n    enabled: true\n    path: metrics\n", category: ferrors.CategoryValidation, contains: "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, tt.category), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestLoad_AddsPathContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"0.1\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	got, _ := ce.Context().GetString("path")
	require.Equal(t, path, got)
}

func TestInit_WritesLoadableExample(t *testing.T) {
	t.Setenv("DOCSITE_NATS_URL", "")
	path := filepath.Join(t.TempDir(), "docsite.yaml")

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./docs", cfg.Source.Dir)
	assert.Equal(t, []string{"gfm", "footnote"}, cfg.Markdown.Extensions)
	assert.Empty(t, cfg.Events.NATSURL)

	err = Init(path, false)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NoError(t, Init(path, true))
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DOCSITE_TEST_A=fromfile\nDOCSITE_TEST_B=fromfile\n"), 0o600))

	t.Setenv("DOCSITE_TEST_A", "fromenv")
	t.Setenv("DOCSITE_TEST_B", "")
	require.NoError(t, os.Unsetenv("DOCSITE_TEST_B"))

	require.NoError(t, loadEnvFiles(envPath, filepath.Join(dir, ".env.missing")))
	assert.Equal(t, "fromenv", os.Getenv("DOCSITE_TEST_A"))
	assert.Equal(t, "fromfile", os.Getenv("DOCSITE_TEST_B"))
}

func TestLogging(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("loud"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))

	var buf bytes.Buffer
	logger := MonitoringLogging{Level: LogLevelWarn, Format: LogFormatJSON}.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.False(t, strings.Contains(buf.String(), "hidden"))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))

	buf.Reset()
	MonitoringLogging{Level: LogLevelError}.NewLogger(&buf, true).Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")
}
