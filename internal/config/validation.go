package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

const maxConcurrency = 64

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateSource,
		validateOutput,
		validateMarkdown,
		validateBuild,
		validateWatch,
		validateMonitoring,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return ferrors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).Build()
}

func validateSource(cfg *Config) error {
	for _, pattern := range cfg.Source.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return invalid("source.exclude", "invalid exclude pattern %q", pattern)
		}
	}
	if r := cfg.Source.Repository; r != nil {
		if strings.TrimSpace(r.URL) == "" {
			return invalid("source.repository.url", "source.repository.url is required when a repository is configured")
		}
		if filepath.IsAbs(cfg.Source.Dir) {
			return invalid("source.dir", "source.dir must be relative to the repository root")
		}
		switch r.Retry.Backoff {
		case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		default:
			return invalid("source.repository.retry.backoff", "unknown retry backoff %q (fixed, linear, exponential)", r.Retry.Backoff)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	out := filepath.Clean(cfg.Output.Dir)
	if out == "." || out == "/" {
		return invalid("output.dir", "output.dir %q would overwrite the working tree", cfg.Output.Dir)
	}
	if cfg.Source.Repository == nil && filepath.Clean(cfg.Source.Dir) == out {
		return invalid("output.dir", "output.dir must differ from source.dir")
	}
	return nil
}

func validateMarkdown(cfg *Config) error {
	for _, name := range cfg.Markdown.Extensions {
		if !markdown.KnownExtension(name) {
			return invalid("markdown.extensions", "unknown markdown extension %q", name)
		}
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.Concurrency > maxConcurrency {
		return invalid("build.concurrency", "build.concurrency must be between 1 and %d", maxConcurrency)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce", "watch.debounce must not be negative")
	}
	if iv := cfg.Watch.RebuildInterval; iv != 0 && iv < time.Second {
		return invalid("watch.rebuild_interval", "watch.rebuild_interval must be 0 (disabled) or at least 1s")
	}
	return nil
}

func validateMonitoring(cfg *Config) error {
	if cfg.Monitoring.Metrics.Enabled && !strings.HasPrefix(cfg.Monitoring.Metrics.Path, "/") {
		return invalid("monitoring.metrics.path", "monitoring.metrics.path must start with /")
	}
	return nil
}
