package config

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultSourceDir   = "docs"
	defaultOutputDir   = "site"
	defaultConcurrency = 4
	defaultDebounce    = 500 * time.Millisecond
	defaultMetricsAddr = ":9464"
	defaultMetricsPath = "/metrics"
	defaultSubject     = "docsite.builds"
	defaultStateDir    = ".docsite"

	defaultRetryAttempts = 3
)

// normalize case-folds enumerations and trims values. It returns human
// readable notes for values it had to change.
func normalize(cfg *Config) []string {
	var warnings []string

	if raw := string(cfg.Monitoring.Logging.Level); raw != "" {
		lvl := NormalizeLogLevel(raw)
		if string(lvl) != raw {
			warnings = append(warnings, "monitoring.logging.level "+raw+" -> "+string(lvl))
		}
		cfg.Monitoring.Logging.Level = lvl
	}
	if raw := string(cfg.Monitoring.Logging.Format); raw != "" {
		f := NormalizeLogFormat(raw)
		if string(f) != raw {
			warnings = append(warnings, "monitoring.logging.format "+raw+" -> "+string(f))
		}
		cfg.Monitoring.Logging.Format = f
	}

	exts := cfg.Markdown.Extensions[:0]
	for _, e := range cfg.Markdown.Extensions {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			exts = append(exts, e)
		}
	}
	cfg.Markdown.Extensions = exts

	if r := cfg.Source.Repository; r != nil && r.Retry.Backoff != "" {
		r.Retry.Backoff = RetryBackoffMode(strings.ToLower(strings.TrimSpace(string(r.Retry.Backoff))))
	}

	cfg.Source.Dir = strings.TrimSpace(cfg.Source.Dir)
	cfg.Output.Dir = strings.TrimSpace(cfg.Output.Dir)
	return warnings
}

func applyDefaults(cfg *Config) {
	if cfg.Source.Dir == "" {
		cfg.Source.Dir = defaultSourceDir
	}
	if r := cfg.Source.Repository; r != nil {
		if r.CacheDir == "" {
			r.CacheDir = filepath.Join(defaultStateDir, "repo")
		}
		if r.Depth < 0 {
			r.Depth = 0
		}
		if r.Retry.Attempts <= 0 {
			r.Retry.Attempts = defaultRetryAttempts
		}
		if r.Retry.Backoff == "" {
			r.Retry.Backoff = RetryBackoffLinear
		}
		if r.Retry.InitialDelay <= 0 {
			r.Retry.InitialDelay = time.Second
		}
		if r.Retry.MaxDelay <= 0 {
			r.Retry.MaxDelay = 30 * time.Second
		}
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}

	if cfg.Markdown.YouTube == nil {
		enabled := true
		cfg.Markdown.YouTube = &enabled
	}

	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = defaultConcurrency
	}
	if cfg.Build.StateDB == "" {
		cfg.Build.StateDB = filepath.Join(defaultStateDir, "state.db")
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}

	if cfg.Monitoring.Metrics.Addr == "" {
		cfg.Monitoring.Metrics.Addr = defaultMetricsAddr
	}
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = defaultMetricsPath
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}

	if cfg.Events.Subject == "" {
		cfg.Events.Subject = defaultSubject
	}
}
