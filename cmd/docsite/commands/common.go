package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/events"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
	"git.home.luguber.info/inful/docsite/internal/state"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Render the configured source tree into the output directory"`
	Render RenderCmd `cmd:"" help:"Render Markdown files (or stdin) to HTML on stdout"`
	Watch  WatchCmd  `cmd:"" help:"Build, then rebuild on changes and on a schedule"`
	Embeds EmbedsCmd `cmd:"" help:"List the YouTube videos documents embed"`
	Links  LinksCmd  `cmd:"" help:"List the links documents contain"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; it installs a logger until the
// configuration supplies its own settings.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig reads the configuration and replaces the global logger with the
// configured one.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Monitoring.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// newBuilder wires a site.Builder with the state store and event publisher
// the configuration asks for. The returned func releases them.
func newBuilder(ctx context.Context, g *Global, cfg *config.Config, recorder metrics.Recorder) (*site.Builder, func(), error) {
	opts := []site.Option{site.WithLogger(g.Logger), site.WithRecorder(recorder)}
	var closers []func() error

	if cfg.Build.Incremental {
		store, err := state.NewSQLiteStore(cfg.Build.StateDB)
		if err != nil {
			return nil, nil, ferrors.StateError("open build state").WithCause(err).
				WithContext("path", cfg.Build.StateDB).Build()
		}
		opts = append(opts, site.WithStore(store))
		closers = append(closers, store.Close)
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(ctx, cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			return nil, nil, ferrors.NetworkError("connect event publisher").WithCause(err).
				WithContext("url", cfg.Events.NATSURL).Build()
		}
		opts = append(opts, site.WithPublisher(pub))
		closers = append(closers, pub.Close)
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				g.Logger.Warn("Cleanup failed", logfields.Error(err))
			}
		}
	}
	return site.NewBuilder(cfg, opts...), cleanup, nil
}
