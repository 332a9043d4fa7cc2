package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Override output.dir"`
	Incremental bool   `short:"i" help:"Skip documents unchanged since the last build"`
	Clean       bool   `help:"Remove the output directory first"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Dir = b.Output
	}
	if b.Incremental {
		cfg.Build.Incremental = true
	}
	if b.Clean {
		cfg.Output.Clean = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder, cleanup, err := newBuilder(ctx, g, cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := builder.Build(ctx)
	printReport(g, report)
	return err
}

func printReport(g *Global, report *site.Report) {
	if report == nil {
		return
	}
	_, _ = fmt.Fprintf(g.Stdout, "Build %s: %s\n", report.BuildID, report.Outcome)
	_, _ = fmt.Fprintf(g.Stdout, "  pages: %d (rendered %d, unchanged %d, drafts %d)\n",
		len(report.Pages), report.Rendered, report.Skipped, report.Drafts)
	_, _ = fmt.Fprintf(g.Stdout, "  youtube embeds: %d\n", report.Embeds)
	for _, e := range report.Errors {
		_, _ = fmt.Fprintf(g.Stdout, "  failed: %s\n", e.Error())
	}
}
