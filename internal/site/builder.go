package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/events"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/retry"
	"git.home.luguber.info/inful/docsite/internal/source"
	"git.home.luguber.info/inful/docsite/internal/state"
)

// Builder renders a source tree into an output tree.
type Builder struct {
	cfg       *config.Config
	md        goldmark.Markdown
	recorder  metrics.Recorder
	publisher events.Publisher
	store     state.Store
	logger    *slog.Logger
	syncRepo  func(context.Context, config.RepositoryConfig) (source.Result, error)
	settings  string

	mu sync.Mutex // one build at a time
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithPublisher sets where build events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(b *Builder) {
		if p != nil {
			b.publisher = p
		}
	}
}

// WithStore sets the incremental state store. Without one every build is full.
func WithStore(s state.Store) Option {
	return func(b *Builder) { b.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		md:        markdown.NewEngine(cfg.Markdown.Options()),
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		syncRepo:  source.Sync,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.settings = settingsKey(cfg)
	return b
}

// settingsKey fingerprints the configuration that shapes every page, so a
// change to it invalidates all incremental records.
func settingsKey(cfg *config.Config) string {
	s := fmt.Sprintf("%+v|%s|%s", cfg.Markdown.Options(), cfg.Output.SiteTitle, cfg.Output.Stylesheet)
	return frontmatter.Fingerprint(nil, []byte(s))
}

// SourceDir is the directory documents are read from. With a repository
// configured it lies inside the clone.
func (b *Builder) SourceDir() string {
	if r := b.cfg.Source.Repository; r != nil {
		return filepath.Join(r.CacheDir, b.cfg.Source.Dir)
	}
	return b.cfg.Source.Dir
}

type pageResult struct {
	page    Page
	draft   bool
	err     error
	elapsed time.Duration
}

// Build renders every document. The returned report is non-nil even when
// err is set.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := &Report{BuildID: uuid.NewString(), StartedAt: time.Now()}
	log := b.logger.With(logfields.BuildID(report.BuildID))
	log.Info("Build started", logfields.Path(b.SourceDir()))

	err := b.run(ctx, log, report)
	report.Duration = time.Since(report.StartedAt)
	report.Outcome = string(outcomeFor(ctx, report, err))
	if err == nil && report.Outcome == string(metrics.BuildOutcomeFailed) {
		err = ferrors.RenderError("no document rendered").
			WithContext("failed", len(report.Errors)).
			WithCause(errors.Join(pageErrs(report.Errors)...)).Build()
	}

	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))

	attrs := []any{
		logfields.Outcome(report.Outcome),
		logfields.Pages(len(report.Pages)),
		logfields.Skipped(report.Skipped),
		logfields.Embeds(report.Embeds),
		logfields.Duration(report.Duration),
	}
	if err != nil {
		log.Error("Build finished", append(attrs, logfields.Error(err))...)
	} else {
		log.Info("Build finished", attrs...)
	}

	b.publish(ctx, log, report, err)
	return report, err
}

func (b *Builder) run(ctx context.Context, log *slog.Logger, report *Report) error {
	if r := b.cfg.Source.Repository; r != nil {
		var res source.Result
		err := retry.FromConfig(r.Retry).Do(ctx, "sync repository", func() error {
			var err error
			res, err = b.syncRepo(ctx, *r)
			return err
		})
		if err != nil {
			return err
		}
		report.Commit = res.Commit
	}

	srcDir := b.SourceDir()
	docs, err := Discover(srcDir, b.cfg.Source.Exclude, b.cfg.Output.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ferrors.NotFoundError("source directory not found").WithContext("path", srcDir).Build()
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "scan source directory").
			WithContext("path", srcDir).Build()
	}
	log.Debug("Discovered documents", logfields.Pages(len(docs)))

	incremental := b.cfg.Build.Incremental && b.store != nil
	if b.cfg.Output.Clean && !incremental {
		if err := os.RemoveAll(b.cfg.Output.Dir); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clean output directory").
				WithContext("path", b.cfg.Output.Dir).Build()
		}
	}
	if err := os.MkdirAll(b.cfg.Output.Dir, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", b.cfg.Output.Dir).Build()
	}

	results := b.renderAll(ctx, log, srcDir, docs, incremental)
	if err := ctx.Err(); err != nil {
		return ferrors.CanceledError("build canceled").WithCause(err).Build()
	}

	kept := make([]string, 0, len(results))
	for _, res := range results {
		switch {
		case res.draft:
			report.Drafts++
			b.recorder.IncPageResult(metrics.PageSkipped)
			continue
		case res.err != nil:
			report.Errors = append(report.Errors, PageError{Source: res.page.Source, Err: res.err})
			b.recorder.IncPageResult(metrics.PageFailed)
			continue
		case res.page.Skipped:
			report.Skipped++
			b.recorder.IncPageResult(metrics.PageSkipped)
		default:
			report.Rendered++
			b.recorder.IncPageResult(metrics.PageRendered)
			b.recorder.ObservePageDuration(res.elapsed)
			b.recorder.AddEmbeds(res.page.Embeds)
		}
		report.Embeds += res.page.Embeds
		report.Pages = append(report.Pages, res.page)
		kept = append(kept, res.page.Source)
	}

	if incremental && len(report.Errors) == 0 {
		if err := b.store.Prune(ctx, kept); err != nil {
			log.Warn("Failed to prune build state", logfields.Error(err))
		}
	}
	return nil
}

// renderAll renders docs on a bounded worker pool. Results keep the order
// of docs.
func (b *Builder) renderAll(ctx context.Context, log *slog.Logger, srcDir string, docs []string, incremental bool) []pageResult {
	results := make([]pageResult, len(docs))
	jobs := make(chan int)

	workers := b.cfg.Build.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(docs) {
		workers = len(docs)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				res := b.renderDocument(ctx, srcDir, docs[i], incremental)
				res.elapsed = time.Since(start)
				if res.err != nil {
					log.Warn("Document failed", logfields.Document(docs[i]), logfields.Error(res.err))
				} else if !res.draft && !res.page.Skipped {
					log.Debug("Document rendered",
						logfields.Document(docs[i]),
						logfields.Output(res.page.Output),
						logfields.Embeds(res.page.Embeds))
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := range docs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (b *Builder) renderDocument(ctx context.Context, srcDir, rel string, incremental bool) pageResult {
	res := pageResult{page: Page{Source: rel, Output: outputPath(rel)}}

	content, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
	if err != nil {
		res.err = fmt.Errorf("read document: %w", err)
		return res
	}
	fm, body, _, err := frontmatter.Split(content)
	if err != nil {
		res.err = fmt.Errorf("split frontmatter: %w", err)
		return res
	}
	meta, err := frontmatter.Decode(fm)
	if err != nil {
		res.err = fmt.Errorf("decode frontmatter: %w", err)
		return res
	}
	if meta.Draft && !b.cfg.Build.IncludeDrafts {
		res.draft = true
		return res
	}

	res.page.Fingerprint = frontmatter.Fingerprint(fm, body) + "-" + b.settings
	outFile := filepath.Join(b.cfg.Output.Dir, filepath.FromSlash(res.page.Output))

	if incremental {
		rec, ok, err := b.store.Get(ctx, rel)
		if err != nil {
			res.err = fmt.Errorf("load build state: %w", err)
			return res
		}
		if ok && rec.Fingerprint == res.page.Fingerprint && fileExists(outFile) {
			res.page.Title = rec.Title
			res.page.Embeds = rec.Embeds
			res.page.Skipped = true
			return res
		}
	}

	html, embeds, err := markdown.Convert(b.md, body)
	if err != nil {
		res.err = err
		return res
	}
	res.page.Embeds = len(embeds)
	res.page.Title = meta.Title
	if res.page.Title == "" {
		res.page.Title = titleFromPath(rel, b.cfg.Output.SiteTitle)
	}

	var page bytes.Buffer
	err = writeShell(&page, shellData{
		Title:       res.page.Title,
		SiteTitle:   b.cfg.Output.SiteTitle,
		Description: meta.Description,
		Stylesheet:  b.cfg.Output.Stylesheet,
		Content:     template.HTML(html), // #nosec G203 -- produced by the markdown renderer
	})
	if err != nil {
		res.err = fmt.Errorf("execute page template: %w", err)
		return res
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o750); err != nil {
		res.err = fmt.Errorf("create output directory: %w", err)
		return res
	}
	if err := os.WriteFile(outFile, page.Bytes(), 0o644); err != nil { // #nosec G306 -- site pages are public
		res.err = fmt.Errorf("write page: %w", err)
		return res
	}

	if b.store != nil {
		rec := state.Record{
			Path:        rel,
			Fingerprint: res.page.Fingerprint,
			Output:      res.page.Output,
			Title:       res.page.Title,
			Embeds:      res.page.Embeds,
		}
		if err := b.store.Put(ctx, rec); err != nil {
			res.err = fmt.Errorf("save build state: %w", err)
		}
	}
	return res
}

func (b *Builder) publish(ctx context.Context, log *slog.Logger, report *Report, buildErr error) {
	event := events.BuildEvent{
		BuildID:    report.BuildID,
		Outcome:    report.Outcome,
		StartedAt:  report.StartedAt,
		DurationMS: report.Duration.Milliseconds(),
		Pages:      len(report.Pages),
		Rendered:   report.Rendered,
		Skipped:    report.Skipped,
		Failed:     len(report.Errors),
		Embeds:     report.Embeds,
		Commit:     report.Commit,
	}
	if buildErr != nil {
		event.Error = buildErr.Error()
	}
	// A canceled build still reports its outcome.
	if err := b.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("Failed to publish build event", logfields.Error(err))
	}
}

func outcomeFor(ctx context.Context, report *Report, err error) metrics.BuildOutcomeLabel {
	switch {
	case ctx.Err() != nil || ferrors.HasCategory(err, ferrors.CategoryCanceled):
		return metrics.BuildOutcomeCanceled
	case err != nil:
		return metrics.BuildOutcomeFailed
	case len(report.Errors) > 0 && len(report.Pages) == 0:
		return metrics.BuildOutcomeFailed
	case len(report.Errors) > 0:
		return metrics.BuildOutcomeWarning
	default:
		return metrics.BuildOutcomeSuccess
	}
}

func pageErrs(errs []PageError) []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
