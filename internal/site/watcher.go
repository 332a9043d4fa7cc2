package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Rebuilder runs a build. *Builder implements it.
type Rebuilder interface {
	Build(ctx context.Context) (*Report, error)
}

// Watcher rebuilds the site when Markdown files below a directory change.
// Bursts of changes within the debounce window cause a single rebuild.
type Watcher struct {
	dir      string
	debounce time.Duration
	builder  Rebuilder
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	ignore   []string

	// OnBuild, when set, receives the result of every triggered rebuild.
	OnBuild func(*Report, error)
}

// NewWatcher creates a watcher for dir. Changes below ignoreDirs (typically
// an output directory inside dir) never trigger a rebuild. Run starts
// watching.
func NewWatcher(dir string, debounce time.Duration, builder Rebuilder, logger *slog.Logger, ignoreDirs ...string) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch directory: %w", err)
	}
	ignore := make([]string, 0, len(ignoreDirs))
	for _, d := range ignoreDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ignored directory: %w", err)
		}
		ignore = append(ignore, abs)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      absDir,
		debounce: debounce,
		builder:  builder,
		watcher:  fsw,
		logger:   logger,
		ignore:   ignore,
	}, nil
}

// Run watches until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if err := w.addTree(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching for changes", logfields.Path(w.dir), logfields.Duration(w.debounce))

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			stopTimer(timer)
			timer.Reset(w.debounce)
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))

		case <-timerC:
			timerC = nil
			report, err := w.builder.Build(ctx)
			if w.OnBuild != nil {
				w.OnBuild(report, err)
			}
		}
	}
}

// relevant reports whether event should trigger a rebuild. New directories
// are added to the watch list as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if hidden(w.dir, event.Name) || w.ignored(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
			return true
		}
	}
	// Removing or renaming a directory arrives without an extension.
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if filepath.Ext(event.Name) == "" {
			return true
		}
	}
	return isMarkdown(event.Name)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.dir && (strings.HasPrefix(d.Name(), ".") || w.ignored(p)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// ignored reports whether name is an ignored directory or lies below one.
func (w *Watcher) ignored(name string) bool {
	for _, d := range w.ignore {
		if name == d || strings.HasPrefix(name, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// hidden reports whether name lies in a dot directory (or is a dot file)
// below root.
func hidden(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
