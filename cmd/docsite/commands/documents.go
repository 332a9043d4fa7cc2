package commands

import (
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// documentSet is the set of documents an inspection command reads: the
// files named on the command line, or the configured source tree.
type documentSet struct {
	baseDir string
	files   []string
	opts    markdown.Options
}

func resolveDocuments(g *Global, root *CLI, files []string) (documentSet, error) {
	if len(files) > 0 {
		return documentSet{files: files, opts: markdown.Options{YouTube: true}}, nil
	}

	cfg, err := loadConfig(g, root)
	if err != nil {
		return documentSet{}, err
	}
	baseDir := site.NewBuilder(cfg).SourceDir()
	docs, err := site.Discover(baseDir, cfg.Source.Exclude, cfg.Output.Dir)
	if err != nil {
		return documentSet{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "scan source directory").
			WithContext("path", baseDir).Build()
	}
	return documentSet{baseDir: baseDir, files: docs, opts: cfg.Markdown.Options()}, nil
}

// each calls fn with the Markdown body of every document. Documents with
// broken frontmatter are logged and skipped.
func (d documentSet) each(g *Global, fn func(rel string, body []byte) error) error {
	for _, f := range d.files {
		content, err := os.ReadFile(filepath.Join(d.baseDir, filepath.FromSlash(f))) // #nosec G304 -- documents selected by the user
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read document").WithContext("path", f).Build()
		}
		_, body, _, err := frontmatter.Split(content)
		if err != nil {
			g.Logger.Warn("Skipping document with invalid frontmatter", logfields.Document(f), logfields.Error(err))
			continue
		}
		if err := fn(f, body); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRender, "parse document").WithContext("path", f).Build()
		}
	}
	return nil
}
