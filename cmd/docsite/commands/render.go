package commands

import (
	"io"
	"os"

	"github.com/yuin/goldmark"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// RenderCmd implements the 'render' command. It needs no configuration file.
type RenderCmd struct {
	Files      []string `arg:"" optional:"" type:"existingfile" help:"Markdown files to render; stdin when omitted"`
	Extensions []string `short:"e" help:"Goldmark extensions to enable (default gfm)"`
	Unsafe     bool     `help:"Allow raw HTML in the output"`
	HardWraps  bool     `help:"Render soft line breaks as <br>"`
	NoYouTube  bool     `name:"no-youtube" help:"Render YouTube links as plain links"`
}

func (r *RenderCmd) Run(g *Global) error {
	md := markdown.NewEngine(markdown.Options{
		Extensions: r.Extensions,
		Unsafe:     r.Unsafe,
		HardWraps:  r.HardWraps,
		YouTube:    !r.NoYouTube,
	})

	if len(r.Files) == 0 {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read stdin").Build()
		}
		return r.renderOne(g, "<stdin>", content, md)
	}

	for _, f := range r.Files {
		content, err := os.ReadFile(f) // #nosec G304 -- user supplied input file
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read document").WithContext("path", f).Build()
		}
		if err := r.renderOne(g, f, content, md); err != nil {
			return err
		}
	}
	return nil
}

func (r *RenderCmd) renderOne(g *Global, name string, content []byte, md goldmark.Markdown) error {
	_, body, _, err := frontmatter.Split(content)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid frontmatter").WithContext("path", name).Build()
	}
	out, err := markdown.RenderWith(md, body)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "render document").WithContext("path", name).Build()
	}
	_, err = g.Stdout.Write(out)
	return err
}
