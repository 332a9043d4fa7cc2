package markdown

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsite/internal/markdown/youtube"
)

// Render converts a Markdown body (frontmatter already removed) to HTML.
func Render(body []byte, opts Options) ([]byte, error) {
	return RenderWith(NewEngine(opts), body)
}

// RenderWith converts body with a prepared engine. Each call is an
// independent render pass.
func RenderWith(md goldmark.Markdown, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseBody parses a Markdown body (frontmatter already removed) into a Goldmark AST.
func ParseBody(body []byte, opts Options) (gmast.Node, error) {
	md := NewEngine(opts)
	root := md.Parser().Parse(text.NewReader(body))
	return root, nil
}

// ExtractLinks lists the links of a Markdown body in document order,
// followed by its reference definitions sorted by label. Reference-style
// links are reported as inline links with their resolved destination.
func ExtractLinks(body []byte, opts Options) ([]Link, error) {
	ctx := parser.NewContext()
	root := NewEngine(opts).Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			link := Link{Kind: LinkKindInline, Destination: string(node.Destination)}
			if opts.YouTube {
				link.VideoID, _ = youtube.VideoID(link.Destination)
			}
			links = append(links, link)
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		}
		return gmast.WalkContinue, nil
	})

	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links, nil
}

// Convert renders body with md and reports the YouTube players it embedded,
// parsing the document once. An engine built without the youtube extension
// embeds nothing.
func Convert(md goldmark.Markdown, body []byte) ([]byte, []Embed, error) {
	root := md.Parser().Parse(text.NewReader(body))
	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, body, root); err != nil {
		return nil, nil, fmt.Errorf("markdown render: %w", err)
	}
	if !youtube.Rendered(root) {
		return buf.Bytes(), nil, nil
	}
	return buf.Bytes(), embedsIn(root, body), nil
}

// ExtractEmbeds lists the YouTube players a document renders, in document
// order. It applies the same matching rules as the youtube extension and
// works whether or not opts.YouTube is set.
func ExtractEmbeds(body []byte, opts Options) ([]Embed, error) {
	root, err := ParseBody(body, opts)
	if err != nil {
		return nil, err
	}
	return embedsIn(root, body), nil
}

func embedsIn(root gmast.Node, body []byte) []Embed {
	embeds := make([]Embed, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		link, ok := n.(*gmast.Link)
		if !ok {
			return gmast.WalkContinue, nil
		}
		id, ok := youtube.VideoID(string(link.Destination))
		if !ok {
			return gmast.WalkSkipChildren, nil
		}

		e := Embed{VideoID: id, Destination: string(link.Destination)}
		if _, redundant := youtube.VideoID(youtube.Label(link, body)); !redundant {
			e.Label = plainText(link, body)
			e.HasTitle = true
		}
		embeds = append(embeds, e)
		return gmast.WalkSkipChildren, nil
	})
	return embeds
}

// plainText concatenates the text content below n.
func plainText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
		case *gmast.String:
			buf.Write(t.Value)
		case *gmast.AutoLink:
			buf.Write(t.URL(source))
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
