// Package youtube is a goldmark extension that renders links to YouTube
// videos as embedded players.
//
// A link whose destination is https://www.youtube.com/watch?v=<id> or
// https://youtu.be/<id> is replaced by an iframe container. Custom link text
// is kept as a caption below the player; leading link text that merely
// repeats a YouTube URL is dropped. Every other link renders exactly as goldmark's
// default HTML renderer would render it.
//
//	md := goldmark.New(goldmark.WithExtensions(youtube.Embed))
package youtube

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Embed is the ready-to-use extension.
var Embed = New()

// Extension installs the embed link renderer into a goldmark.Markdown.
type Extension struct{}

// New returns a new embed extension.
func New() goldmark.Extender {
	return &Extension{}
}

// Extend overrides the link rendering of m. The default HTML link renderer
// stays reachable for links that are not YouTube videos.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(newLinkRenderer(), 100),
		),
	)
}

// linkRenderer renders ast.Link nodes and the inline nodes that can open a
// link label. It owns a private html.Renderer whose funcs are used for
// everything that is not part of an embed.
type linkRenderer struct {
	fallback renderer.NodeRenderer
	defaults funcTable
}

func newLinkRenderer() *linkRenderer {
	return &linkRenderer{fallback: html.NewRenderer()}
}

// SetOption forwards renderer options (unsafe, xhtml, ...) to the fallback
// so delegated links honour the same configuration as the host renderer.
func (r *linkRenderer) SetOption(name renderer.OptionName, value interface{}) {
	if so, ok := r.fallback.(renderer.SetOptioner); ok {
		so.SetOption(name, value)
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *linkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	r.defaults = funcTable{}
	r.fallback.RegisterFuncs(r.defaults)

	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindText, r.renderLabelNode)
	reg.Register(ast.KindString, r.renderLabelNode)
	reg.Register(ast.KindAutoLink, r.renderLabelNode)
}

func (r *linkRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	state := stateFor(n)

	if entering {
		id, ok := VideoID(string(n.Destination))
		if !ok {
			return r.defaults[ast.KindLink](w, source, node, entering)
		}
		label, run := labelRun(n, source)
		if OpenEmbed(w, id, label, state) {
			state.hidden = run
		}
		return ast.WalkContinue, nil
	}

	if CloseEmbed(w, state) {
		return ast.WalkContinue, nil
	}
	return r.defaults[ast.KindLink](w, source, node, entering)
}

// renderLabelNode drops the label nodes an open embed suppressed and renders
// every other node with the default func. A suppressed text keeps its line
// break.
func (r *linkRenderer) renderLabelNode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering || !r.hidden(node) {
		return r.defaults[node.Kind()](w, source, node, entering)
	}

	if t, ok := node.(*ast.Text); ok && (t.SoftLineBreak() || t.HardLineBreak()) {
		br := ast.NewTextSegment(text.NewSegment(t.Segment.Stop, t.Segment.Stop))
		br.SetSoftLineBreak(t.SoftLineBreak())
		br.SetHardLineBreak(t.HardLineBreak())
		if _, err := r.defaults[ast.KindText](w, source, br, true); err != nil {
			return ast.WalkStop, err
		}
	}
	return ast.WalkSkipChildren, nil
}

func (r *linkRenderer) hidden(node ast.Node) bool {
	if _, ok := node.Parent().(*ast.Link); !ok {
		return false
	}
	state := stateFor(node)
	if !state.InEmbed {
		return false
	}
	for _, h := range state.hidden {
		if h == node {
			return true
		}
	}
	return false
}

// funcTable captures the funcs a NodeRenderer registers.
type funcTable map[ast.NodeKind]renderer.NodeRendererFunc

func (t funcTable) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	t[kind] = fn
}

// Label returns the plain text that immediately follows the link opening:
// the run of leading text children, or the URL of a leading autolink.
// Anything else (emphasis, images, code) ends the run. This is the text
// checked against VideoID to decide whether the caption is redundant.
func Label(n *ast.Link, source []byte) string {
	label, _ := labelRun(n, source)
	return label
}

// labelRun returns the label text together with the nodes it was read from.
func labelRun(n *ast.Link, source []byte) (string, []ast.Node) {
	if al, ok := n.FirstChild().(*ast.AutoLink); ok {
		return string(al.URL(source)), []ast.Node{al}
	}

	var (
		buf bytes.Buffer
		run []ast.Node
	)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			run = append(run, t)
			if t.SoftLineBreak() || t.HardLineBreak() {
				return buf.String(), run
			}
		case *ast.String:
			buf.Write(t.Value)
			run = append(run, t)
		default:
			return buf.String(), run
		}
	}
	return buf.String(), run
}
