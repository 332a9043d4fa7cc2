package youtube

import "github.com/yuin/goldmark/ast"

// RenderState carries the embed flags between the open and close hooks of
// a single link. One RenderState exists per document render pass.
//
// EmbedHasTitle is only meaningful while InEmbed is true.
type RenderState struct {
	InEmbed       bool
	EmbedHasTitle bool

	// label nodes of the open embed that must not be rendered
	hidden []ast.Node
}

// Reset clears the state after an embed closes.
func (s *RenderState) Reset() {
	s.InEmbed = false
	s.EmbedHasTitle = false
	s.hidden = nil
}

const stateAttribute = "docsite-youtube-state"

// stateFor returns the RenderState attached to the document that owns n,
// creating it on first use. Keeping the state on the document ties its
// lifetime to the render pass of that document.
func stateFor(n ast.Node) *RenderState {
	root := n
	for root.Parent() != nil {
		root = root.Parent()
	}

	if v, ok := root.AttributeString(stateAttribute); ok {
		if s, ok := v.(*RenderState); ok {
			return s
		}
	}

	s := &RenderState{}
	root.SetAttributeString(stateAttribute, s)
	return s
}

// Rendered reports whether the embed renderer handled links of doc. It is
// false for documents rendered without the extension.
func Rendered(doc ast.Node) bool {
	_, ok := doc.AttributeString(stateAttribute)
	return ok
}
