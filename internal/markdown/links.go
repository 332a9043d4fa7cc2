package markdown

// Options controls how Markdown is parsed and rendered.
type Options struct {
	// Extensions lists goldmark extensions by name (gfm, table, strikethrough,
	// linkify, tasklist, definition, footnote, typographer). Unknown names are
	// ignored. An empty list enables GFM.
	Extensions []string
	// Unsafe lets raw HTML and dangerous link destinations through.
	Unsafe bool
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool
	// XHTML renders self-closing tags in XHTML style.
	XHTML bool
	// YouTube renders links to YouTube videos as embedded players.
	YouTube bool
}

// LinkKind names the Markdown construct a link was written with.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Valid reports whether k is one of the known kinds.
func (k LinkKind) Valid() bool {
	switch k {
	case LinkKindInline, LinkKindImage, LinkKindAuto, LinkKindReferenceDefinition:
		return true
	}
	return false
}

// Link is a link found in a document.
type Link struct {
	Kind        LinkKind
	Destination string
	// VideoID is set for links the youtube extension renders as a player.
	VideoID string
}

// Embed describes a YouTube video a document renders as a player.
type Embed struct {
	VideoID     string
	Destination string
	// Label is the link text. It is empty when the text only repeated the URL.
	Label string
	// HasTitle reports whether the label is rendered as a caption.
	HasTitle bool
}
