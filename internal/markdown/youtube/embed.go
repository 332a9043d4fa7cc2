package youtube

import (
	"io"

	"github.com/yuin/goldmark/util"
)

const (
	containerOpen = `<div class="embed-yt">`
	frameOpen     = `<div class="embed-yt-iframe"><iframe width="560" height="315" src="`
	frameClose    = `" frameborder="0" allow="accelerometer; autoplay; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe></div>`
	titleOpen     = `<div class="embed-yt-title">`
	divClose      = `</div>`
)

// OpenEmbed writes the opening fragment of an embed for video id and
// records it in state.
//
// When label is itself a YouTube URL it carries no information beyond the
// player, so OpenEmbed reports suppressLabel and the caller must not render
// that text. Label content after it still renders inside the container.
// Any other label is wrapped in a title container that CloseEmbed closes.
func OpenEmbed(w io.Writer, id, label string, state *RenderState) (suppressLabel bool) {
	state.Reset()
	state.InEmbed = true

	_, _ = io.WriteString(w, containerOpen)
	_, _ = io.WriteString(w, frameOpen)
	_, _ = w.Write(util.EscapeHTML([]byte(EmbedURL(id))))
	_, _ = io.WriteString(w, frameClose)

	if _, ok := VideoID(label); ok {
		return true
	}

	state.EmbedHasTitle = true
	_, _ = io.WriteString(w, titleOpen)
	return false
}

// CloseEmbed closes the embed opened by OpenEmbed. It returns false, writing
// nothing, when no embed is open so the caller can fall back to the default
// link rendering.
func CloseEmbed(w io.Writer, state *RenderState) bool {
	if !state.InEmbed {
		return false
	}

	if state.EmbedHasTitle {
		_, _ = io.WriteString(w, divClose+divClose)
	} else {
		_, _ = io.WriteString(w, divClose)
	}
	state.Reset()
	return true
}
