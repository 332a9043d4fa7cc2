package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectExtensions(t *testing.T) {
	require.Len(t, collectExtensions(nil), 1, "empty list enables GFM")
	require.Len(t, collectExtensions([]string{"table", "Tables", " footnote "}), 2)
	require.Len(t, collectExtensions([]string{"linkify", "autolink"}), 1)
	require.Empty(t, collectExtensions([]string{"mermaid", ""}))
}

func TestKnownExtension(t *testing.T) {
	require.True(t, KnownExtension("GFM"))
	require.True(t, KnownExtension("typographer"))
	require.False(t, KnownExtension("mermaid"))
}

func TestRender_YouTubeToggle(t *testing.T) {
	src := []byte("[Talk](https://youtu.be/abc123)\n")

	off, err := Render(src, Options{})
	require.NoError(t, err)
	require.Equal(t, "<p><a href=\"https://youtu.be/abc123\">Talk</a></p>\n", string(off))

	on, err := Render(src, Options{YouTube: true})
	require.NoError(t, err)
	require.Contains(t, string(on), `<div class="embed-yt">`)
	require.Contains(t, string(on), `<div class="embed-yt-title">Talk</div></div>`)
}

func TestRender_UnsafeHTML(t *testing.T) {
	src := []byte("<span>raw</span>\n")

	safe, err := Render(src, Options{})
	require.NoError(t, err)
	require.NotContains(t, string(safe), "<span>")

	unsafe, err := Render(src, Options{Unsafe: true})
	require.NoError(t, err)
	require.Contains(t, string(unsafe), "<span>raw</span>")
}

func TestRender_HardWrapsAndXHTML(t *testing.T) {
	src := []byte("one\ntwo\n")

	out, err := Render(src, Options{HardWraps: true})
	require.NoError(t, err)
	require.Contains(t, string(out), "<br>")

	out, err = Render(src, Options{HardWraps: true, XHTML: true})
	require.NoError(t, err)
	require.Contains(t, string(out), "<br />")
}

func TestRender_GFMTable(t *testing.T) {
	src := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")

	out, err := Render(src, Options{})
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")

	out, err = Render(src, Options{Extensions: []string{"footnote"}})
	require.NoError(t, err)
	require.NotContains(t, string(out), "<table>")
}

func TestRenderWith_SharedEngine(t *testing.T) {
	md := NewEngine(Options{YouTube: true})

	a, err := RenderWith(md, []byte("[A](https://youtu.be/a)\n"))
	require.NoError(t, err)
	b, err := RenderWith(md, []byte("[https://youtu.be/b](https://youtu.be/b)\n"))
	require.NoError(t, err)

	require.Contains(t, string(a), "embed-yt-title")
	require.NotContains(t, string(b), "embed-yt-title")
}
