package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := &CLI{}
	g := &Global{Stdout: &out}
	parser, err := kong.New(cli,
		kong.Name("docsite"),
		kong.Vars{"version": "test"},
		kong.Bind(g),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = kctx.Run(cli)
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "docsite.yaml")
	writeFile(t, cfgPath, `version: "1.0"
source:
  dir: `+filepath.Join(dir, "docs")+`
output:
  dir: `+filepath.Join(dir, "site")+`
  site_title: Docs
build:
  incremental: true
  state_db: `+filepath.Join(dir, ".docsite", "state.db")+`
`)
	return cfgPath
}

func TestInit(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "docsite.yaml")

	out, err := run(t, "-c", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")
	assert.FileExists(t, cfgPath)

	_, err = run(t, "-c", cfgPath, "init")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = run(t, "-c", cfgPath, "init", "--force")
	require.NoError(t, err)
}

func TestRender(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "talk.md")
	writeFile(t, doc, "---\ntitle: Talk\n---\n[Watch the talk](https://youtu.be/abc?t=3)\n")

	out, err := run(t, "render", doc)
	require.NoError(t, err)
	assert.Contains(t, out, `<iframe width="560" height="315" src="https://www.youtube.com/embed/abc"`)
	assert.Contains(t, out, `<div class="embed-yt-title">Watch the talk</div></div>`)
	assert.NotContains(t, out, "title: Talk")

	out, err = run(t, "render", "--no-youtube", doc)
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="https://youtu.be/abc?t=3">Watch the talk</a>`)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	writeFile(t, filepath.Join(dir, "docs", "index.md"), "[https://youtu.be/abc](https://youtu.be/abc)\n")

	out, err := run(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, ": success")
	assert.Contains(t, out, "rendered 1, unchanged 0")
	assert.Contains(t, out, "youtube embeds: 1")
	assert.FileExists(t, filepath.Join(dir, "site", "index.html"))
	assert.FileExists(t, filepath.Join(dir, ".docsite", "state.db"))

	out, err = run(t, "-c", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "rendered 0, unchanged 1")

	other := filepath.Join(dir, "elsewhere")
	_, err = run(t, "-c", cfgPath, "build", "-o", other)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "index.html"))
}

func TestBuild_MissingConfig(t *testing.T) {
	_, err := run(t, "-c", filepath.Join(t.TempDir(), "nope.yaml"), "build")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestEmbeds(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	writeFile(t, filepath.Join(dir, "docs", "a.md"), "[Keynote](https://www.youtube.com/watch?v=k1&list=x)\n")
	writeFile(t, filepath.Join(dir, "docs", "b", "c.md"), "[https://youtu.be/k2](https://youtu.be/k2)\n\n[site](https://example.com)\n")

	out, err := run(t, "-c", cfgPath, "embeds", "--json")
	require.NoError(t, err)

	var rows []embedRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []embedRow{
		{Document: "a.md", VideoID: "k1", URL: "https://www.youtube.com/watch?v=k1&list=x", Title: "Keynote"},
		{Document: "b/c.md", VideoID: "k2", URL: "https://youtu.be/k2"},
	}, rows)

	out, err = run(t, "embeds", filepath.Join(dir, "docs", "a.md"))
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT")
	assert.Contains(t, out, "k1")
	assert.Contains(t, out, "Keynote")
}

func TestLinks(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	writeFile(t, filepath.Join(dir, "docs", "a.md"), "---\ntitle: A\n---\n[Talk](https://youtu.be/k1) and ![logo](logo.png)\n")
	writeFile(t, filepath.Join(dir, "docs", "b.md"), "See [a](a.md).\n")

	out, err := run(t, "-c", cfgPath, "links", "--json")
	require.NoError(t, err)

	var rows []linkRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []linkRow{
		{Document: "a.md", Kind: "inline", Destination: "https://youtu.be/k1", VideoID: "k1"},
		{Document: "a.md", Kind: "image", Destination: "logo.png"},
		{Document: "b.md", Kind: "inline", Destination: "a.md"},
	}, rows)

	out, err = run(t, "-c", cfgPath, "links", "--kind", "image")
	require.NoError(t, err)
	assert.Contains(t, out, "DESTINATION")
	assert.Contains(t, out, "logo.png")
	assert.NotContains(t, out, "youtu.be")

	_, err = run(t, "-c", cfgPath, "links", "--kind", "footnote")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestBuild_UnusableStateDB(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	// The state database directory is a regular file.
	writeFile(t, filepath.Join(dir, ".docsite"), "not a directory")
	writeFile(t, filepath.Join(dir, "docs", "index.md"), "# Home\n")

	_, err := run(t, "-c", cfgPath, "build")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
}
