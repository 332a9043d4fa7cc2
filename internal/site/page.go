package site

import (
	"html/template"
	"io"
	"time"
)

// Page is one written (or reused) output document.
type Page struct {
	Source      string // Path relative to the source directory, slash separated
	Output      string // Path relative to the output directory, slash separated
	Title       string
	Embeds      int
	Fingerprint string
	Skipped     bool // Output was current and not rewritten
}

// PageError records a document that failed to render.
type PageError struct {
	Source string
	Err    error
}

func (e PageError) Error() string { return e.Source + ": " + e.Err.Error() }
func (e PageError) Unwrap() error { return e.Err }

// Report summarizes a build.
type Report struct {
	BuildID   string
	Outcome   string
	Commit    string
	StartedAt time.Time
	Duration  time.Duration
	Pages     []Page
	Rendered  int
	Skipped   int
	Drafts    int
	Embeds    int
	Errors    []PageError
}

var shell = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}{{with .SiteTitle}} | {{.}}{{end}}</title>
{{- with .Description}}
<meta name="description" content="{{.}}">
{{- end}}
{{- with .Stylesheet}}
<link rel="stylesheet" href="{{.}}">
{{- end}}
</head>
<body>
<main>
{{.Content}}</main>
</body>
</html>
`))

type shellData struct {
	Title       string
	SiteTitle   string
	Description string
	Stylesheet  string
	Content     template.HTML
}

func writeShell(w io.Writer, data shellData) error {
	return shell.Execute(w, data)
}
