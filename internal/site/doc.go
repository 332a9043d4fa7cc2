// Package site turns a directory of Markdown documents into a directory of
// HTML pages.
//
// Every document is rendered in its own pass through the goldmark engine, so
// YouTube embed state never crosses document boundaries even though pages
// render in parallel. A Builder may be driven once (the build command), by
// a Watcher on file changes, or by a Scheduler on a fixed interval.
package site
