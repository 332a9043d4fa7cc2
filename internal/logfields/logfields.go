package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyDocument   = "document"
	KeyOutput     = "output"
	KeyPath       = "path"
	KeyVideoID    = "video_id"
	KeyEmbeds     = "embeds"
	KeyPages      = "pages"
	KeySkipped    = "skipped"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyRepository = "repository"
	KeyBranch     = "branch"
	KeyCommit     = "commit"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Document(rel string) slog.Attr    { return slog.String(KeyDocument, rel) }
func Output(path string) slog.Attr     { return slog.String(KeyOutput, path) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func VideoID(id string) slog.Attr      { return slog.String(KeyVideoID, id) }
func Embeds(n int) slog.Attr           { return slog.Int(KeyEmbeds, n) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Skipped(n int) slog.Attr          { return slog.Int(KeySkipped, n) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Repository(url string) slog.Attr  { return slog.String(KeyRepository, url) }
func Branch(b string) slog.Attr        { return slog.String(KeyBranch, b) }
func Commit(hash string) slog.Attr     { return slog.String(KeyCommit, hash) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
