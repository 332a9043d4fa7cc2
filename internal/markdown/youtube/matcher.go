package youtube

import "strings"

const (
	watchPrefix = "https://www.youtube.com/watch?v="
	shortPrefix = "https://youtu.be/"
	embedPrefix = "https://www.youtube.com/embed/"
)

// VideoID extracts the video identifier from a YouTube watch or short URL.
//
// Matching is exact against the two literal prefixes; no case folding,
// trimming or URL decoding is applied. Trailing query parameters are cut at
// the first '&' (watch URLs) or '?' (short URLs). An empty identifier is
// reported as no match.
func VideoID(href string) (string, bool) {
	if href == "" {
		return "", false
	}

	var id string
	switch {
	case strings.HasPrefix(href, watchPrefix):
		id, _, _ = strings.Cut(href[len(watchPrefix):], "&")
	case strings.HasPrefix(href, shortPrefix):
		id, _, _ = strings.Cut(href[len(shortPrefix):], "?")
	default:
		return "", false
	}

	if id == "" {
		return "", false
	}
	return id, true
}

// EmbedURL returns the player URL for a video identifier.
func EmbedURL(id string) string {
	return embedPrefix + id
}
