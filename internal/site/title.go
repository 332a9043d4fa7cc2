package site

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleFromPath derives a page title from a slash separated source path.
// "getting-started.md" becomes "Getting Started"; an index document takes
// the name of its directory.
func titleFromPath(rel, fallback string) string {
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if strings.EqualFold(name, "index") || strings.EqualFold(name, "readme") {
		dir := path.Dir(rel)
		if dir == "." {
			return fallback
		}
		name = path.Base(dir)
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return fallback
	}
	// cases.Caser is stateful and not safe for concurrent use.
	return cases.Title(language.English).String(name)
}
