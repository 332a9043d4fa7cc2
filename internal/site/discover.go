package site

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Discover lists Markdown documents below root as slash separated relative
// paths, sorted. Hidden directories, skipDirs and paths matching any exclude
// pattern are left out.
func Discover(root string, exclude []string, skipDirs ...string) ([]string, error) {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}

	var docs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || excluded(rel, exclude) {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(p); err == nil && skip[abs] {
				return filepath.SkipDir
			}
			return nil
		}

		if !isMarkdown(d.Name()) || excluded(rel, exclude) {
			return nil
		}
		docs = append(docs, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// excluded matches rel against each pattern, and against its base name for
// patterns without a slash.
func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

// outputPath maps a source document to its HTML file name.
func outputPath(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
}
