package hostctx

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// IterFiles returns the workspace files matching the include globs and none
// of the exclude globs. Patterns use slash-separated segments with "*", "?"
// and "**" (zero or more directories). Results are cached per pattern set for
// the lifetime of the Context so several plugins scanning the same patterns
// within one run only walk the tree once.
func (c *Context) IterFiles(include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{"**/*"}
	}

	key := cacheKey(include, exclude)
	c.cache.mu.Lock()
	if cached, ok := c.cache.files[key]; ok {
		c.cache.mu.Unlock()
		return append([]string(nil), cached...), nil
	}
	c.cache.mu.Unlock()

	var matches []string
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		slashed := filepath.ToSlash(rel)
		if !matchesAny(include, slashed) || matchesAny(exclude, slashed) {
			return nil
		}
		matches = append(matches, slashed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	c.cache.mu.Lock()
	c.cache.files[key] = matches
	c.cache.mu.Unlock()
	return append([]string(nil), matches...), nil
}

func cacheKey(include, exclude []string) string {
	inc := append([]string(nil), include...)
	exc := append([]string(nil), exclude...)
	sort.Strings(inc)
	sort.Strings(exc)
	return strings.Join(inc, "\x00") + "\x01" + strings.Join(exc, "\x00")
}

func matchesAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if matchGlob(pat, name) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated path against a glob pattern where "**"
// spans zero or more path segments and every other segment follows path.Match
// rules.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	if pattern[0] == "**" {
		// Zero or more leading segments.
		for skip := 0; skip <= len(name); skip++ {
			if matchSegments(pattern[1:], name[skip:]) {
				return true
			}
		}
		return false
	}
	if len(name) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], name[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], name[1:])
}
