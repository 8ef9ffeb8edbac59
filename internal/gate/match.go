// Package gate decides which providers are live for the current navigation
// path. Inactive providers hand out store.Noop collections so consumers
// never branch on whether the real thing is present.
package gate

import "strings"

// Match reports whether path matches pattern.
//
//	"*"        matches every path
//	"/dogs"    matches "/dogs" only
//	"/dogs/*"  matches "/dogs/12" and "/dogs/12/health", but not "/dogs"
//
// Trailing slashes and query strings on path are ignored.
func Match(pattern, path string) bool {
	pattern = strings.TrimSpace(pattern)
	path = clean(path)

	switch {
	case pattern == "":
		return false
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "/*"):
		prefix := clean(strings.TrimSuffix(pattern, "*"))
		return strings.HasPrefix(path, prefix+"/") && len(path) > len(prefix)+1
	default:
		return path == clean(pattern)
	}
}

// Active reports whether any pattern matches path.
func Active(path string, patterns []string) bool {
	for _, p := range patterns {
		if Match(p, path) {
			return true
		}
	}
	return false
}

func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
