// Package relpath computes a relative path between two path fragments
// without touching the filesystem: no stat, no symlink resolution, no
// cwd lookup. It exists so the listing builder (pkg/archive) can turn
// an absolute-or-relative walk path into the POSIX-separated, rootless
// path string the archive format requires.
package relpath

import (
	"path/filepath"
	"strings"
)

// Rel returns the path of target relative to base, using forward
// slashes regardless of host OS. Both base and target are treated as
// plain strings — they are cleaned and split lexically, never resolved
// against the filesystem, so callers get the same answer whether or
// not either path exists.
func Rel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsEscaping reports whether a relative path climbs above its root,
// e.g. "../x" or "a/../../b". Used to enforce the "relative, no
// leading separator, no .. escaping the root" path invariant.
func IsEscaping(rel string) bool {
	if rel == "." {
		return false
	}
	if strings.HasPrefix(rel, "/") {
		return true
	}
	depth := 0
	for _, seg := range strings.Split(rel, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}
