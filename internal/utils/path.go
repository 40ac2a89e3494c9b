package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath expands `~` and returns a cleaned absolute path.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path cannot be empty")
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("failed to retrieve home directory")
		}
		path = strings.Replace(path, "~", homeDir, 1)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.Clean(absPath), nil
}

// NormPath converts path to slash-separated form without leading "./".
func NormPath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
}

// IsSubpath reports whether path is strictly inside parent. Both paths are
// compared segment-wise, so "ab/c" is not a subpath of "a".
func IsSubpath(path, parent string) bool {
	path = NormPath(path)
	parent = NormPath(parent)
	if path == parent {
		return false
	}
	return strings.HasPrefix(path, parent+"/")
}

// CommonPrefix returns the longest common string prefix of the given paths.
// This is a character-wise prefix, not a path-segment one, matching the
// semantics needed for remote prefix listings.
func CommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := paths[0]
	for _, p := range paths[1:] {
		for !strings.HasPrefix(p, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// CommonPath returns the deepest directory shared by all given absolute
// paths, segment-wise.
func CommonPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	split := make([][]string, len(paths))
	for i, p := range paths {
		split[i] = strings.Split(filepath.Clean(p), string(filepath.Separator))
	}

	common := split[0]
	for _, segs := range split[1:] {
		n := min(len(common), len(segs))
		i := 0
		for i < n && common[i] == segs[i] {
			i++
		}
		common = common[:i]
	}

	joined := filepath.Join(common...)
	if strings.HasPrefix(paths[0], string(filepath.Separator)) && !strings.HasPrefix(joined, string(filepath.Separator)) {
		joined = string(filepath.Separator) + joined
	}
	return joined
}
