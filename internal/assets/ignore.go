package assets

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFilename holds gitignore-style patterns at the dataset root.
const IgnoreFilename = ".arcignore"

var defaultIgnorePatterns = []string{
	".git/",
	".arcsync/",
	".DS_Store",
	"Thumbs.db",
	IgnoreFilename,
	"*.conflicted",
}

// IgnoreList decides which relative paths are excluded from discovery.
type IgnoreList struct {
	matcher *gitignore.GitIgnore
}

// NewIgnoreList builds the ignore rules for a dataset root, combining the
// built-in defaults with the root's ignore file when present.
func NewIgnoreList(root string) *IgnoreList {
	patterns := make([]string, 0, len(defaultIgnorePatterns))
	patterns = append(patterns, defaultIgnorePatterns...)

	ignorePath := filepath.Join(root, IgnoreFilename)
	if file, err := os.Open(ignorePath); err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			patterns = append(patterns, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("read ignore file", "path", ignorePath, "error", err)
		}
	}

	return &IgnoreList{matcher: gitignore.CompileIgnoreLines(patterns...)}
}

func (l *IgnoreList) ShouldIgnore(relPath string) bool {
	return l.matcher.MatchesPath(relPath)
}
