package assets

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/openarchive/arcsync/internal/utils"
)

// chunkedLayouts are directory name patterns treated as single chunked
// assets. Discovery does not descend into them.
var chunkedLayouts = []string{"*.zarr", "*.chunks"}

func isChunkedLayout(name string) bool {
	for _, pattern := range chunkedLayouts {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Discover walks the given paths inside the dataset and returns the assets
// to synchronize, ordered by logical path. Each logical path appears exactly
// once. When includeMetadata is set and the dataset metadata file falls
// under one of the paths, it is included as a MetadataAsset.
func Discover(ds *Dataset, paths []string, includeMetadata bool) ([]Asset, error) {
	if len(paths) == 0 {
		paths = []string{ds.Root}
	}

	ignore := NewIgnoreList(ds.Root)
	byPath := make(map[string]Asset)

	for _, p := range paths {
		abs, err := utils.ResolvePath(p)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(abs, ds.Root) {
			return nil, fmt.Errorf("path %s is outside dataset root %s", abs, ds.Root)
		}

		if utils.FileExists(abs) {
			asset, err := classifyFile(ds, abs, includeMetadata)
			if err != nil {
				return nil, err
			}
			if asset != nil {
				byPath[asset.Path()] = asset
			}
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, relErr := ds.RelPath(path)
			if relErr != nil {
				return relErr
			}
			if rel == "." {
				return nil
			}

			if ignore.ShouldIgnore(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if isChunkedLayout(d.Name()) {
					byPath[rel] = NewChunkedAsset(path, rel)
					return filepath.SkipDir
				}
				return nil
			}

			asset, classErr := classifyFile(ds, path, includeMetadata)
			if classErr != nil {
				return classErr
			}
			if asset != nil {
				byPath[asset.Path()] = asset
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", abs, err)
		}
	}

	ordered := make([]string, 0, len(byPath))
	for path := range byPath {
		ordered = append(ordered, path)
	}
	sort.Strings(ordered)

	result := make([]Asset, 0, len(ordered))
	for _, path := range ordered {
		result = append(result, byPath[path])
	}
	return result, nil
}

func classifyFile(ds *Dataset, absPath string, includeMetadata bool) (Asset, error) {
	rel, err := ds.RelPath(absPath)
	if err != nil {
		return nil, err
	}

	if rel == MetadataFilename {
		if !includeMetadata {
			return nil, nil
		}
		return NewMetadataAsset(absPath), nil
	}

	return NewFileAsset(absPath, rel), nil
}
