package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/openarchive/arcsync/internal/assets"
	"github.com/openarchive/arcsync/internal/utils"
)

// Digester computes sha256-based digests, consulting a cache keyed by
// (path, size, mtime) so unchanged assets are never re-hashed.
type Digester struct {
	cache *Cache
}

// NewDigester returns a Digester. cache may be nil to disable caching.
func NewDigester(cache *Cache) *Digester {
	return &Digester{cache: cache}
}

var _ Provider = (*Digester)(nil)

// Digest computes the asset's content digest.
func (d *Digester) Digest(ctx context.Context, a assets.Asset) (Digest, error) {
	alg := SHA256
	if a.Kind() == assets.KindDirectory || a.Kind() == assets.KindChunked {
		alg = TreeSHA256
	}

	size, err := a.Size()
	if err != nil {
		return Digest{}, fmt.Errorf("%w: size %s: %s", ErrDigest, a.Path(), err)
	}
	mtime, err := a.ModTime()
	if err != nil {
		return Digest{}, fmt.Errorf("%w: mtime %s: %s", ErrDigest, a.Path(), err)
	}

	if d.cache != nil {
		if value, ok := d.cache.Get(a.FilePath(), size, mtime.UnixNano(), alg); ok {
			return Digest{Algorithm: alg, Value: value}, nil
		}
	}

	var value string
	if alg == TreeSHA256 {
		value, err = treeDigest(ctx, a.FilePath())
	} else {
		value, err = fileDigest(ctx, a.FilePath())
	}
	if err != nil {
		return Digest{}, fmt.Errorf("%w: %s: %s", ErrDigest, a.Path(), err)
	}

	if d.cache != nil {
		d.cache.Put(a.FilePath(), size, mtime.UnixNano(), alg, value)
	}

	return Digest{Algorithm: alg, Value: value}, nil
}

func fileDigest(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// treeDigest hashes a sorted manifest of "relpath:sha256" lines, so the
// result is independent of walk order and filesystem layout.
func treeDigest(ctx context.Context, root string) (string, error) {
	var relPaths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPaths = append(relPaths, utils.NormPath(rel))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(relPaths)

	manifest := sha256.New()
	for _, rel := range relPaths {
		value, err := fileDigest(ctx, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(manifest, "%s:%s\n", rel, value)
	}

	return hex.EncodeToString(manifest.Sum(nil)), nil
}
