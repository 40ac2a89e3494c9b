// Package digest computes and caches content digests for local assets.
package digest

import (
	"context"
	"errors"
	"fmt"

	"github.com/openarchive/arcsync/internal/assets"
)

// Algorithm identifies how a digest value was computed. Digests are only
// comparable when their algorithms match; callers must branch explicitly on
// algorithm mismatch instead of treating it as inequality.
type Algorithm string

const (
	// SHA256 is the hex sha256 of a file's content.
	SHA256 Algorithm = "sha256"
	// TreeSHA256 is the digest of a directory asset: the sha256 of a sorted
	// manifest of per-file sha256 values.
	TreeSHA256 Algorithm = "sha256-tree"
)

// ErrDigest wraps all digest computation failures.
var ErrDigest = errors.New("digest failed")

// Digest is an algorithm-tagged content fingerprint.
type Digest struct {
	Algorithm Algorithm
	Value     string
}

func (d Digest) String() string {
	return fmt.Sprintf("%s:%s", d.Algorithm, d.Value)
}

// Provider produces the content digest of an asset.
type Provider interface {
	Digest(ctx context.Context, a assets.Asset) (Digest, error)
}
