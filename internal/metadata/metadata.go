// Package metadata derives the upload metadata document for an asset.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openarchive/arcsync/internal/assets"
	"github.com/openarchive/arcsync/internal/digest"
	"github.com/openarchive/arcsync/internal/utils"
)

// ErrExtract wraps all metadata extraction failures so callers can treat
// them uniformly.
var ErrExtract = errors.New("metadata extraction failed")

// Document is the metadata payload attached to an uploaded asset.
type Document map[string]any

// Extractor derives the metadata document for an asset. The digest may be
// nil for assets that defer digesting.
type Extractor interface {
	Extract(ctx context.Context, a assets.Asset, d *digest.Digest) (Document, error)
}

// StatExtractor builds the document from filesystem facts and the digest.
// With IgnoreErrors set, a partially built document is returned instead of
// an error when individual facts cannot be read.
type StatExtractor struct {
	IgnoreErrors bool
}

var _ Extractor = (*StatExtractor)(nil)

func (e *StatExtractor) Extract(ctx context.Context, a assets.Asset, d *digest.Digest) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := Document{
		"path":           a.Path(),
		"encodingFormat": utils.DetectContentType(a.Path()),
	}

	size, err := a.Size()
	if err != nil {
		if !e.IgnoreErrors {
			return nil, fmt.Errorf("%w: size of %s: %s", ErrExtract, a.Path(), err)
		}
	} else {
		doc["contentSize"] = size
	}

	mtime, err := a.ModTime()
	if err != nil {
		if !e.IgnoreErrors {
			return nil, fmt.Errorf("%w: mtime of %s: %s", ErrExtract, a.Path(), err)
		}
	} else {
		doc["blobDateModified"] = mtime.Format(time.RFC3339Nano)
	}

	if d != nil {
		doc["digest"] = map[string]string{string(d.Algorithm): d.Value}
	}

	return doc, nil
}
