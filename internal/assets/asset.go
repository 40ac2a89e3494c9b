package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Kind discriminates the asset variants found in a dataset tree.
type Kind int

const (
	// KindFile is a plain local file asset.
	KindFile Kind = iota
	// KindDirectory is a directory-style asset whose size is unknown until
	// its tree is walked.
	KindDirectory
	// KindChunked is a chunked/streaming directory asset with no fixed
	// content digest. It is never compared by digest.
	KindChunked
	// KindDatasetMeta is the collection-level metadata file. It bypasses
	// digest and compare entirely.
	KindDatasetMeta
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindChunked:
		return "chunked"
	case KindDatasetMeta:
		return "dataset-metadata"
	default:
		return "unknown"
	}
}

// Asset is a unit of synchronizable content with a stable logical path
// inside the target collection. Logical paths are slash-separated and unique
// within one synchronization run.
type Asset interface {
	// Path is the logical path, relative to the dataset root.
	Path() string
	// FilePath is the absolute local filesystem path.
	FilePath() string
	Kind() Kind
	// Size returns the byte size. For directory-style assets this walks the
	// tree and is therefore not cheap.
	Size() (int64, error)
	ModTime() (time.Time, error)
	// Comparable reports whether the asset can be compared against a remote
	// record by content digest.
	Comparable() bool
}

type baseAsset struct {
	logicalPath string
	filePath    string
}

func (a *baseAsset) Path() string     { return a.logicalPath }
func (a *baseAsset) FilePath() string { return a.filePath }

// FileAsset is a regular local file.
type FileAsset struct {
	baseAsset
}

func NewFileAsset(filePath, logicalPath string) *FileAsset {
	return &FileAsset{baseAsset{logicalPath: logicalPath, filePath: filePath}}
}

func (a *FileAsset) Kind() Kind       { return KindFile }
func (a *FileAsset) Comparable() bool { return true }

func (a *FileAsset) Size() (int64, error) {
	info, err := os.Stat(a.filePath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (a *FileAsset) ModTime() (time.Time, error) {
	info, err := os.Stat(a.filePath)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}

// DirectoryAsset is a directory tree treated as a single asset.
type DirectoryAsset struct {
	baseAsset
}

func NewDirectoryAsset(filePath, logicalPath string) *DirectoryAsset {
	return &DirectoryAsset{baseAsset{logicalPath: logicalPath, filePath: filePath}}
}

func (a *DirectoryAsset) Kind() Kind       { return KindDirectory }
func (a *DirectoryAsset) Comparable() bool { return true }

// Size walks the directory and sums the regular files inside it.
func (a *DirectoryAsset) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(a.filePath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", a.filePath, err)
	}
	return total, nil
}

// ModTime returns the newest modification time within the tree.
func (a *DirectoryAsset) ModTime() (time.Time, error) {
	var latest time.Time
	err := filepath.WalkDir(a.filePath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mt := info.ModTime().UTC(); mt.After(latest) {
			latest = mt
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("walk %s: %w", a.filePath, err)
	}
	return latest, nil
}

// ChunkedAsset is a chunked store laid out as a directory. It has no fixed
// content digest, so it can never be digest-compared against a remote record.
type ChunkedAsset struct {
	DirectoryAsset
}

func NewChunkedAsset(filePath, logicalPath string) *ChunkedAsset {
	return &ChunkedAsset{DirectoryAsset{baseAsset{logicalPath: logicalPath, filePath: filePath}}}
}

func (a *ChunkedAsset) Kind() Kind       { return KindChunked }
func (a *ChunkedAsset) Comparable() bool { return false }

// MetadataAsset is the dataset.yaml collection metadata file.
type MetadataAsset struct {
	FileAsset
}

func NewMetadataAsset(filePath string) *MetadataAsset {
	return &MetadataAsset{FileAsset{baseAsset{logicalPath: MetadataFilename, filePath: filePath}}}
}

func (a *MetadataAsset) Kind() Kind       { return KindDatasetMeta }
func (a *MetadataAsset) Comparable() bool { return false }
