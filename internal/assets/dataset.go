package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/openarchive/arcsync/internal/utils"
)

// MetadataFilename marks the root of a dataset tree.
const MetadataFilename = "dataset.yaml"

// identifierPattern is the convention archive collection identifiers follow.
var identifierPattern = regexp.MustCompile(`^[0-9]{6}$`)

var ErrNoDataset = errors.New("no dataset metadata file found")

// Dataset is a local dataset tree rooted at the directory holding its
// metadata file.
type Dataset struct {
	Root       string
	Identifier string
	Meta       map[string]any
}

// FindDataset walks up from start looking for the directory that contains
// the dataset metadata file.
func FindDataset(start string) (*Dataset, error) {
	dir, err := utils.ResolvePath(start)
	if err != nil {
		return nil, err
	}
	if utils.FileExists(dir) {
		dir = filepath.Dir(dir)
	}

	for {
		if utils.FileExists(filepath.Join(dir, MetadataFilename)) {
			return LoadDataset(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w in any ancestor of %s", ErrNoDataset, start)
		}
		dir = parent
	}
}

// LoadDataset reads and parses the metadata file at root.
func LoadDataset(root string) (*Dataset, error) {
	metaPath := filepath.Join(root, MetadataFilename)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", metaPath, err)
	}

	var meta map[string]any
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metaPath, err)
	}

	identifier, _ := meta["identifier"].(string)

	return &Dataset{
		Root:       root,
		Identifier: identifier,
		Meta:       meta,
	}, nil
}

// ValidIdentifier reports whether the dataset identifier follows the
// archive's identifier convention.
func (d *Dataset) ValidIdentifier() bool {
	return identifierPattern.MatchString(d.Identifier)
}

// MetadataPath returns the absolute path of the dataset metadata file.
func (d *Dataset) MetadataPath() string {
	return filepath.Join(d.Root, MetadataFilename)
}

// RelPath converts an absolute path inside the dataset to a slash-separated
// logical path.
func (d *Dataset) RelPath(absPath string) (string, error) {
	rel, err := filepath.Rel(d.Root, absPath)
	if err != nil {
		return "", err
	}
	return utils.NormPath(rel), nil
}
