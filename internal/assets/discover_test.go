package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, MetadataFilename), "identifier: \"000123\"\nname: test dataset\n")
	ds, err := LoadDataset(root)
	require.NoError(t, err)
	return ds
}

func TestFindDatasetWalksUp(t *testing.T) {
	ds := newTestDataset(t)
	nested := filepath.Join(ds.Root, "raw", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindDataset(nested)
	require.NoError(t, err)
	assert.Equal(t, ds.Root, found.Root)
	assert.Equal(t, "000123", found.Identifier)
	assert.True(t, found.ValidIdentifier())
}

func TestFindDatasetMissing(t *testing.T) {
	_, err := FindDataset(t.TempDir())
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDiscoverOrderedAndUnique(t *testing.T) {
	ds := newTestDataset(t)
	writeFile(t, filepath.Join(ds.Root, "raw", "b.dat"), "bbb")
	writeFile(t, filepath.Join(ds.Root, "raw", "a.dat"), "aaa")
	writeFile(t, filepath.Join(ds.Root, "derived", "c.dat"), "ccc")

	// overlapping inputs must not duplicate logical paths
	found, err := Discover(ds, []string{ds.Root, filepath.Join(ds.Root, "raw")}, true)
	require.NoError(t, err)

	var paths []string
	for _, a := range found {
		paths = append(paths, a.Path())
	}
	assert.Equal(t, []string{"dataset.yaml", "derived/c.dat", "raw/a.dat", "raw/b.dat"}, paths)
	assert.Equal(t, KindDatasetMeta, found[0].Kind())
}

func TestDiscoverChunkedLayout(t *testing.T) {
	ds := newTestDataset(t)
	writeFile(t, filepath.Join(ds.Root, "raw", "vol.zarr", "0", "chunk0"), "xxxx")
	writeFile(t, filepath.Join(ds.Root, "raw", "vol.zarr", "0", "chunk1"), "yyyy")

	found, err := Discover(ds, nil, false)
	require.NoError(t, err)
	require.Len(t, found, 1)

	asset := found[0]
	assert.Equal(t, "raw/vol.zarr", asset.Path())
	assert.Equal(t, KindChunked, asset.Kind())
	assert.False(t, asset.Comparable())

	size, err := asset.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}

func TestDiscoverHonorsIgnoreFile(t *testing.T) {
	ds := newTestDataset(t)
	writeFile(t, filepath.Join(ds.Root, IgnoreFilename), "*.tmp\nscratch/\n")
	writeFile(t, filepath.Join(ds.Root, "keep.dat"), "k")
	writeFile(t, filepath.Join(ds.Root, "drop.tmp"), "d")
	writeFile(t, filepath.Join(ds.Root, "scratch", "wip.dat"), "w")

	found, err := Discover(ds, nil, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "keep.dat", found[0].Path())
}

func TestDiscoverSingleFileInput(t *testing.T) {
	ds := newTestDataset(t)
	target := filepath.Join(ds.Root, "raw", "a.dat")
	writeFile(t, target, "aaa")
	writeFile(t, filepath.Join(ds.Root, "raw", "b.dat"), "bbb")

	found, err := Discover(ds, []string{target}, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "raw/a.dat", found[0].Path())

	size, err := found[0].Size()
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}
