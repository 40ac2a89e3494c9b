package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/arcsync/internal/arcsdk"
	"github.com/openarchive/arcsync/internal/digest"
	"github.com/openarchive/arcsync/internal/metadata"
	"github.com/openarchive/arcsync/internal/validate"
)

func testEngine(t *testing.T, fake *fakeCollection) *Engine {
	t.Helper()
	resolver := func(_ context.Context, identifier string) (Collection, error) {
		require.Equal(t, "000123", identifier)
		return fake, nil
	}
	return NewEngine(resolver, digest.NewDigester(nil), &validate.BasicValidator{}, &metadata.StatExtractor{})
}

func TestSyncNotAddressable(t *testing.T) {
	engine := testEngine(t, newFakeCollection())

	_, err := engine.Sync(context.Background(), []string{t.TempDir()}, testOptions())
	assert.ErrorIs(t, err, ErrNotAddressable)
}

func TestSyncInvalidIdentifier(t *testing.T) {
	engine := testEngine(t, newFakeCollection())
	root := makeDataset(t, "not-an-id")

	_, err := engine.Sync(context.Background(), []string{root}, testOptions())
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestSyncInvalidPolicy(t *testing.T) {
	engine := testEngine(t, newFakeCollection())
	root := makeDataset(t, "000123")

	opts := testOptions()
	opts.Policy = Policy("merge")
	_, err := engine.Sync(context.Background(), []string{root}, opts)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestSyncUploadThenIdempotentRerun(t *testing.T) {
	fake := newFakeCollection()
	engine := testEngine(t, fake)
	root := makeDataset(t, "000123")
	writeFile(t, root, "raw/a.dat", "aaaa")
	writeFile(t, root, "raw/b.dat", "bbbb")

	result, err := engine.Sync(context.Background(), []string{root}, testOptions())
	require.NoError(t, err)

	done, skipped, errored := result.Summary()
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, skipped) // dataset.yaml
	assert.Zero(t, errored)
	assert.ElementsMatch(t, []string{"raw/a.dat", "raw/b.dat"}, fake.uploadedPaths())

	// unchanged content skips everything on the second run
	result, err = engine.Sync(context.Background(), []string{root}, testOptions())
	require.NoError(t, err)

	done, skipped, errored = result.Summary()
	assert.Zero(t, done)
	assert.Equal(t, 3, skipped)
	assert.Zero(t, errored)
	assert.Len(t, fake.uploadedPaths(), 2)
}

func TestSyncSubpathOnly(t *testing.T) {
	fake := newFakeCollection()
	engine := testEngine(t, fake)
	root := makeDataset(t, "000123")
	writeFile(t, root, "raw/a.dat", "aaaa")
	writeFile(t, root, "derived/b.dat", "bbbb")
	writeFile(t, root, "raw/c.dat", "cccc")

	result, err := engine.Sync(context.Background(), []string{root + "/raw"}, testOptions())
	require.NoError(t, err)

	done, _, _ := result.Summary()
	assert.Equal(t, 2, done)
	assert.ElementsMatch(t, []string{"raw/a.dat", "raw/c.dat"}, fake.uploadedPaths())
}

func TestSyncFirstErrorSurfaces(t *testing.T) {
	fake := newFakeCollection()
	engine := testEngine(t, fake)
	root := makeDataset(t, "000123")
	writeFile(t, root, "raw/a.dat", "aaaa")
	writeFile(t, root, "raw/b.dat", "bbbb")
	fake.transferErr["raw/b.dat"] = assert.AnError

	result, err := engine.Sync(context.Background(), []string{root}, testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransfer)

	done, _, errored := result.Summary()
	assert.Equal(t, 1, done)
	assert.Equal(t, 1, errored)
}

func TestSyncDeleteSync(t *testing.T) {
	fake := newFakeCollection()
	engine := testEngine(t, fake)
	root := makeDataset(t, "000123")
	writeFile(t, root, "raw/a.dat", "aaaa")

	modified := time.Now().UTC()
	fake.records["raw/gone.dat"] = &arcsdk.RemoteRecord{
		RecordID: "stale",
		Path:     "raw/gone.dat",
		Modified: &modified,
	}

	var prompt string
	opts := testOptions()
	opts.DeleteSync = true
	opts.Confirm = func(p string) bool {
		prompt = p
		return true
	}

	_, err := engine.Sync(context.Background(), []string{root}, opts)
	require.NoError(t, err)

	assert.Equal(t, "Delete 1 asset on the server?", prompt)
	assert.Equal(t, []string{"raw/gone.dat"}, fake.deletedPaths())
	assert.Contains(t, fake.records, "raw/a.dat")
}

func TestSyncDeleteSyncDeclined(t *testing.T) {
	fake := newFakeCollection()
	engine := testEngine(t, fake)
	root := makeDataset(t, "000123")
	writeFile(t, root, "raw/a.dat", "aaaa")
	fake.records["raw/gone.dat"] = &arcsdk.RemoteRecord{RecordID: "stale", Path: "raw/gone.dat"}

	opts := testOptions()
	opts.DeleteSync = true // nil Confirm declines

	_, err := engine.Sync(context.Background(), []string{root}, opts)
	require.NoError(t, err)
	assert.Empty(t, fake.deletedPaths())
	assert.Contains(t, fake.records, "raw/gone.dat")
}
