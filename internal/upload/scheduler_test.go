package upload

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarchive/arcsync/internal/assets"
)

func fileAssets(t *testing.T, count int) []assets.Asset {
	t.Helper()
	dir := t.TempDir()
	out := make([]assets.Asset, 0, count)
	for i := 0; i < count; i++ {
		rel := fmt.Sprintf("raw/f%02d.dat", i)
		path := writeFile(t, dir, rel, fmt.Sprintf("content-%d", i))
		out = append(out, assets.NewFileAsset(path, rel))
	}
	return out
}

func TestSchedulerBoundedConcurrency(t *testing.T) {
	fake := newFakeCollection()
	fake.transferDelay = 20 * time.Millisecond
	assetList := fileAssets(t, 12)

	opts := testOptions()
	result := NewBatchResult()
	scheduler := NewScheduler(3, false)
	require.NoError(t, scheduler.Run(context.Background(), assetList, testDeps(fake), opts, result))

	assert.LessOrEqual(t, fake.maxActive, 3)
	assert.Len(t, fake.uploadedPaths(), 12)

	done, skipped, errored := result.Summary()
	assert.Equal(t, 12, done)
	assert.Zero(t, skipped)
	assert.Zero(t, errored)
	assert.NoError(t, result.FirstError())
}

func TestSchedulerOutcomeOrderMatchesDispatch(t *testing.T) {
	fake := newFakeCollection()
	assetList := fileAssets(t, 5)

	result := NewBatchResult()
	scheduler := NewScheduler(2, false)
	require.NoError(t, scheduler.Run(context.Background(), assetList, testDeps(fake), testOptions(), result))

	outcomes := result.Outcomes()
	require.Len(t, outcomes, 5)
	for i, outcome := range outcomes {
		assert.Equal(t, assetList[i].Path(), outcome.Path)
	}
}

func TestSchedulerDuplicatePathDispatchedOnce(t *testing.T) {
	fake := newFakeCollection()
	dir := t.TempDir()
	path := writeFile(t, dir, "raw/a.dat", "data")
	assetList := []assets.Asset{
		assets.NewFileAsset(path, "raw/a.dat"),
		assets.NewFileAsset(path, "raw/a.dat"),
	}

	result := NewBatchResult()
	scheduler := NewScheduler(2, false)
	require.NoError(t, scheduler.Run(context.Background(), assetList, testDeps(fake), testOptions(), result))

	assert.Len(t, result.Outcomes(), 1)
	assert.Len(t, fake.uploadedPaths(), 1)
	assert.ErrorIs(t, result.FirstError(), ErrDuplicatePath)
}

func TestSchedulerPartialFailureIsolated(t *testing.T) {
	fake := newFakeCollection()
	assetList := fileAssets(t, 3)
	failing := assetList[1].Path()
	fake.transferErr[failing] = errors.New("disk on fire")

	result := NewBatchResult()
	scheduler := NewScheduler(3, false)
	require.NoError(t, scheduler.Run(context.Background(), assetList, testDeps(fake), testOptions(), result))

	done, _, errored := result.Summary()
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, errored)

	status, message := result.Outcome(failing).Status()
	assert.Equal(t, OutcomeErrored, status)
	assert.Contains(t, message, "disk on fire")
	assert.ErrorIs(t, result.FirstError(), ErrTransfer)
}

func TestSchedulerSerialStopsAtFirstError(t *testing.T) {
	fake := newFakeCollection()
	assetList := fileAssets(t, 3)
	fake.transferErr[assetList[1].Path()] = errors.New("boom")

	result := NewBatchResult()
	scheduler := NewScheduler(1, true)
	err := scheduler.Run(context.Background(), assetList, testDeps(fake), testOptions(), result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransfer)

	// the third asset is never dispatched
	assert.Equal(t, []string{assetList[0].Path()}, fake.uploadedPaths())
	assert.Len(t, result.Outcomes(), 2)
}

func TestSchedulerCancelledContext(t *testing.T) {
	fake := newFakeCollection()
	fake.transferDelay = 50 * time.Millisecond
	assetList := fileAssets(t, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewBatchResult()
	scheduler := NewScheduler(2, false)
	_ = scheduler.Run(ctx, assetList, testDeps(fake), testOptions(), result)

	assert.Empty(t, fake.uploadedPaths())
	assert.ErrorIs(t, result.FirstError(), context.Canceled)
}
