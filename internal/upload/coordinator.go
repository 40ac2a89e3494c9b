// Package upload synchronizes a local dataset tree into its remote
// collection: per-asset skip/overwrite/reupload decisions, a bounded
// concurrency scheduler, and an optional delete pass for remote assets that
// disappeared locally.
package upload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openarchive/arcsync/internal/assets"
	"github.com/openarchive/arcsync/internal/digest"
	"github.com/openarchive/arcsync/internal/metadata"
	"github.com/openarchive/arcsync/internal/utils"
	"github.com/openarchive/arcsync/internal/validate"
)

// ConfirmFunc asks the user a yes/no question before a destructive step.
// A nil ConfirmFunc declines everything.
type ConfirmFunc func(prompt string) bool

// ResolverFunc opens the remote collection for a dataset identifier.
type ResolverFunc func(ctx context.Context, identifier string) (Collection, error)

// Options controls one Sync run.
type Options struct {
	// Policy decides what happens when an asset already exists remotely.
	Policy Policy
	// Validation selects how pre-upload validation findings are handled.
	Validation validate.Mode
	// UploadDatasetMetadata pushes the local dataset metadata file to the
	// collection instead of skipping it.
	UploadDatasetMetadata bool
	// Jobs bounds how many assets are processed concurrently.
	Jobs int
	// JobsPerAsset bounds parallelism inside one asset's transfer.
	JobsPerAsset int
	// Serial runs assets one at a time and stops at the first error.
	Serial bool
	// DeleteSync removes remote assets with no local counterpart after a
	// fully successful run.
	DeleteSync bool
	// Confirm gates remote deletions.
	Confirm ConfirmFunc
	// OnEvent receives per-asset progress events.
	OnEvent EventFunc

	datasetMeta map[string]any
}

func defaultOptions() *Options {
	return &Options{
		Policy:     PolicyRefresh,
		Validation: validate.ModeRequire,
	}
}

// Engine coordinates dataset resolution, asset discovery, the per-asset
// scheduler, and the optional delete pass.
type Engine struct {
	resolve   ResolverFunc
	digester  digest.Provider
	validator validate.Validator
	extractor metadata.Extractor
}

func NewEngine(resolve ResolverFunc, digester digest.Provider, validator validate.Validator, extractor metadata.Extractor) *Engine {
	return &Engine{
		resolve:   resolve,
		digester:  digester,
		validator: validator,
		extractor: extractor,
	}
}

// Sync uploads the assets reachable from paths into their dataset's remote
// collection. The returned BatchResult is non-nil whenever asset processing
// started, including on error; the error mirrors the first job failure so
// callers can exit non-zero.
func (e *Engine) Sync(ctx context.Context, paths []string, opts *Options) (*BatchResult, error) {
	if opts == nil {
		opts = defaultOptions()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyRefresh
	}
	if !opts.Policy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, opts.Policy)
	}
	if opts.Validation == "" {
		opts.Validation = validate.ModeRequire
	}

	ds, absPaths, err := resolveDataset(paths)
	if err != nil {
		return nil, err
	}
	if !ds.ValidIdentifier() {
		return nil, fmt.Errorf("%w: %q in %s", ErrInvalidIdentifier, ds.Identifier, ds.MetadataPath())
	}
	opts.datasetMeta = ds.Meta

	collection, err := e.resolve(ctx, ds.Identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve collection %s: %w", ds.Identifier, err)
	}

	assetList, err := assets.Discover(ds, absPaths, true)
	if err != nil {
		return nil, err
	}
	slog.Info("found assets to consider",
		"dataset", ds.Identifier,
		"root", ds.Root,
		"count", len(assetList),
	)

	result := NewBatchResult()
	deps := &Dependencies{
		Digester:   e.digester,
		Validator:  e.validator,
		Extractor:  e.extractor,
		Collection: collection,
	}

	scheduler := NewScheduler(opts.Jobs, opts.Serial)
	if err := scheduler.Run(ctx, assetList, deps, opts, result); err != nil {
		return result, err
	}

	if !result.ValidateOK() {
		slog.Warn("one or more assets failed validation", "dataset", ds.Identifier)
	}
	if first := result.FirstError(); first != nil {
		return result, first
	}

	if opts.DeleteSync {
		if err := e.deleteSync(ctx, ds, collection, absPaths, opts); err != nil {
			return result, err
		}
	}

	return result, nil
}

// resolveDataset maps the given paths to one dataset. All paths must share a
// single dataset root; with no paths the working directory's dataset is used.
func resolveDataset(paths []string) (*assets.Dataset, []string, error) {
	absPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := utils.ResolvePath(p)
		if err != nil {
			return nil, nil, err
		}
		absPaths = append(absPaths, abs)
	}

	start := "."
	if len(absPaths) > 0 {
		start = utils.CommonPath(absPaths)
	}

	ds, err := assets.FindDataset(start)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotAddressable, err)
	}
	if len(absPaths) == 0 {
		absPaths = []string{ds.Root}
	}
	return ds, absPaths, nil
}
