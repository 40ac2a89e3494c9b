package upload

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openarchive/arcsync/internal/arcsdk"
	"github.com/openarchive/arcsync/internal/assets"
	"github.com/openarchive/arcsync/internal/digest"
	"github.com/openarchive/arcsync/internal/metadata"
	"github.com/openarchive/arcsync/internal/validate"
)

// Collection is the remote surface a job needs. *arcsdk.Collection satisfies
// it; tests substitute fakes.
type Collection interface {
	Info() arcsdk.CollectionInfo
	GetRecord(ctx context.Context, path string) (*arcsdk.RemoteRecord, error)
	ListRecords(ctx context.Context, prefix string) ([]*arcsdk.RemoteRecord, error)
	DeleteRecord(ctx context.Context, record *arcsdk.RemoteRecord) error
	SetMetadata(ctx context.Context, doc map[string]any) error
	Transfer(ctx context.Context, params *arcsdk.TransferParams) (<-chan arcsdk.TransferEvent, error)
}

var _ Collection = (*arcsdk.Collection)(nil)

// Dependencies are the collaborators shared by every job in one run.
type Dependencies struct {
	Digester   digest.Provider
	Validator  validate.Validator
	Extractor  metadata.Extractor
	Collection Collection
}

type stepAction int

const (
	// stepContinue advances to the next phase.
	stepContinue stepAction = iota
	// stepSkipAsset ends the job as skipped, with a reason.
	stepSkipAsset
	// stepDone ends the job as done.
	stepDone
)

type stepResult struct {
	action stepAction
	reason string
}

var proceed = stepResult{action: stepContinue}

// job drives one asset through its upload lifecycle. Each phase returns a
// step result to advance, skip, or finish, or an error to fail the asset.
// A job is run at most once.
type job struct {
	asset   assets.Asset
	outcome *AssetOutcome
	result  *BatchResult
	deps    *Dependencies
	opts    *Options

	localDigest *digest.Digest
	remote      *arcsdk.RemoteRecord
	replacing   *arcsdk.RemoteRecord
}

func (j *job) emit(ev Event) {
	if j.opts.OnEvent == nil {
		return
	}
	ev.Path = j.asset.Path()
	j.opts.OnEvent(ev)
}

func (j *job) status(label string) {
	j.emit(Event{Kind: EventStatus, Status: label})
}

func (j *job) run(ctx context.Context) error {
	steps := []func(context.Context) (stepResult, error){
		j.stepSize,
		j.stepValidate,
		j.stepDatasetMetadata,
		j.stepCompare,
		j.stepTransfer,
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := step(ctx)
		if err != nil {
			return err
		}
		switch res.action {
		case stepSkipAsset:
			j.outcome.SetStatus(OutcomeSkipped, res.reason)
			j.emit(Event{Kind: EventStatus, Status: StatusSkipped, Message: res.reason})
			return nil
		case stepDone:
			j.outcome.SetStatus(OutcomeDone, "")
			j.status(StatusDone)
			return nil
		}
	}

	j.outcome.SetStatus(OutcomeDone, "")
	j.status(StatusDone)
	return nil
}

// fail records a terminal error on the outcome and surfaces it to listeners.
func (j *job) fail(err error) {
	msg := err.Error()
	j.outcome.AddError(msg)
	j.outcome.SetStatus(OutcomeErrored, msg)
	j.emit(Event{Kind: EventError, Message: msg})
}

// stepSize resolves the asset size up front. Directory-style assets defer it;
// walking their tree here would double the filesystem cost.
func (j *job) stepSize(context.Context) (stepResult, error) {
	switch j.asset.Kind() {
	case assets.KindDirectory, assets.KindChunked:
		return proceed, nil
	}

	size, err := j.asset.Size()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stepResult{}, fmt.Errorf("file not found: %s", j.asset.FilePath())
		}
		return stepResult{}, fmt.Errorf("stat %s: %w", j.asset.FilePath(), err)
	}
	j.outcome.SetSize(size)
	return proceed, nil
}

func (j *job) stepValidate(ctx context.Context) (stepResult, error) {
	if j.opts.Validation == validate.ModeSkip || j.asset.Kind() == assets.KindDatasetMeta {
		return proceed, nil
	}

	j.status(StatusPreValidating)
	issues, err := j.deps.Validator.Validate(ctx, j.asset)
	if err != nil {
		return stepResult{}, fmt.Errorf("validate %s: %w", j.asset.Path(), err)
	}

	blocking := validate.Blocking(issues)
	j.outcome.SetValidationIssues(len(blocking))
	if len(blocking) == 0 {
		j.status(StatusValidated)
		return proceed, nil
	}

	if j.opts.Validation == validate.ModeRequire {
		j.result.MarkValidateFailed()
		return stepResult{}, fmt.Errorf("%w: %s", ErrFailedValidation, blocking[0])
	}
	return proceed, nil
}

// stepDatasetMetadata short-circuits the collection metadata file: it is
// pushed through the metadata endpoint, never uploaded as a record.
func (j *job) stepDatasetMetadata(ctx context.Context) (stepResult, error) {
	if j.asset.Kind() != assets.KindDatasetMeta {
		return proceed, nil
	}

	if !j.opts.UploadDatasetMetadata {
		return stepResult{action: stepSkipAsset, reason: "should be edited online"}, nil
	}

	j.status(StatusUpdatingMeta)
	if err := j.deps.Collection.SetMetadata(ctx, j.opts.datasetMeta); err != nil {
		return stepResult{}, fmt.Errorf("set collection metadata: %w", err)
	}
	j.status(StatusUpdatedMeta)
	return stepResult{action: stepDone}, nil
}

// stepCompare looks up the remote record, digests the asset when needed, and
// applies the conflict policy. The remote lookup happens before digesting so
// the "error" policy can fail an existing asset without paying for a digest.
func (j *job) stepCompare(ctx context.Context) (stepResult, error) {
	remote, err := j.deps.Collection.GetRecord(ctx, j.asset.Path())
	if err != nil && !errors.Is(err, arcsdk.ErrRecordNotFound) {
		return stepResult{}, fmt.Errorf("get record %s: %w", j.asset.Path(), err)
	}
	j.remote = remote

	mtime, err := j.asset.ModTime()
	if err != nil {
		return stepResult{}, fmt.Errorf("mtime %s: %w", j.asset.FilePath(), err)
	}

	if remote != nil && j.opts.Policy == PolicyError && j.asset.Comparable() {
		dec, err := Decide(true, nil, mtime, remote, PolicyError)
		if err != nil {
			return stepResult{}, err
		}
		return stepResult{}, fmt.Errorf("%s: %w", dec.Reason, ErrAssetExists)
	}

	if j.asset.Comparable() {
		j.status(StatusDigesting)
		d, err := j.deps.Digester.Digest(ctx, j.asset)
		if err != nil {
			return stepResult{}, fmt.Errorf("digest %s: %w", j.asset.Path(), err)
		}
		j.localDigest = &d
	}

	dec, err := Decide(j.asset.Comparable(), j.localDigest, mtime, remote, j.opts.Policy)
	if err != nil {
		return stepResult{}, err
	}

	switch dec.Action {
	case ActionFail:
		return stepResult{}, fmt.Errorf("%s: %w", dec.Reason, ErrAssetExists)
	case ActionSkip:
		return stepResult{action: stepSkipAsset, reason: dec.Reason}, nil
	case ActionReplace:
		j.replacing = remote
		j.emit(Event{Kind: EventStatus, Message: dec.Reason})
	}
	return proceed, nil
}

func (j *job) stepTransfer(ctx context.Context) (stepResult, error) {
	j.status(StatusExtracting)
	doc, err := j.deps.Extractor.Extract(ctx, j.asset, j.localDigest)
	if err != nil {
		return stepResult{}, fmt.Errorf("extract metadata %s: %w", j.asset.Path(), err)
	}

	j.status(StatusUploading)
	events, err := j.deps.Collection.Transfer(ctx, &arcsdk.TransferParams{
		Path:        j.asset.Path(),
		FilePath:    j.asset.FilePath(),
		Metadata:    doc,
		Replace:     j.replacing,
		Parallelism: j.opts.JobsPerAsset,
	})
	if err != nil {
		return stepResult{}, fmt.Errorf("%w: %s", ErrTransfer, err)
	}

	postValidating := false
	for ev := range events {
		switch ev.Status {
		case arcsdk.TransferUploading:
			delta := j.outcome.SetTransferred(ev.Transferred)
			if delta > 0 {
				j.result.AddTransferred(delta)
			}
			j.emit(Event{Kind: EventProgress, Bytes: ev.Transferred})
		case arcsdk.TransferPostValidating:
			// servers may report this repeatedly while revalidating
			if !postValidating {
				postValidating = true
				j.status(StatusPostValidating)
			}
		case arcsdk.TransferError:
			return stepResult{}, fmt.Errorf("%w: %s", ErrTransfer, ev.Err)
		case arcsdk.TransferDone:
			if ev.Record != nil && ev.Record.Size > 0 {
				delta := j.outcome.SetTransferred(ev.Record.Size)
				if delta > 0 {
					j.result.AddTransferred(delta)
				}
			}
		}
	}

	return stepResult{action: stepDone}, nil
}
