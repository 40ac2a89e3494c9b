package upload

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// OutcomeStatus is the terminal classification of one asset.
type OutcomeStatus string

const (
	OutcomePending OutcomeStatus = "pending"
	OutcomeDone    OutcomeStatus = "done"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeErrored OutcomeStatus = "errored"
)

// AssetOutcome accumulates per-asset state across a job's lifetime. Byte
// counters are atomic so progress callbacks never contend with readers;
// status and error messages sit behind a mutex.
type AssetOutcome struct {
	Path string

	size        atomic.Int64
	transferred atomic.Int64

	mu               sync.Mutex
	status           OutcomeStatus
	message          string
	errors           []string
	validationIssues int
}

func newAssetOutcome(path string) *AssetOutcome {
	return &AssetOutcome{Path: path, status: OutcomePending}
}

func (o *AssetOutcome) SetSize(n int64) { o.size.Store(n) }

func (o *AssetOutcome) Size() int64 { return o.size.Load() }

func (o *AssetOutcome) Transferred() int64 { return o.transferred.Load() }

// SetTransferred records a new cumulative byte count and returns the delta
// against the previous value.
func (o *AssetOutcome) SetTransferred(n int64) int64 {
	return n - o.transferred.Swap(n)
}

func (o *AssetOutcome) SetStatus(status OutcomeStatus, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
	o.message = message
}

func (o *AssetOutcome) Status() (OutcomeStatus, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status, o.message
}

func (o *AssetOutcome) AddError(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, message)
}

func (o *AssetOutcome) Errors() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.errors))
	copy(out, o.errors)
	return out
}

func (o *AssetOutcome) SetValidationIssues(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validationIssues = n
}

func (o *AssetOutcome) ValidationIssues() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.validationIssues
}

// BatchResult collects the outcomes of one Sync run. Exactly one outcome
// exists per logical path; iteration order matches dispatch order.
type BatchResult struct {
	started time.Time

	transferred atomic.Int64

	mu             sync.Mutex
	outcomes       map[string]*AssetOutcome
	order          []string
	firstErr       error
	validateFailed bool
}

func NewBatchResult() *BatchResult {
	return &BatchResult{
		started:  time.Now(),
		outcomes: make(map[string]*AssetOutcome),
	}
}

// Track registers a logical path and returns its outcome slot. A second call
// for the same path fails with ErrDuplicatePath.
func (b *BatchResult) Track(path string) (*AssetOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.outcomes[path]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, path)
	}
	outcome := newAssetOutcome(path)
	b.outcomes[path] = outcome
	b.order = append(b.order, path)
	return outcome, nil
}

func (b *BatchResult) Outcome(path string) *AssetOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcomes[path]
}

// Outcomes returns all outcome slots in dispatch order.
func (b *BatchResult) Outcomes() []*AssetOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*AssetOutcome, 0, len(b.order))
	for _, path := range b.order {
		out = append(out, b.outcomes[path])
	}
	return out
}

// RecordError keeps the first error reported across the batch; later errors
// stay visible on their asset outcomes.
func (b *BatchResult) RecordError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.firstErr == nil {
		b.firstErr = err
	}
}

func (b *BatchResult) FirstError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.firstErr
}

func (b *BatchResult) MarkValidateFailed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validateFailed = true
}

// ValidateOK reports whether every validated asset passed.
func (b *BatchResult) ValidateOK() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.validateFailed
}

func (b *BatchResult) AddTransferred(delta int64) {
	b.transferred.Add(delta)
}

func (b *BatchResult) TransferredBytes() int64 {
	return b.transferred.Load()
}

// Rate formats the mean transfer rate since the batch started.
func (b *BatchResult) Rate() string {
	elapsed := time.Since(b.started).Seconds()
	if elapsed <= 0 {
		return "0 B/s"
	}
	bps := float64(b.transferred.Load()) / elapsed
	return humanize.IBytes(uint64(bps)) + "/s"
}

// Summary counts terminal outcomes by class. Pending outcomes are counted as
// errored; after a completed run none should remain pending.
func (b *BatchResult) Summary() (done, skipped, errored int) {
	for _, outcome := range b.Outcomes() {
		status, _ := outcome.Status()
		switch status {
		case OutcomeDone:
			done++
		case OutcomeSkipped:
			skipped++
		default:
			errored++
		}
	}
	return done, skipped, errored
}
