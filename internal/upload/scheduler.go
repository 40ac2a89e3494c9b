package upload

import (
	"context"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/semaphore"

	"github.com/openarchive/arcsync/internal/assets"
)

// DefaultMaxInFlight bounds concurrent asset jobs when no limit is given.
const DefaultMaxInFlight = 5

// Scheduler dispatches asset jobs in discovery order under a bounded
// concurrency limit. In serial mode jobs run inline and the first error
// stops the batch immediately.
type Scheduler struct {
	maxInFlight int
	serial      bool
	inFlight    mapset.Set[string]
}

func NewScheduler(maxInFlight int, serial bool) *Scheduler {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Scheduler{
		maxInFlight: maxInFlight,
		serial:      serial,
		inFlight:    mapset.NewSet[string](),
	}
}

// InFlight returns the logical paths currently being processed.
func (s *Scheduler) InFlight() []string {
	return s.inFlight.ToSlice()
}

// Run processes every asset and blocks until all dispatched jobs finish.
// Job failures are captured on their outcomes; the returned error is only
// non-nil for serial-mode failures and admission errors (context cancelled
// while waiting for a slot).
func (s *Scheduler) Run(ctx context.Context, assetList []assets.Asset, deps *Dependencies, opts *Options, result *BatchResult) error {
	sem := semaphore.NewWeighted(int64(s.maxInFlight))
	var wg sync.WaitGroup
	defer wg.Wait()

	for _, asset := range assetList {
		outcome, err := result.Track(asset.Path())
		if err != nil {
			result.RecordError(err)
			slog.Error("asset not dispatched", "path", asset.Path(), "error", err)
			continue
		}

		j := &job{
			asset:   asset,
			outcome: outcome,
			result:  result,
			deps:    deps,
			opts:    opts,
		}

		if s.serial {
			if err := s.runOne(ctx, j); err != nil {
				return err
			}
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			j.fail(err)
			result.RecordError(err)
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			_ = s.runOne(ctx, j)
		}()
	}

	return nil
}

func (s *Scheduler) runOne(ctx context.Context, j *job) error {
	path := j.asset.Path()
	s.inFlight.Add(path)
	defer s.inFlight.Remove(path)

	slog.Debug("processing asset", "path", path, "in_flight", s.inFlight.Cardinality())
	err := j.run(ctx)
	if err != nil {
		j.fail(err)
		j.result.RecordError(err)
		slog.Error("asset failed", "path", path, "error", err)
	}
	return err
}
