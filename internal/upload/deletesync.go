package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/openarchive/arcsync/internal/arcsdk"
	"github.com/openarchive/arcsync/internal/assets"
	"github.com/openarchive/arcsync/internal/utils"
)

// deleteConcurrency bounds parallel record deletions.
const deleteConcurrency = 8

// deleteSync removes remote records that fall under the requested paths but
// no longer exist locally. It only runs after a batch with no errors, and
// only with the user's confirmation.
func (e *Engine) deleteSync(ctx context.Context, ds *assets.Dataset, collection Collection, absPaths []string, opts *Options) error {
	relPaths := make([]string, 0, len(absPaths))
	for _, abs := range absPaths {
		rel, err := ds.RelPath(abs)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		relPaths = append(relPaths, rel)
	}

	records, err := collection.ListRecords(ctx, utils.CommonPrefix(relPaths))
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	var stale []*arcsdk.RemoteRecord
	for _, record := range records {
		inScope := false
		for _, rel := range relPaths {
			if rel == "" || utils.IsSubpath(record.Path, rel) {
				inScope = true
				break
			}
		}
		if !inScope {
			continue
		}
		localPath := filepath.Join(ds.Root, filepath.FromSlash(record.Path))
		if !utils.PathExists(localPath) {
			stale = append(stale, record)
		}
	}

	if len(stale) == 0 {
		return nil
	}

	prompt := fmt.Sprintf("Delete %s on the server?", pluralize(len(stale), "asset"))
	if opts.Confirm == nil || !opts.Confirm(prompt) {
		slog.Info("delete sync declined", "stale", len(stale))
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(deleteConcurrency)
	for _, record := range stale {
		group.Go(func() error {
			slog.Debug("deleting remote record", "path", record.Path, "record_id", record.RecordID)
			return collection.DeleteRecord(groupCtx, record)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}

	slog.Info("deleted remote records", "count", len(stale))
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
