package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openarchive/arcsync/internal/arcsdk"
	"github.com/openarchive/arcsync/internal/digest"
	"github.com/openarchive/arcsync/internal/metadata"
	"github.com/openarchive/arcsync/internal/validate"
)

// fakeCollection is an in-memory Collection. Transfers synthesize records
// from the upload metadata so repeated runs see realistic digests and mtimes.
type fakeCollection struct {
	mu       sync.Mutex
	records  map[string]*arcsdk.RemoteRecord
	uploads  []string
	replaced []string
	deleted  []string
	meta     map[string]any

	transferErr   map[string]error
	transferDelay time.Duration

	active    int
	maxActive int
	seq       int
}

var _ Collection = (*fakeCollection)(nil)

func newFakeCollection() *fakeCollection {
	return &fakeCollection{
		records:     make(map[string]*arcsdk.RemoteRecord),
		transferErr: make(map[string]error),
	}
}

func (f *fakeCollection) Info() arcsdk.CollectionInfo {
	return arcsdk.CollectionInfo{Identifier: "000123"}
}

func (f *fakeCollection) GetRecord(_ context.Context, path string) (*arcsdk.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[path]; ok {
		return record, nil
	}
	return nil, arcsdk.ErrRecordNotFound
}

func (f *fakeCollection) ListRecords(_ context.Context, prefix string) ([]*arcsdk.RemoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*arcsdk.RemoteRecord
	for path, record := range f.records {
		if strings.HasPrefix(path, prefix) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (f *fakeCollection) DeleteRecord(_ context.Context, record *arcsdk.RemoteRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, record.Path)
	delete(f.records, record.Path)
	return nil
}

func (f *fakeCollection) SetMetadata(_ context.Context, doc map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta = doc
	return nil
}

func (f *fakeCollection) Transfer(_ context.Context, params *arcsdk.TransferParams) (<-chan arcsdk.TransferEvent, error) {
	events := make(chan arcsdk.TransferEvent, 8)
	go func() {
		defer close(events)

		f.mu.Lock()
		f.active++
		if f.active > f.maxActive {
			f.maxActive = f.active
		}
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			f.active--
			f.mu.Unlock()
		}()

		if f.transferDelay > 0 {
			time.Sleep(f.transferDelay)
		}

		f.mu.Lock()
		err := f.transferErr[params.Path]
		f.mu.Unlock()
		if err != nil {
			events <- arcsdk.TransferEvent{Status: arcsdk.TransferError, Err: err}
			return
		}

		record := f.recordFromParams(params)
		events <- arcsdk.TransferEvent{Status: arcsdk.TransferUploading, Transferred: record.Size}
		events <- arcsdk.TransferEvent{Status: arcsdk.TransferPostValidating}

		f.mu.Lock()
		f.records[params.Path] = record
		f.uploads = append(f.uploads, params.Path)
		if params.Replace != nil {
			f.replaced = append(f.replaced, params.Path)
		}
		f.mu.Unlock()

		events <- arcsdk.TransferEvent{Status: arcsdk.TransferDone, Record: record}
	}()
	return events, nil
}

func (f *fakeCollection) recordFromParams(params *arcsdk.TransferParams) *arcsdk.RemoteRecord {
	f.mu.Lock()
	f.seq++
	record := &arcsdk.RemoteRecord{RecordID: fmt.Sprintf("r%d", f.seq), Path: params.Path}
	f.mu.Unlock()

	if params.Metadata == nil {
		return record
	}
	if digests, ok := params.Metadata["digest"].(map[string]string); ok {
		record.Digests = digests
	}
	if size, ok := params.Metadata["contentSize"].(int64); ok {
		record.Size = size
	}
	if ts, ok := params.Metadata["blobDateModified"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			record.Modified = &parsed
		}
	}
	return record
}

func (f *fakeCollection) uploadedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.uploads))
	copy(out, f.uploads)
	return out
}

func (f *fakeCollection) deletedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func testDeps(f *fakeCollection) *Dependencies {
	return &Dependencies{
		Digester:   digest.NewDigester(nil),
		Validator:  &validate.BasicValidator{},
		Extractor:  &metadata.StatExtractor{},
		Collection: f,
	}
}

func testOptions() *Options {
	return &Options{
		Policy:       PolicyRefresh,
		Validation:   validate.ModeRequire,
		Jobs:         4,
		JobsPerAsset: 1,
	}
}

// eventLog collects job events for later assertions.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) statuses(path string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, ev := range l.events {
		if ev.Path == path && ev.Kind == EventStatus && ev.Status != "" {
			out = append(out, ev.Status)
		}
	}
	return out
}

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// makeDataset builds a minimal dataset tree and returns its root.
func makeDataset(t *testing.T, identifier string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "dataset.yaml", fmt.Sprintf("identifier: %q\nname: test dataset\n", identifier))
	return root
}
