package arcsdk

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
	"golang.org/x/sync/errgroup"

	"github.com/openarchive/arcsync/internal/utils"
)

const (
	multipartThreshold = int64(32 * 1024 * 1024) // switch to multipart for larger files
	defaultPartSize    = int64(64 * 1024 * 1024) // keeps part count manageable
	eventBufferSize    = 16
)

// Transfer uploads one asset and returns its lazy progress event sequence.
// The channel is closed after a single terminal event (TransferDone or
// TransferError). A transfer is not restartable mid-stream; a fresh call
// starts from zero.
func (c *Collection) Transfer(ctx context.Context, params *TransferParams) (<-chan TransferEvent, error) {
	info, err := os.Stat(params.FilePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", params.FilePath, err)
	}

	events := make(chan TransferEvent, eventBufferSize)
	go func() {
		defer close(events)

		var record *RemoteRecord
		var err error
		switch {
		case info.IsDir():
			record, err = c.transferTree(ctx, params, events)
		case info.Size() > multipartThreshold:
			record, err = c.transferMultipart(ctx, params, info.Size(), events)
		default:
			record, err = c.transferSingle(ctx, params, events)
		}
		if err != nil {
			events <- TransferEvent{Status: TransferError, Err: err}
			return
		}

		events <- TransferEvent{Status: TransferPostValidating}
		events <- TransferEvent{Status: TransferDone, Record: record}
	}()

	return events, nil
}

// emitProgress drops progress events when the consumer lags; only terminal
// events are delivered unconditionally.
func emitProgress(events chan<- TransferEvent, transferred int64) {
	select {
	case events <- TransferEvent{Status: TransferUploading, Transferred: transferred}:
	default:
	}
}

func (c *Collection) uploadRequest(ctx context.Context, params *TransferParams) (*req.Request, error) {
	request := c.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetQueryParam("path", params.Path)

	if params.Replace != nil {
		request.SetQueryParam("replace", params.Replace.RecordID)
	}
	if params.Metadata != nil {
		metaJSON, err := jsonMarshal(params.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		request.SetFormData(map[string]string{"metadata": string(metaJSON)})
	}

	return request, nil
}

func (c *Collection) transferSingle(ctx context.Context, params *TransferParams, events chan<- TransferEvent) (*RemoteRecord, error) {
	request, err := c.uploadRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	var result uploadResponse
	resp, err := request.
		SetFile("file", params.FilePath).
		SetSuccessResult(&result).
		SetUploadCallbackWithInterval(func(info req.UploadInfo) {
			emitProgress(events, info.UploadedSize)
		}, 500*time.Millisecond).
		Put(c.recordsURL())

	if err := handleAPIError(resp, err, "record upload"); err != nil {
		return nil, err
	}

	return result.Record, nil
}

func (c *Collection) transferMultipart(ctx context.Context, params *TransferParams, size int64, events chan<- TransferEvent) (*RemoteRecord, error) {
	partSize := defaultPartSize
	partCount := int((size + partSize - 1) / partSize)

	var init multipartInitResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&multipartInitRequest{
			Path:      params.Path,
			Size:      size,
			PartSize:  partSize,
			Replace:   replaceID(params.Replace),
			Metadata:  params.Metadata,
			SessionID: uuid.NewString(),
		}).
		SetSuccessResult(&init).
		Post(fmt.Sprintf("/api/v1/collections/%s/uploads", c.info.Identifier))
	if err := handleAPIError(resp, err, "multipart init"); err != nil {
		return nil, err
	}
	if init.PartSize > 0 {
		partSize = init.PartSize
		partCount = int((size + partSize - 1) / partSize)
	}

	file, err := os.Open(params.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", params.FilePath, err)
	}
	defer file.Close()

	var transferred atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(params.Parallelism, 1))

	for part := 0; part < partCount; part++ {
		offset := int64(part) * partSize
		length := min(partSize, size-offset)
		partNum := part + 1

		group.Go(func() error {
			section := io.NewSectionReader(file, offset, length)
			resp, err := c.client.R().
				SetContext(groupCtx).
				SetRetryCount(0).
				SetContentType("application/octet-stream").
				SetBody(section).
				Put(fmt.Sprintf("/api/v1/collections/%s/uploads/%s/parts/%d", c.info.Identifier, init.UploadID, partNum))
			if err := handleAPIError(resp, err, fmt.Sprintf("multipart part %d", partNum)); err != nil {
				return err
			}
			emitProgress(events, transferred.Add(length))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var complete multipartCompleteResponse
	resp, err = c.client.R().
		SetContext(ctx).
		SetSuccessResult(&complete).
		Post(fmt.Sprintf("/api/v1/collections/%s/uploads/%s/complete", c.info.Identifier, init.UploadID))
	if err := handleAPIError(resp, err, "multipart complete"); err != nil {
		return nil, err
	}

	return complete.Record, nil
}

// transferTree uploads a directory-style asset file by file under a single
// tree upload session, then finalizes it into one record.
func (c *Collection) transferTree(ctx context.Context, params *TransferParams, events chan<- TransferEvent) (*RemoteRecord, error) {
	var subpaths []string
	err := filepath.WalkDir(params.FilePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(params.FilePath, path)
		if err != nil {
			return err
		}
		subpaths = append(subpaths, utils.NormPath(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", params.FilePath, err)
	}
	sort.Strings(subpaths)

	var init multipartInitResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&multipartInitRequest{
			Path:      params.Path,
			Replace:   replaceID(params.Replace),
			Metadata:  params.Metadata,
			SessionID: uuid.NewString(),
		}).
		SetSuccessResult(&init).
		Post(fmt.Sprintf("/api/v1/collections/%s/uploads/tree", c.info.Identifier))
	if err := handleAPIError(resp, err, "tree upload init"); err != nil {
		return nil, err
	}

	var transferred atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(params.Parallelism, 1))

	for _, subpath := range subpaths {
		localPath := filepath.Join(params.FilePath, filepath.FromSlash(subpath))

		group.Go(func() error {
			info, err := os.Stat(localPath)
			if err != nil {
				return fmt.Errorf("stat %s: %w", localPath, err)
			}
			resp, err := c.client.R().
				SetContext(groupCtx).
				SetRetryCount(0).
				SetQueryParam("subpath", subpath).
				SetFile("file", localPath).
				Put(fmt.Sprintf("/api/v1/collections/%s/uploads/tree/%s/files", c.info.Identifier, init.UploadID))
			if err := handleAPIError(resp, err, fmt.Sprintf("tree file %s", subpath)); err != nil {
				return err
			}
			emitProgress(events, transferred.Add(info.Size()))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var complete multipartCompleteResponse
	resp, err = c.client.R().
		SetContext(ctx).
		SetSuccessResult(&complete).
		Post(fmt.Sprintf("/api/v1/collections/%s/uploads/tree/%s/complete", c.info.Identifier, init.UploadID))
	if err := handleAPIError(resp, err, "tree upload complete"); err != nil {
		return nil, err
	}

	return complete.Record, nil
}

func replaceID(record *RemoteRecord) string {
	if record == nil {
		return ""
	}
	return record.RecordID
}
