package arcsdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

// Collection is a handle on one remote collection. It is safe for
// concurrent reads; writes (upload, delete) are per-record.
type Collection struct {
	client *req.Client
	info   CollectionInfo
}

func (c *Collection) Info() CollectionInfo {
	return c.info
}

func (c *Collection) recordsURL() string {
	return fmt.Sprintf("/api/v1/collections/%s/records", c.info.Identifier)
}

// GetRecord looks up the record at a logical path. Returns ErrRecordNotFound
// when the path has no record.
func (c *Collection) GetRecord(ctx context.Context, path string) (*RemoteRecord, error) {
	var record RemoteRecord
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		SetSuccessResult(&record).
		Get(c.recordsURL())

	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("record %q: %w", path, ErrRecordNotFound)
	}
	if err := handleAPIError(resp, err, "get record"); err != nil {
		return nil, err
	}

	return &record, nil
}

// ListRecords returns all records whose logical path starts with prefix,
// following the server's pagination cursor.
func (c *Collection) ListRecords(ctx context.Context, prefix string) ([]*RemoteRecord, error) {
	var records []*RemoteRecord
	cursor := ""

	for {
		var page listRecordsResponse
		request := c.client.R().
			SetContext(ctx).
			SetQueryParam("prefix", prefix).
			SetSuccessResult(&page)
		if cursor != "" {
			request.SetQueryParam("cursor", cursor)
		}
		resp, err := request.Get(c.recordsURL() + "/list")
		if err := handleAPIError(resp, err, "list records"); err != nil {
			return nil, err
		}

		records = append(records, page.Records...)
		if page.NextCursor == "" {
			return records, nil
		}
		cursor = page.NextCursor
	}
}

// DeleteRecord removes one record from the collection.
func (c *Collection) DeleteRecord(ctx context.Context, record *RemoteRecord) error {
	var result deleteRecordResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		Delete(fmt.Sprintf("%s/%s", c.recordsURL(), record.RecordID))

	return handleAPIError(resp, err, "delete record")
}

// SetMetadata replaces the collection-level metadata document.
func (c *Collection) SetMetadata(ctx context.Context, doc map[string]any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(doc).
		Put(fmt.Sprintf("/api/v1/collections/%s/metadata", c.info.Identifier))

	return handleAPIError(resp, err, "set metadata")
}
