package arcsdk

import "time"

// CollectionInfo is the resolved identity of a remote collection.
type CollectionInfo struct {
	Identifier string `json:"identifier"`
	Version    string `json:"version"`
	URL        string `json:"url"`
}

// RemoteRecord is the remote store's view of an asset at a logical path.
// Digests maps algorithm name to digest value; Modified may be absent when
// the server never recorded a local modification time.
type RemoteRecord struct {
	RecordID string            `json:"recordId"`
	Path     string            `json:"path"`
	Size     int64             `json:"size"`
	Digests  map[string]string `json:"digests"`
	Modified *time.Time        `json:"blobDateModified,omitempty"`
}

// Digest returns the record's digest value for the given algorithm. ok is
// false when the server has no digest recorded under that algorithm.
func (r *RemoteRecord) Digest(algorithm string) (string, bool) {
	value, ok := r.Digests[algorithm]
	return value, ok
}

type listRecordsResponse struct {
	Records    []*RemoteRecord `json:"records"`
	NextCursor string          `json:"nextCursor"`
}

type deleteRecordResponse struct {
	Deleted string `json:"deleted"`
}

// TransferStatus tags the phases a transfer reports.
type TransferStatus string

const (
	TransferUploading      TransferStatus = "uploading"
	TransferPostValidating TransferStatus = "post-validating"
	TransferDone           TransferStatus = "done"
	TransferError          TransferStatus = "error"
)

// TransferEvent is one element of the lazy progress sequence yielded by a
// transfer. The sequence ends with exactly one terminal event: TransferDone
// carrying the resulting record, or TransferError carrying Err.
type TransferEvent struct {
	Status      TransferStatus
	Transferred int64
	Record      *RemoteRecord
	Err         error
}

// TransferParams describes one asset transfer. When Replace is set the
// server atomically replaces that record; a fresh call always restarts the
// transfer from zero.
type TransferParams struct {
	Path        string
	FilePath    string
	Metadata    map[string]any
	Replace     *RemoteRecord
	Parallelism int
}

type multipartInitRequest struct {
	Path      string         `json:"path"`
	Size      int64          `json:"size"`
	PartSize  int64          `json:"partSize"`
	Replace   string         `json:"replace,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	SessionID string         `json:"sessionId"`
}

type multipartInitResponse struct {
	UploadID  string `json:"uploadId"`
	PartSize  int64  `json:"partSize"`
	PartCount int    `json:"partCount"`
}

type multipartCompleteResponse struct {
	Record *RemoteRecord `json:"record"`
}

type uploadResponse struct {
	Record *RemoteRecord `json:"record"`
}
