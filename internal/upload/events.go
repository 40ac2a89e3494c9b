package upload

// EventKind distinguishes the three shapes a job can emit. Consumers switch
// on it exhaustively instead of probing optional fields.
type EventKind int

const (
	// EventProgress carries a new cumulative byte count in Bytes.
	EventProgress EventKind = iota
	// EventStatus carries a status label and/or a free-form message.
	EventStatus
	// EventError carries a terminal error message for one asset.
	EventError
)

// Status labels emitted over the lifetime of one asset.
const (
	StatusPreValidating  = "pre-validating"
	StatusValidated      = "validated"
	StatusDigesting      = "digesting"
	StatusExtracting     = "extracting metadata"
	StatusUploading      = "uploading"
	StatusPostValidating = "post-validating"
	StatusUpdatingMeta   = "updating metadata"
	StatusUpdatedMeta    = "updated metadata"
	StatusSkipped        = "skipped"
	StatusDone           = "done"
)

// Event is one progress notification about one asset.
type Event struct {
	Path    string
	Kind    EventKind
	Bytes   int64
	Status  string
	Message string
}

// EventFunc receives events from concurrently running jobs. Implementations
// must be safe for concurrent use and must not block for long.
type EventFunc func(Event)
