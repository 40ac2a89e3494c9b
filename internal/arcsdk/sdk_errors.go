package arcsdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	// sdk common
	ErrNoServerURL        = errors.New("sdk: server url missing")
	ErrCollectionNotFound = errors.New("sdk: collection not found")
	ErrRecordNotFound     = errors.New("sdk: record not found")
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Collection errors
	CodeCollectionNotFound = "E_COLLECTION_NOT_FOUND" // the collection identifier does not resolve
	CodeInvalidPath        = "E_INVALID_PATH"         // the provided logical path is invalid or malformed

	// Record errors
	CodeRecordNotFound     = "E_RECORD_NOT_FOUND"              // no record at the given logical path
	CodeRecordListFailed   = "E_RECORD_LIST_OPERATION_FAILED"  // a failure while listing records
	CodeRecordPutFailed    = "E_RECORD_PUT_OPERATION_FAILED"   // a failure while uploading a record
	CodeRecordDeleteFailed = "E_RECORD_DELETE_OPERATION_FAILED" // a failure while deleting a record

	// Metadata errors
	CodeMetadataUpdateFailed = "E_METADATA_UPDATE_FAILED" // a failure while updating collection metadata
)

type SDKError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// BaseError provides common error functionality
type BaseError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *BaseError) ErrorCode() string    { return e.Code }
func (e *BaseError) ErrorMessage() string { return e.Message }

// APIError represents archive API errors
type APIError struct {
	BaseError
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		BaseError: BaseError{
			Code:    code,
			Message: message,
		},
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

var _ SDKError = (*APIError)(nil)

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if resp.IsErrorState() {
		if err, ok := resp.ErrorResult().(*APIError); ok {
			return fmt.Errorf("%s %w", operation, err)
		}

		return fmt.Errorf("api error: %s %s", operation, resp.Status)
	}

	return nil
}
