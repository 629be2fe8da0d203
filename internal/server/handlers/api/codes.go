package api

const (
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeUnauthorized   = "E_UNAUTHORIZED"    // missing or wrong bearer token
	CodeNotFound       = "E_NOT_FOUND"       // unknown route
	CodeConflict       = "E_CONFLICT"        // resource busy, e.g. a sync run in progress

	CodeBlobNotFound     = "E_BLOB_NOT_FOUND"
	CodeBlobInvalidKey   = "E_BLOB_INVALID_KEY"
	CodeBlobListFailed   = "E_BLOB_LIST_OPERATION_FAILED"
	CodeBlobPutFailed    = "E_BLOB_PUT_OPERATION_FAILED"
	CodeBlobGetFailed    = "E_BLOB_GET_OPERATION_FAILED"
	CodeBlobDeleteFailed = "E_BLOB_DELETE_OPERATION_FAILED"
)
