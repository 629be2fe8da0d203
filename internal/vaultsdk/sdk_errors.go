package vaultsdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrInvalidServerURL = errors.New("sdk: invalid server url")
	ErrFileNotFound     = errors.New("sdk: file not found")
)

const (
	CodeInvalidRequest = "E_INVALID_REQUEST"
	CodeRateLimited    = "E_RATE_LIMITED"
	CodeInternalError  = "E_INTERNAL_ERROR"
	CodeUnauthorized   = "E_UNAUTHORIZED"
	CodeBlobNotFound   = "E_BLOB_NOT_FOUND"
)

// APIError is the error body returned by the facade
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// handleAPIError turns transport errors and error responses into a single error
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	// an error body that fails to decode still has a status worth reporting
	if resp != nil && resp.Response != nil && resp.StatusCode >= 400 {
		apiErr, ok := resp.ErrorResult().(*APIError)
		if ok && apiErr != nil && apiErr.Code != "" {
			if apiErr.Code == CodeBlobNotFound {
				return fmt.Errorf("%s: %w", operation, ErrFileNotFound)
			}
			return fmt.Errorf("%s: %w", operation, apiErr)
		}
		return fmt.Errorf("%s: unexpected status %s", operation, resp.Status)
	}

	if requestErr != nil {
		return fmt.Errorf("%s: http request: %w", operation, requestErr)
	}

	return nil
}
