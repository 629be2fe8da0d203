package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrInvalidKey = errors.New("invalid key")
	ErrNotFound   = errors.New("blob not found")
)

// object metadata keys, stored as S3 user metadata (x-amz-meta-*)
const (
	MetaModified = "modified"
	MetaMD5      = "md5"
)

type AfterPutObjectHook func(req *PutObjectParams, resp *PutObjectResponse)
type AfterDeleteObjectHook func(key string)

// blobBackendHooks let the service keep its index in step with backend writes
type blobBackendHooks struct {
	AfterPutObject    AfterPutObjectHook
	AfterDeleteObject AfterDeleteObjectHook
}

// Backend is the object store behind the facade.
type Backend interface {
	// GetObject returns the object body, ErrNotFound when the key does not exist
	GetObject(ctx context.Context, key string) (*GetObjectResponse, error)

	// HeadObject returns object attributes and user metadata without the body
	HeadObject(ctx context.Context, key string) (*BlobInfo, error)

	// PutObject creates or overwrites an object
	PutObject(ctx context.Context, params *PutObjectParams) (*PutObjectResponse, error)

	// DeleteObject removes an object. Deleting a missing key succeeds.
	DeleteObject(ctx context.Context, key string) error

	// ListObjects lists every object under prefix. Custom metadata is not populated.
	ListObjects(ctx context.Context, prefix string) ([]*BlobInfo, error)

	setHooks(hooks *blobBackendHooks)
}

type GetObjectResponse struct {
	Body         io.ReadCloser
	ETag         string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

type PutObjectParams struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Modified    string
	MD5         string
}

type PutObjectResponse struct {
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}
