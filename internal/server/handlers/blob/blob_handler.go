package blob

import (
	"time"

	"github.com/delorenj/vaultsync/internal/server/blob"
)

const (
	defaultListLimit = 1000
	syncConcurrency  = 8
	maxPutBodySize   = 100 << 20

	defaultSyncContentType = "text/markdown"
	HeaderModified         = "X-Vaultsync-Modified"
)

// BlobHandler serves the storage facade routes
type BlobHandler struct {
	blob *blob.BlobService
}

func New(svc *blob.BlobService) *BlobHandler {
	return &BlobHandler{blob: svc}
}

func nowModified() string {
	return time.Now().UTC().Format(TimeFormat)
}
