package blob

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/delorenj/vaultsync/internal/server/blob"
	"github.com/delorenj/vaultsync/internal/server/handlers/api"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var errMD5Mismatch = errors.New("md5 mismatch")

// SyncBatch stores every item of the batch and reports a result per item.
// Item failures never fail the request.
func (h *BlobHandler) SyncBatch(ctx *gin.Context) {
	var items []*SyncItem
	if err := ctx.ShouldBindJSON(&items); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid sync request: %w", err))
		return
	}

	results := make([]*SyncResult, len(items))

	var g errgroup.Group
	g.SetLimit(syncConcurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = h.syncItem(ctx, item)
			return nil
		})
	}
	g.Wait()

	ctx.PureJSON(http.StatusOK, &SyncResponse{Results: results})
}

func (h *BlobHandler) syncItem(ctx *gin.Context, item *SyncItem) *SyncResult {
	if item == nil {
		return &SyncResult{Status: StatusError, Error: "empty item"}
	}

	if err := h.putSyncItem(ctx, item); err != nil {
		slog.Warn("sync item", "path", item.Path, "error", err)
		return &SyncResult{Path: item.Path, Status: StatusError, Error: err.Error()}
	}
	return &SyncResult{Path: item.Path, Status: StatusSuccess}
}

func (h *BlobHandler) putSyncItem(ctx *gin.Context, item *SyncItem) error {
	if !blob.ValidateKey(item.Path) {
		return blob.ErrInvalidKey
	}

	data, err := base64.StdEncoding.DecodeString(item.Content)
	if err != nil {
		return fmt.Errorf("decode content: %w", err)
	}

	sum := utils.BytesHash(data)
	if item.MD5 != "" && item.MD5 != sum {
		return errMD5Mismatch
	}

	contentType := item.Type
	if contentType == "" {
		contentType = defaultSyncContentType
	}
	modified := item.Modified
	if modified == "" {
		modified = nowModified()
	}

	_, err = h.blob.Backend().PutObject(ctx.Request.Context(), &blob.PutObjectParams{
		Key:         item.Path,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: contentType,
		Modified:    modified,
		MD5:         sum,
	})
	return err
}
