package blob

import (
	"fmt"
	"net/http"

	"github.com/delorenj/vaultsync/internal/server/blob"
	"github.com/delorenj/vaultsync/internal/server/handlers/api"
	"github.com/gin-gonic/gin"
)

// ListObjects serves one cursor page of the index
func (h *BlobHandler) ListObjects(ctx *gin.Context) {
	var req ListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("invalid list request: %w", err))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultListLimit
	}

	page, err := h.blob.Index().Page(req.Prefix, req.Cursor, req.Limit)
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeBlobListFailed, err)
		return
	}

	resp := &ListResponse{
		Files:     make([]*ListFile, 0, len(page.Blobs)),
		Truncated: page.Truncated,
	}
	if page.Truncated {
		resp.Cursor = &page.Cursor
	}
	for _, b := range page.Blobs {
		resp.Files = append(resp.Files, toListFile(b))
	}

	ctx.PureJSON(http.StatusOK, resp)
}

func toListFile(b *blob.BlobInfo) *ListFile {
	uploaded := b.LastModified
	if t := b.LastModifiedTime(); !t.IsZero() {
		uploaded = t.UTC().Format(TimeFormat)
	}
	return &ListFile{
		Key:      b.Key,
		Size:     b.Size,
		Uploaded: uploaded,
		ETag:     b.ETag,
		CustomMetadata: CustomMetadata{
			Modified: b.Modified,
			MD5:      b.MD5,
		},
	}
}
