package blob

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/delorenj/vaultsync/internal/server/blob"
	"github.com/delorenj/vaultsync/internal/server/handlers/api"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/gin-gonic/gin"
)

func keyParam(ctx *gin.Context) (string, bool) {
	key := strings.TrimPrefix(ctx.Param("path"), "/")
	if !blob.ValidateKey(key) {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeBlobInvalidKey, fmt.Errorf("%w: %q", blob.ErrInvalidKey, key))
		return "", false
	}
	return key, true
}

// GetFile streams an object with its etag
func (h *BlobHandler) GetFile(ctx *gin.Context) {
	key, ok := keyParam(ctx)
	if !ok {
		return
	}

	obj, err := h.blob.Backend().GetObject(ctx.Request.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeBlobNotFound, fmt.Errorf("%w: %s", err, key))
		return
	} else if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeBlobGetFailed, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = utils.DetectContentType(key)
	}

	headers := map[string]string{
		"ETag":          strconv.Quote(obj.ETag),
		"Last-Modified": obj.LastModified.UTC().Format(http.TimeFormat),
	}
	if modified := obj.Metadata[blob.MetaModified]; modified != "" {
		headers[HeaderModified] = modified
	}

	ctx.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, headers)
}

// PutFile stores the raw request body
func (h *BlobHandler) PutFile(ctx *gin.Context) {
	key, ok := keyParam(ctx)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxPutBodySize))
	if err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, fmt.Errorf("read body: %w", err))
		return
	}

	contentType := ctx.ContentType()
	if contentType == "" {
		contentType = utils.DetectContentType(key)
	}
	modified := ctx.GetHeader(HeaderModified)
	if modified == "" {
		modified = nowModified()
	}

	result, err := h.blob.Backend().PutObject(ctx.Request.Context(), &blob.PutObjectParams{
		Key:         key,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: contentType,
		Modified:    modified,
		MD5:         utils.BytesHash(data),
	})
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeBlobPutFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &PutResponse{
		Key:  result.Key,
		ETag: result.ETag,
		Size: result.Size,
	})
}

// DeleteFile removes an object; a missing key still answers 200
func (h *BlobHandler) DeleteFile(ctx *gin.Context) {
	key, ok := keyParam(ctx)
	if !ok {
		return
	}

	if err := h.blob.Backend().DeleteObject(ctx.Request.Context(), key); err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeBlobDeleteFailed, err)
		return
	}

	ctx.PureJSON(http.StatusOK, &DeleteResponse{Key: key, Deleted: true})
}

// DeleteAll removes every object, optionally limited to a prefix
func (h *BlobHandler) DeleteAll(ctx *gin.Context) {
	result, err := h.blob.DeleteAll(ctx.Request.Context(), ctx.Query("prefix"))
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeBlobDeleteFailed, err)
		return
	}
	ctx.PureJSON(http.StatusOK, result)
}
