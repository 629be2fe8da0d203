package vaultsdk

import (
	"context"
	"strconv"
	"strings"

	"github.com/delorenj/vaultsync/internal/utils"
)

const (
	apiList      = "/api/list"
	apiSync      = "/api/sync"
	apiDeleteAll = "/api/delete-all"
	filesPrefix  = "/files/"
)

// List fetches one page of the remote listing
func (c *Client) List(ctx context.Context, prefix, cursor string) (*ListResponse, error) {
	var apiResp ListResponse

	r := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp)
	if prefix != "" {
		r.SetQueryParam("prefix", prefix)
	}
	if cursor != "" {
		r.SetQueryParam("cursor", cursor)
	}

	resp, err := r.Get(apiList)
	if err := handleAPIError(resp, err, "list"); err != nil {
		return nil, err
	}
	return &apiResp, nil
}

// SyncBatch uploads a batch in one request. Per item failures are in the results.
// A failed batch is never retried, the caller reports it and moves on.
func (c *Client) SyncBatch(ctx context.Context, items []*SyncItem) (*SyncResponse, error) {
	var apiResp SyncResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetBody(items).
		SetSuccessResult(&apiResp).
		Post(apiSync)
	if err := handleAPIError(resp, err, "sync batch"); err != nil {
		return nil, err
	}
	return &apiResp, nil
}

// GetFile downloads a single object
func (c *Client) GetFile(ctx context.Context, key string) (*FileContent, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(filePath(key))
	if err := handleAPIError(resp, err, "get file"); err != nil {
		return nil, err
	}

	etag := resp.GetHeader("ETag")
	if unquoted, err := strconv.Unquote(etag); err == nil {
		etag = unquoted
	}

	return &FileContent{
		Key:         key,
		Data:        resp.Bytes(),
		ETag:        etag,
		ContentType: resp.GetContentType(),
		Modified:    resp.GetHeader(HeaderModified),
	}, nil
}

// PutFile stores data under key with a content type from the extension table
func (c *Client) PutFile(ctx context.Context, key string, data []byte, modified string) (*PutResponse, error) {
	var apiResp PutResponse

	r := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", utils.DetectContentType(key)).
		SetBodyBytes(data).
		SetSuccessResult(&apiResp)
	if modified != "" {
		r.SetHeader(HeaderModified, modified)
	}

	resp, err := r.Put(filePath(key))
	if err := handleAPIError(resp, err, "put file"); err != nil {
		return nil, err
	}
	return &apiResp, nil
}

// DeleteFile removes a single object. Missing keys are not an error.
func (c *Client) DeleteFile(ctx context.Context, key string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(filePath(key))
	return handleAPIError(resp, err, "delete file")
}

// DeleteAll removes every object under prefix, or the whole bucket when prefix is empty
func (c *Client) DeleteAll(ctx context.Context, prefix string) (*DeleteAllResponse, error) {
	var apiResp DeleteAllResponse

	r := c.client.R().
		SetContext(ctx).
		SetSuccessResult(&apiResp)
	if prefix != "" {
		r.SetQueryParam("prefix", prefix)
	}

	resp, err := r.Delete(apiDeleteAll)
	if err := handleAPIError(resp, err, "delete all"); err != nil {
		return nil, err
	}
	return &apiResp, nil
}

func filePath(key string) string {
	return filesPrefix + utils.EscapeKey(strings.TrimPrefix(key, "/"))
}
