package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/delorenj/vaultsync/internal/db"
	"github.com/delorenj/vaultsync/internal/server/blob"
	handlers "github.com/delorenj/vaultsync/internal/server/handlers/blob"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, token string) (http.Handler, *Services) {
	t.Helper()

	cfg := &Config{
		HTTP:          HTTPConfig{Addr: DefaultAddr, RateLimit: "100000-M"},
		Blob:          blob.S3Config{Driver: blob.DriverMemory},
		IndexInterval: time.Hour,
		APIToken:      token,
	}

	database, err := db.NewSqliteDB()
	require.NoError(t, err)

	svc, err := NewServices(cfg, database)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() {
		cancel()
		svc.Shutdown(context.Background())
	})

	handler, err := SetupRoutes(cfg, svc)
	require.NoError(t, err)
	return handler, svc
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func syncItem(path, content, modified string) handlers.SyncItem {
	return handlers.SyncItem{
		Path:     path,
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Type:     utils.DetectContentType(path),
		Modified: modified,
		MD5:      utils.BytesHash([]byte(content)),
	}
}

func postSync(t *testing.T, h http.Handler, items ...handlers.SyncItem) *handlers.SyncResponse {
	t.Helper()
	body, err := json.Marshal(items)
	require.NoError(t, err)

	w := do(t, h, http.MethodPost, "/api/sync", string(body), "Content-Type", "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.SyncResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestHealthAndIndex(t *testing.T) {
	h, _ := newTestRouter(t, "")

	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vaultsync")

	w = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncBatchPartialFailure(t *testing.T) {
	h, svc := newTestRouter(t, "")

	bad := syncItem("b.md", "two", "")
	bad.MD5 = "not-the-md5"

	resp := postSync(t, h,
		syncItem("a.md", "one", "2024-05-01T10:00:00.000Z"),
		bad,
		syncItem("c.md", "three", ""),
		syncItem("../evil.md", "x", ""),
	)

	require.Len(t, resp.Results, 4)
	assert.Equal(t, handlers.StatusSuccess, resp.Results[0].Status)
	assert.Equal(t, handlers.StatusError, resp.Results[1].Status)
	assert.Contains(t, resp.Results[1].Error, "md5")
	assert.Equal(t, handlers.StatusSuccess, resp.Results[2].Status)
	assert.Equal(t, handlers.StatusError, resp.Results[3].Status)
	assert.Equal(t, "../evil.md", resp.Results[3].Path)

	a, ok := svc.Blob.Index().Get("a.md")
	require.True(t, ok)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", a.Modified)
	assert.Equal(t, "text/markdown", a.ContentType)

	c, ok := svc.Blob.Index().Get("c.md")
	require.True(t, ok)
	assert.NotEmpty(t, c.Modified, "modified defaults to now")

	_, ok = svc.Blob.Index().Get("b.md")
	assert.False(t, ok)
}

func TestSyncBatchRejectsMalformedBody(t *testing.T) {
	h, _ := newTestRouter(t, "")

	w := do(t, h, http.MethodPost, "/api/sync", `{"not":"an array"}`, "Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "E_INVALID_REQUEST")

	resp := postSync(t, h)
	assert.Empty(t, resp.Results)
}

func TestListPagination(t *testing.T) {
	h, _ := newTestRouter(t, "")

	var items []handlers.SyncItem
	for i := range 5 {
		items = append(items, syncItem(fmt.Sprintf("notes/%d.md", i), "x", "2024-05-01T10:00:00.000Z"))
	}
	items = append(items, syncItem("other.md", "y", ""))
	postSync(t, h, items...)

	var keys []string
	cursor := ""
	for {
		target := "/api/list?prefix=notes/&limit=2"
		if cursor != "" {
			target += "&cursor=" + cursor
		}
		w := do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page handlers.ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		for _, f := range page.Files {
			keys = append(keys, f.Key)
			assert.Equal(t, int64(1), f.Size)
			assert.Equal(t, "2024-05-01T10:00:00.000Z", f.CustomMetadata.Modified)
			assert.NotEmpty(t, f.CustomMetadata.MD5)
			assert.NotEmpty(t, f.Uploaded)
		}
		if !page.Truncated {
			assert.Nil(t, page.Cursor)
			break
		}
		require.NotNil(t, page.Cursor)
		cursor = *page.Cursor
	}
	assert.Equal(t, []string{"notes/0.md", "notes/1.md", "notes/2.md", "notes/3.md", "notes/4.md"}, keys)

	w := do(t, h, http.MethodGet, "/api/list?limit=5000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilesRoundTrip(t *testing.T) {
	h, _ := newTestRouter(t, "")

	w := do(t, h, http.MethodPut, "/files/My%20Notes/a%20b.md", "# hello", "Content-Type", "text/markdown")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var put handlers.PutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &put))
	assert.Equal(t, "My Notes/a b.md", put.Key)
	assert.Equal(t, int64(7), put.Size)

	w = do(t, h, http.MethodGet, "/files/My%20Notes/a%20b.md", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# hello", w.Body.String())
	assert.Equal(t, `"`+put.ETag+`"`, w.Header().Get("ETag"))
	assert.Equal(t, "text/markdown", w.Header().Get("Content-Type"))

	w = do(t, h, http.MethodDelete, "/files/My%20Notes/a%20b.md", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"My Notes/a b.md","deleted":true}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/files/My%20Notes/a%20b.md", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "E_BLOB_NOT_FOUND")

	// deleting again is not an error
	w = do(t, h, http.MethodDelete, "/files/My%20Notes/a%20b.md", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAll(t *testing.T) {
	h, svc := newTestRouter(t, "")
	postSync(t, h, syncItem("a.md", "1", ""), syncItem("b/c.md", "2", ""))

	w := do(t, h, http.MethodDelete, "/api/delete-all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":2,"failed":0}`, w.Body.String())
	assert.Zero(t, svc.Blob.Index().Count())
}

func TestAPIToken(t *testing.T) {
	h, _ := newTestRouter(t, "s3cret")

	w := do(t, h, http.MethodGet, "/api/list", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/list", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/list", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays open
	w = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{HTTP: HTTPConfig{Addr: DefaultAddr}, Blob: blob.S3Config{Driver: blob.DriverMemory}}
	assert.NoError(t, cfg.Validate())

	cfg.HTTP.CertFile = "cert.pem"
	assert.Error(t, cfg.Validate())

	cfg = &Config{Blob: blob.S3Config{Driver: blob.DriverMemory}}
	assert.Error(t, cfg.Validate())
}
