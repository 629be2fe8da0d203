package vaultsdk

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delorenj/vaultsync/internal/db"
	"github.com/delorenj/vaultsync/internal/server"
	"github.com/delorenj/vaultsync/internal/server/blob"
	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverToken, clientToken string) *Client {
	t.Helper()

	cfg := &server.Config{
		HTTP:          server.HTTPConfig{Addr: server.DefaultAddr, RateLimit: "100000-M"},
		Blob:          blob.S3Config{Driver: blob.DriverMemory},
		IndexInterval: time.Hour,
		APIToken:      serverToken,
	}

	database, err := db.NewSqliteDB()
	require.NoError(t, err)

	svc, err := server.NewServices(cfg, database)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))

	handler, err := server.SetupRoutes(cfg, svc)
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		svc.Shutdown(context.Background())
	})

	client, err := New(ts.URL, &Options{Token: clientToken, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func item(path, content string) *SyncItem {
	return &SyncItem{
		Path:     path,
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Type:     utils.DetectContentType(path),
		Modified: "2024-05-01T10:00:00.000Z",
		MD5:      utils.BytesHash([]byte(content)),
	}
}

func TestNewValidatesURL(t *testing.T) {
	_, err := New("", nil)
	assert.ErrorIs(t, err, ErrNoServerURL)

	_, err = New("ftp://example.com", nil)
	assert.ErrorIs(t, err, ErrInvalidServerURL)

	c, err := New("http://localhost:8787/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8787", c.BaseURL())
}

func TestSyncBatchIsNotRetried(t *testing.T) {
	var posts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream unavailable"))
	}))
	defer ts.Close()

	client, err := New(ts.URL, &Options{Timeout: 5 * time.Second, RetryCount: 3})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.SyncBatch(context.Background(), []*SyncItem{item("a.md", "a")})
	require.Error(t, err)
	assert.Equal(t, int32(1), posts.Load())
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// the status survives an error body that is not json
	assert.Contains(t, err.Error(), "500")
	assert.NotContains(t, err.Error(), "http request")
}

func TestSyncBatchAndList(t *testing.T) {
	client := newTestClient(t, "", "")
	ctx := context.Background()

	bad := item("bad.md", "x")
	bad.MD5 = "0000"

	resp, err := client.SyncBatch(ctx, []*SyncItem{item("a.md", "alpha"), bad, item("dir/b.md", "beta")})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, StatusSuccess, resp.Results[0].Status)
	assert.Equal(t, StatusError, resp.Results[1].Status)
	assert.NotEmpty(t, resp.Results[1].Error)
	assert.Equal(t, StatusSuccess, resp.Results[2].Status)

	page, err := client.List(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, page.Truncated)
	assert.Empty(t, page.NextCursor())
	require.Len(t, page.Files, 2)
	assert.Equal(t, "a.md", page.Files[0].Key)
	assert.Equal(t, int64(5), page.Files[0].Size)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", page.Files[0].CustomMetadata.Modified)
	assert.Equal(t, utils.BytesHash([]byte("alpha")), page.Files[0].CustomMetadata.MD5)

	page, err = client.List(ctx, "dir/", "")
	require.NoError(t, err)
	require.Len(t, page.Files, 1)
	assert.Equal(t, "dir/b.md", page.Files[0].Key)
}

func TestListCursor(t *testing.T) {
	client := newTestClient(t, "", "")
	ctx := context.Background()

	var items []*SyncItem
	for i := range 1005 {
		items = append(items, item(fmt.Sprintf("n/%04d.md", i), "x"))
	}
	for start := 0; start < len(items); start += 50 {
		end := min(start+50, len(items))
		_, err := client.SyncBatch(ctx, items[start:end])
		require.NoError(t, err)
	}

	first, err := client.List(ctx, "", "")
	require.NoError(t, err)
	assert.True(t, first.Truncated)
	assert.Len(t, first.Files, 1000)
	require.NotEmpty(t, first.NextCursor())

	second, err := client.List(ctx, "", first.NextCursor())
	require.NoError(t, err)
	assert.False(t, second.Truncated)
	assert.Len(t, second.Files, 5)
	assert.Equal(t, "n/1000.md", second.Files[0].Key)
}

func TestFileOperations(t *testing.T) {
	client := newTestClient(t, "", "")
	ctx := context.Background()

	put, err := client.PutFile(ctx, "My Notes/todo #1.md", []byte("- [ ] ship"), "2024-05-01T10:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "My Notes/todo #1.md", put.Key)
	assert.Equal(t, int64(10), put.Size)

	got, err := client.GetFile(ctx, "My Notes/todo #1.md")
	require.NoError(t, err)
	assert.Equal(t, "- [ ] ship", string(got.Data))
	assert.Equal(t, put.ETag, got.ETag)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", got.Modified)

	require.NoError(t, client.DeleteFile(ctx, "My Notes/todo #1.md"))
	require.NoError(t, client.DeleteFile(ctx, "My Notes/todo #1.md"))

	_, err = client.GetFile(ctx, "My Notes/todo #1.md")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteAll(t *testing.T) {
	client := newTestClient(t, "", "")
	ctx := context.Background()

	_, err := client.SyncBatch(ctx, []*SyncItem{item("a.md", "1"), item("keep/b.md", "2"), item("keep/c.md", "3")})
	require.NoError(t, err)

	res, err := client.DeleteAll(ctx, "keep/")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Zero(t, res.Failed)

	page, err := client.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, page.Files, 1)
	assert.Equal(t, "a.md", page.Files[0].Key)
}

func TestBearerToken(t *testing.T) {
	client := newTestClient(t, "s3cret", "wrong")
	_, err := client.List(context.Background(), "", "")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeUnauthorized, apiErr.Code)

	client = newTestClient(t, "s3cret", "s3cret")
	_, err = client.List(context.Background(), "", "")
	assert.NoError(t, err)
}

func TestParseTime(t *testing.T) {
	ts, ok := ParseTime("2024-05-01T10:00:00.123Z")
	require.True(t, ok)
	assert.Equal(t, 123*time.Millisecond, time.Duration(ts.Nanosecond()))

	_, ok = ParseTime("")
	assert.False(t, ok)
	_, ok = ParseTime("yesterday")
	assert.False(t, ok)

	assert.Equal(t, "2024-05-01T10:00:00.123Z", FormatTime(ts))
}
