package blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/delorenj/vaultsync/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, backend Backend) *BlobService {
	t.Helper()
	database, err := db.NewSqliteDB()
	require.NoError(t, err)

	svc, err := NewBlobService(backend, database, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() {
		cancel()
		svc.Shutdown(context.Background())
	})
	return svc
}

func putString(t *testing.T, backend Backend, key, body, modified string) *PutObjectResponse {
	t.Helper()
	resp, err := backend.PutObject(context.Background(), &PutObjectParams{
		Key:         key,
		Body:        strings.NewReader(body),
		Size:        int64(len(body)),
		ContentType: "text/markdown",
		Modified:    modified,
		MD5:         "md5-" + key,
	})
	require.NoError(t, err)
	return resp
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	resp := putString(t, backend, "notes/a.md", "hello", "2024-05-01T10:00:00.000Z")
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", resp.ETag)
	assert.Equal(t, int64(5), resp.Size)

	obj, err := backend.GetObject(ctx, "notes/a.md")
	require.NoError(t, err)
	data, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "text/markdown", obj.ContentType)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", obj.Metadata[MetaModified])

	head, err := backend.HeadObject(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "md5-notes/a.md", head.MD5)

	listed, err := backend.ListObjects(ctx, "notes/")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].Modified)

	require.NoError(t, backend.DeleteObject(ctx, "notes/a.md"))
	_, err = backend.GetObject(ctx, "notes/a.md")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = backend.HeadObject(ctx, "notes/a.md")
	assert.ErrorIs(t, err, ErrNotFound)

	// idempotent delete
	assert.NoError(t, backend.DeleteObject(ctx, "notes/a.md"))

	_, err = backend.PutObject(ctx, &PutObjectParams{Key: "../escape.md", Body: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBlobServiceHooksKeepIndexCurrent(t *testing.T) {
	backend := NewMemoryBackend()
	svc := newTestService(t, backend)

	putString(t, backend, "a.md", "abc", "2024-05-01T10:00:00.000Z")

	info, ok := svc.Index().Get("a.md")
	require.True(t, ok)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", info.Modified)
	assert.Equal(t, "md5-a.md", info.MD5)

	require.NoError(t, backend.DeleteObject(context.Background(), "a.md"))
	_, ok = svc.Index().Get("a.md")
	assert.False(t, ok)
}

func TestBlobIndexerFillsMetadataFromHead(t *testing.T) {
	backend := NewMemoryBackend()
	// objects written before the service starts are only known through listing
	putString(t, backend, "pre/a.md", "one", "2024-01-01T00:00:00.000Z")
	putString(t, backend, "pre/b.md", "two", "")

	svc := newTestService(t, backend)

	a, ok := svc.Index().Get("pre/a.md")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", a.Modified)
	assert.Equal(t, "md5-pre/a.md", a.MD5)
	assert.Equal(t, "text/markdown", a.ContentType)

	b, ok := svc.Index().Get("pre/b.md")
	require.True(t, ok)
	assert.Empty(t, b.Modified)
	assert.Equal(t, 2, svc.Index().Count())
}

func TestBlobServiceDeleteAll(t *testing.T) {
	backend := NewMemoryBackend()
	svc := newTestService(t, backend)

	for _, key := range []string{"blog/a.md", "blog/b.md", "notes/c.md"} {
		putString(t, backend, key, key, "")
	}

	result, err := svc.DeleteAll(context.Background(), "blog/")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, svc.Index().Count())

	result, err = svc.DeleteAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Zero(t, svc.Index().Count())

	// empty bucket
	result, err = svc.DeleteAll(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
}

func TestS3ConfigValidate(t *testing.T) {
	valid := &S3Config{BucketName: "vault", Region: "us-east-1", AccessKey: "a", SecretKey: "s", Endpoint: "http://localhost:9000"}
	assert.NoError(t, valid.Validate())

	assert.NoError(t, (&S3Config{Driver: DriverMemory}).Validate())
	assert.Error(t, (&S3Config{Driver: "gcs"}).Validate())
	assert.Error(t, (&S3Config{Region: "r", AccessKey: "a", SecretKey: "s"}).Validate())

	badEndpoint := *valid
	badEndpoint.Endpoint = "localhost:9000"
	assert.Error(t, badEndpoint.Validate())
}
