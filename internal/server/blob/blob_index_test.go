package blob

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/delorenj/vaultsync/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *BlobIndex {
	t.Helper()
	database, err := db.NewSqliteDB()
	require.NoError(t, err)
	index, err := newBlobIndex(database)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	return index
}

func testBlob(key string, size int64) *BlobInfo {
	return &BlobInfo{
		Key:          key,
		ETag:         fmt.Sprintf("etag-%s-%d", key, size),
		Size:         size,
		LastModified: "2024-01-01T00:00:00Z",
		ContentType:  "text/markdown",
		Modified:     "2024-01-01T00:00:00.000Z",
		MD5:          "abc",
	}
}

func setAll(t *testing.T, index *BlobIndex, blobs ...*BlobInfo) {
	t.Helper()
	for _, blob := range blobs {
		require.NoError(t, index.Set(blob))
	}
}

func TestBlobIndexSetGetRemove(t *testing.T) {
	index := newTestIndex(t)

	require.NoError(t, index.Set(testBlob("a.md", 10)))

	got, ok := index.Get("a.md")
	require.True(t, ok)
	assert.Equal(t, int64(10), got.Size)
	assert.Equal(t, "text/markdown", got.ContentType)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", got.Modified)
	assert.Equal(t, "abc", got.MD5)

	require.NoError(t, index.Set(testBlob("a.md", 12)))
	got, _ = index.Get("a.md")
	assert.Equal(t, int64(12), got.Size)
	assert.Equal(t, 1, index.Count())

	require.NoError(t, index.Remove("a.md"))
	_, ok = index.Get("a.md")
	assert.False(t, ok)

	// removing a missing key is not an error
	assert.NoError(t, index.Remove("a.md"))
}

func TestBlobIndexPage(t *testing.T) {
	index := newTestIndex(t)

	var blobs []*BlobInfo
	for i := range 25 {
		blobs = append(blobs, testBlob(fmt.Sprintf("notes/%02d.md", i), int64(i)))
	}
	blobs = append(blobs, testBlob("attachments/a.png", 1), testBlob("zz.md", 1))
	setAll(t, index, blobs...)

	var keys []string
	cursor := ""
	pages := 0
	for {
		page, err := index.Page("notes/", cursor, 10)
		require.NoError(t, err)
		pages++
		for _, b := range page.Blobs {
			keys = append(keys, b.Key)
		}
		if !page.Truncated {
			assert.Empty(t, page.Cursor)
			break
		}
		require.NotEmpty(t, page.Cursor)
		cursor = page.Cursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, keys, 25)
	assert.Equal(t, "notes/00.md", keys[0])
	assert.Equal(t, "notes/24.md", keys[24])

	all, err := index.Page("", "", 1000)
	require.NoError(t, err)
	assert.Len(t, all.Blobs, 27)
	assert.False(t, all.Truncated)

	_, err = index.Page("", "", 0)
	assert.Error(t, err)
}

func TestBlobIndexPageExactLimit(t *testing.T) {
	index := newTestIndex(t)
	setAll(t, index, testBlob("a", 1), testBlob("b", 1))

	page, err := index.Page("", "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Blobs, 2)
	assert.False(t, page.Truncated)
}

func TestBlobIndexPrefixIsLiteral(t *testing.T) {
	index := newTestIndex(t)
	setAll(t, index,
		testBlob("100%_done.md", 1),
		testBlob("100xdone.md", 1),
	)

	page, err := index.Page("100%_", "", 1000)
	require.NoError(t, err)
	require.Len(t, page.Blobs, 1)
	assert.Equal(t, "100%_done.md", page.Blobs[0].Key)
}

func TestBlobIndexBulkUpdate(t *testing.T) {
	index := newTestIndex(t)
	setAll(t, index,
		testBlob("keep.md", 1),
		testBlob("change.md", 1),
		testBlob("gone.md", 1),
	)

	result, err := index.bulkUpdate([]*BlobInfo{
		testBlob("keep.md", 1),
		testBlob("change.md", 2),
		testBlob("new.md", 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 3, index.Count())

	_, ok := index.Get("gone.md")
	assert.False(t, ok)

	page, err := index.Page("", "", 1000)
	require.NoError(t, err)
	var keys []string
	for _, b := range page.Blobs {
		keys = append(keys, b.Key)
	}
	assert.Equal(t, []string{"change.md", "keep.md", "new.md"}, keys)

	// running it twice is a no-op
	result, err = index.bulkUpdate([]*BlobInfo{
		testBlob("keep.md", 1),
		testBlob("change.md", 2),
		testBlob("new.md", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, bulkUpdateResult{}, *result)
}

func TestBlobIndexBurstInsert(t *testing.T) {
	database, err := db.NewSqliteDB(db.WithPath(filepath.Join(t.TempDir(), "index.db")), db.WithMaxOpenConns(1))
	require.NoError(t, err)
	index, err := newBlobIndex(database)
	require.NoError(t, err)
	defer index.Close()

	const n = 500
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			assert.NoError(t, index.Set(&BlobInfo{
				Key:          fmt.Sprintf("burst/%04d.md", i),
				ETag:         fmt.Sprintf("%x", i),
				Size:         int64(i),
				LastModified: time.Now().UTC().Format(time.RFC3339),
			}))
		}()
	}
	wg.Wait()

	assert.Equal(t, n, index.Count())
	got, ok := index.Get("burst/0042.md")
	require.True(t, ok)
	assert.Equal(t, int64(42), got.Size)
}
