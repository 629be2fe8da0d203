package blob

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blobs (
	key TEXT PRIMARY KEY,
	etag TEXT NOT NULL,
	size INTEGER NOT NULL,
	last_modified TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	modified TEXT NOT NULL DEFAULT '',
	md5 TEXT NOT NULL DEFAULT ''
);
`

const blobColumns = `key, etag, size, last_modified, content_type, modified, md5`

const upsertSQL = `INSERT OR REPLACE INTO blobs (` + blobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

// BlobIndex mirrors the bucket listing plus custom metadata in SQLite,
// so listing pages never needs a HEAD request per object.
type BlobIndex struct {
	db *sqlx.DB
}

// bulkUpdateResult contains statistics about a bulk update operation
type bulkUpdateResult struct {
	Added   int
	Updated int
	Deleted int
}

func newBlobIndex(db *sqlx.DB) (*BlobIndex, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("initialize index: %w", err)
	}
	return &BlobIndex{db: db}, nil
}

func (bi *BlobIndex) Close() error {
	return bi.db.Close()
}

// Get retrieves blob info by key
func (bi *BlobIndex) Get(key string) (*BlobInfo, bool) {
	var blob BlobInfo
	if err := bi.db.Get(&blob, `SELECT `+blobColumns+` FROM blobs WHERE key = ?`, key); err != nil {
		return nil, false
	}
	return &blob, true
}

// Set adds or updates a blob in the index
func (bi *BlobIndex) Set(blob *BlobInfo) error {
	_, err := bi.db.Exec(upsertSQL, blobArgs(blob)...)
	return err
}

// Remove deletes a blob from the index
func (bi *BlobIndex) Remove(key string) error {
	_, err := bi.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	return err
}

// Count returns the number of indexed blobs
func (bi *BlobIndex) Count() int {
	var count int
	if err := bi.db.Get(&count, `SELECT COUNT(*) FROM blobs`); err != nil {
		return 0
	}
	return count
}

// Page returns up to limit blobs under prefix with keys strictly after cursor.
// The returned cursor is the last key of the page and is only set when more rows follow.
func (bi *BlobIndex) Page(prefix, cursor string, limit int) (*Page, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid page limit %d", limit)
	}

	var blobs []*BlobInfo
	err := bi.db.Select(&blobs,
		`SELECT `+blobColumns+` FROM blobs
		WHERE key > ? AND substr(key, 1, length(?)) = ?
		ORDER BY key
		LIMIT ?`,
		cursor, prefix, prefix, limit+1,
	)
	if err != nil {
		return nil, fmt.Errorf("page blobs: %w", err)
	}

	page := &Page{Blobs: blobs}
	if len(blobs) > limit {
		page.Blobs = blobs[:limit]
		page.Truncated = true
		page.Cursor = page.Blobs[limit-1].Key
	}
	return page, nil
}

// bulkUpdate replaces the index contents with blobs, reporting what changed
func (bi *BlobIndex) bulkUpdate(blobs []*BlobInfo) (result *bulkUpdateResult, err error) {
	tx, err := bi.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// DDL is transactional in sqlite, a rollback also discards the temp table
	if _, err = tx.Exec(`
		CREATE TEMPORARY TABLE temp_blobs (
			key TEXT PRIMARY KEY,
			etag TEXT NOT NULL,
			size INTEGER NOT NULL,
			last_modified TEXT NOT NULL,
			content_type TEXT NOT NULL,
			modified TEXT NOT NULL,
			md5 TEXT NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("create temporary table: %w", err)
	}

	insertStmt, err := tx.Preparex(`INSERT OR REPLACE INTO temp_blobs (` + blobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer insertStmt.Close()

	for _, blob := range blobs {
		if _, err = insertStmt.Exec(blobArgs(blob)...); err != nil {
			return nil, fmt.Errorf("insert blob %s into temp table: %w", blob.Key, err)
		}
	}

	result = &bulkUpdateResult{}

	const changed = `t.etag != b.etag OR t.size != b.size OR t.modified != b.modified OR t.md5 != b.md5 OR t.content_type != b.content_type`

	if err = tx.Get(&result.Deleted, `
		SELECT COUNT(*) FROM blobs b
		LEFT JOIN temp_blobs t ON b.key = t.key
		WHERE t.key IS NULL`); err != nil {
		return nil, fmt.Errorf("count deleted blobs: %w", err)
	}

	if err = tx.Get(&result.Added, `
		SELECT COUNT(*) FROM temp_blobs t
		LEFT JOIN blobs b ON t.key = b.key
		WHERE b.key IS NULL`); err != nil {
		return nil, fmt.Errorf("count new blobs: %w", err)
	}

	if err = tx.Get(&result.Updated, `
		SELECT COUNT(*) FROM temp_blobs t
		JOIN blobs b ON t.key = b.key
		WHERE `+changed); err != nil {
		return nil, fmt.Errorf("count updated blobs: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM blobs WHERE key NOT IN (SELECT key FROM temp_blobs)`); err != nil {
		return nil, fmt.Errorf("remove deleted blobs: %w", err)
	}

	if _, err = tx.Exec(`
		INSERT OR REPLACE INTO blobs (` + blobColumns + `)
		SELECT t.key, t.etag, t.size, t.last_modified, t.content_type, t.modified, t.md5
		FROM temp_blobs t
		LEFT JOIN blobs b ON t.key = b.key
		WHERE b.key IS NULL OR ` + changed); err != nil {
		return nil, fmt.Errorf("upsert blobs: %w", err)
	}

	if _, err = tx.Exec(`DROP TABLE temp_blobs`); err != nil {
		return nil, fmt.Errorf("drop temporary table: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return result, nil
}

func blobArgs(b *BlobInfo) []any {
	return []any{b.Key, b.ETag, b.Size, b.LastModified, b.ContentType, b.Modified, b.MD5}
}
