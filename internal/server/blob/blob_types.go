package blob

import "time"

// BlobInfo is the indexed view of an object
type BlobInfo struct {
	Key          string `json:"key" db:"key"`
	ETag         string `json:"etag" db:"etag"`
	Size         int64  `json:"size" db:"size"`
	LastModified string `json:"lastModified" db:"last_modified"`
	ContentType  string `json:"contentType" db:"content_type"`
	Modified     string `json:"modified" db:"modified"`
	MD5          string `json:"md5" db:"md5"`
}

// LastModifiedTime parses LastModified, zero time when unset or malformed
func (b *BlobInfo) LastModifiedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, b.LastModified)
	if err != nil {
		return time.Time{}
	}
	return t
}

// sameObject reports whether other describes the same stored bytes
func (b *BlobInfo) sameObject(other *BlobInfo) bool {
	return other != nil && b.ETag == other.ETag && b.Size == other.Size
}

// Page is one cursor page of the index
type Page struct {
	Blobs     []*BlobInfo
	Truncated bool
	Cursor    string
}
