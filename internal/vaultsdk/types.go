package vaultsdk

import "time"

// TimeFormat is the timestamp format used on the wire
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type CustomMetadata struct {
	Modified string `json:"modified,omitempty"`
	MD5      string `json:"md5,omitempty"`
}

type ListedFile struct {
	Key            string         `json:"key"`
	Size           int64          `json:"size"`
	Uploaded       string         `json:"uploaded"`
	ETag           string         `json:"etag"`
	CustomMetadata CustomMetadata `json:"customMetadata"`
}

type ListResponse struct {
	Files     []*ListedFile `json:"files"`
	Truncated bool          `json:"truncated"`
	Cursor    *string       `json:"cursor"`
}

// NextCursor returns the cursor for the next page, empty when there is none
func (r *ListResponse) NextCursor() string {
	if r.Cursor == nil {
		return ""
	}
	return *r.Cursor
}

type SyncItem struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Modified string `json:"modified"`
	MD5      string `json:"md5"`
}

type SyncResult struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type SyncResponse struct {
	Results []*SyncResult `json:"results"`
}

type PutResponse struct {
	Key  string `json:"key"`
	ETag string `json:"etag"`
	Size int64  `json:"size"`
}

type DeleteResponse struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

type DeleteAllResponse struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type FileContent struct {
	Key         string
	Data        []byte
	ETag        string
	ContentType string
	Modified    string
}

// ParseTime parses a wire timestamp, accepting any RFC 3339 variant
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
