package blob

// TimeFormat is the wire format of every timestamp, millisecond precision in UTC
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type ListRequest struct {
	Prefix string `form:"prefix"`
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

type CustomMetadata struct {
	Modified string `json:"modified,omitempty"`
	MD5      string `json:"md5,omitempty"`
}

type ListFile struct {
	Key            string         `json:"key"`
	Size           int64          `json:"size"`
	Uploaded       string         `json:"uploaded"`
	ETag           string         `json:"etag"`
	CustomMetadata CustomMetadata `json:"customMetadata"`
}

type ListResponse struct {
	Files     []*ListFile `json:"files"`
	Truncated bool        `json:"truncated"`
	Cursor    *string     `json:"cursor"`
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
