package reconcile

import "time"

// OpType is the kind of remote mutation an outcome belongs to
type OpType string

const (
	OpUpload OpType = "upload"
	OpDelete OpType = "delete"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// LocalFile is a vault file eligible for sync.
// RelPath is slash separated, relative to the vault root and case sensitive.
type LocalFile struct {
	RelPath string    `json:"path"`
	AbsPath string    `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
	// Hash is the md5 hex digest, empty when not computed
	Hash string `json:"hash,omitempty"`
}

// RemoteFile is an object as reported by the remote listing
type RemoteFile struct {
	Key        string     `json:"key"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
	ModifiedAt *time.Time `json:"modifiedAt,omitempty"`
	Hash       string     `json:"hash,omitempty"`
}

// EffectiveModTime is the modification time carried in the object metadata,
// falling back to the upload time for objects written without it.
func (r *RemoteFile) EffectiveModTime() time.Time {
	if r.ModifiedAt != nil {
		return *r.ModifiedAt
	}
	return r.UploadedAt
}

type LocalSnapshot []*LocalFile

// Dedup drops earlier entries that share a RelPath with a later one
func (s LocalSnapshot) Dedup() LocalSnapshot {
	last := make(map[string]int, len(s))
	for i, f := range s {
		last[f.RelPath] = i
	}
	if len(last) == len(s) {
		return s
	}

	out := make(LocalSnapshot, 0, len(last))
	for i, f := range s {
		if last[f.RelPath] == i {
			out = append(out, f)
		}
	}
	return out
}

// RemoteSnapshot is the complete remote listing keyed by object key
type RemoteSnapshot map[string]*RemoteFile

// RemotePage is one page of the remote listing
type RemotePage struct {
	Files     []*RemoteFile
	Truncated bool
	Cursor    string
}

// Plan is the set of mutations that makes the remote match the local snapshot.
// Uploads and Deletions never share a key.
type Plan struct {
	Uploads   []*LocalFile `json:"uploads"`
	Deletions []string     `json:"deletions"`
	Skipped   int          `json:"skipped"`
}

func (p *Plan) HasChanges() bool {
	return len(p.Uploads) > 0 || len(p.Deletions) > 0
}

// UploadItem is one entry of a batch upload request
type UploadItem struct {
	Path        string
	Content     string
	ContentType string
	Modified    string
	MD5         string
}

type UploadResult struct {
	Path   string
	Status Status
	Error  string
}

// Outcome is the result of a single remote mutation
type Outcome struct {
	Key    string `json:"key" yaml:"key"`
	Op     OpType `json:"op" yaml:"op"`
	Status Status `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
	Bytes  int64  `json:"-" yaml:"-"`
}

func (o *Outcome) Failed() bool {
	return o.Status != StatusSuccess
}

func successOutcome(key string, op OpType) *Outcome {
	return &Outcome{Key: key, Op: op, Status: StatusSuccess}
}

func errorOutcome(key string, op OpType, err error) *Outcome {
	return &Outcome{Key: key, Op: op, Status: StatusError, Error: err.Error()}
}
