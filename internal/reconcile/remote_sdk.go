package reconcile

import (
	"context"

	"github.com/delorenj/vaultsync/internal/vaultsdk"
)

// SDKRemote adapts the facade client to RemoteStore
type SDKRemote struct {
	client *vaultsdk.Client
}

func NewSDKRemote(client *vaultsdk.Client) *SDKRemote {
	return &SDKRemote{client: client}
}

func (s *SDKRemote) ListPage(ctx context.Context, prefix, cursor string) (*RemotePage, error) {
	resp, err := s.client.List(ctx, prefix, cursor)
	if err != nil {
		return nil, err
	}

	page := &RemotePage{
		Files:     make([]*RemoteFile, 0, len(resp.Files)),
		Truncated: resp.Truncated,
		Cursor:    resp.NextCursor(),
	}
	for _, f := range resp.Files {
		if f == nil {
			continue
		}
		page.Files = append(page.Files, toRemoteFile(f))
	}
	return page, nil
}

func (s *SDKRemote) SyncBatch(ctx context.Context, items []*UploadItem) ([]*UploadResult, error) {
	req := make([]*vaultsdk.SyncItem, 0, len(items))
	for _, item := range items {
		req = append(req, &vaultsdk.SyncItem{
			Path:     item.Path,
			Content:  item.Content,
			Type:     item.ContentType,
			Modified: item.Modified,
			MD5:      item.MD5,
		})
	}

	resp, err := s.client.SyncBatch(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]*UploadResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		status := StatusError
		if r.Status == vaultsdk.StatusSuccess {
			status = StatusSuccess
		}
		results = append(results, &UploadResult{Path: r.Path, Status: status, Error: r.Error})
	}
	return results, nil
}

func (s *SDKRemote) DeleteFile(ctx context.Context, key string) error {
	return s.client.DeleteFile(ctx, key)
}

func toRemoteFile(f *vaultsdk.ListedFile) *RemoteFile {
	rf := &RemoteFile{
		Key:  f.Key,
		Size: f.Size,
		Hash: f.CustomMetadata.MD5,
	}
	if uploaded, ok := vaultsdk.ParseTime(f.Uploaded); ok {
		rf.UploadedAt = uploaded
	}
	// objects written without the modified metadata compare on upload time
	if modified, ok := vaultsdk.ParseTime(f.CustomMetadata.Modified); ok {
		rf.ModifiedAt = &modified
	}
	return rf
}

var _ RemoteStore = (*SDKRemote)(nil)
