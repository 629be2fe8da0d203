package reconcile

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/delorenj/vaultsync/internal/vaultsdk"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// memRemote is an in-memory RemoteStore with failure injection
type memRemote struct {
	mu       sync.Mutex
	objects  map[string]*RemoteFile
	pageSize int
	now      time.Time

	failListPage int
	failBatch    map[int]error
	dropResult   map[string]bool
	rejectPath   map[string]string
	failDelete   map[string]error

	listCalls   int
	batchCalls  int
	batchSizes  []int
	deleteCalls int
}

func newMemRemote() *memRemote {
	return &memRemote{
		objects:    make(map[string]*RemoteFile),
		pageSize:   1000,
		now:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		failBatch:  make(map[int]error),
		dropResult: make(map[string]bool),
		rejectPath: make(map[string]string),
		failDelete: make(map[string]error),
	}
}

func (m *memRemote) put(key string, size int64, modified *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &RemoteFile{Key: key, Size: size, UploadedAt: m.now, ModifiedAt: modified}
}

func (m *memRemote) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *memRemote) ListPage(ctx context.Context, prefix, cursor string) (*RemotePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++
	if m.failListPage == m.listCalls {
		return nil, errBoom
	}

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > cursor {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	page := &RemotePage{}
	for i, k := range keys {
		if i == m.pageSize {
			page.Truncated = true
			page.Cursor = keys[i-1]
			break
		}
		f := *m.objects[k]
		page.Files = append(page.Files, &f)
	}
	return page, nil
}

func (m *memRemote) SyncBatch(ctx context.Context, items []*UploadItem) ([]*UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(items))
	if err := m.failBatch[m.batchCalls]; err != nil {
		return nil, err
	}

	results := make([]*UploadResult, 0, len(items))
	for _, item := range items {
		if m.dropResult[item.Path] {
			continue
		}
		if msg, ok := m.rejectPath[item.Path]; ok {
			results = append(results, &UploadResult{Path: item.Path, Status: StatusError, Error: msg})
			continue
		}

		data, err := base64.StdEncoding.DecodeString(item.Content)
		if err != nil {
			return nil, err
		}
		rf := &RemoteFile{Key: item.Path, Size: int64(len(data)), UploadedAt: m.now, Hash: item.MD5}
		if modified, ok := vaultsdk.ParseTime(item.Modified); ok {
			rf.ModifiedAt = &modified
		}
		m.objects[item.Path] = rf
		results = append(results, &UploadResult{Path: item.Path, Status: StatusSuccess})
	}
	return results, nil
}

func (m *memRemote) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCalls++
	if err := m.failDelete[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	return nil
}

// dirScanner lists every regular file under root
type dirScanner struct {
	root string
	err  error
}

func (s *dirScanner) Scan(ctx context.Context) (LocalSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out LocalSnapshot
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(s.root, path)
		hash, err := utils.FileHash(path)
		if err != nil {
			return err
		}
		out = append(out, &LocalFile{
			RelPath: filepath.ToSlash(rel),
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hash:    hash,
		})
		return nil
	})
	return out, err
}

func writeFile(t *testing.T, root, rel, content string, mtime time.Time) *LocalFile {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return &LocalFile{RelPath: rel, AbsPath: path, Size: int64(len(content)), ModTime: mtime}
}

func ptime(t time.Time) *time.Time {
	return &t
}

func removeFile(root, rel string) error {
	return os.Remove(filepath.Join(root, filepath.FromSlash(rel)))
}
