package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/delorenj/vaultsync/internal/utils"
)

type memoryObject struct {
	data         []byte
	etag         string
	contentType  string
	lastModified time.Time
	metadata     map[string]string
}

// MemoryBackend keeps objects in process memory. Used for local development and tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
	hooks   *blobBackendHooks
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string]*memoryObject),
		hooks:   &blobBackendHooks{},
	}
}

func (m *MemoryBackend) setHooks(hooks *blobBackendHooks) {
	if hooks != nil {
		m.hooks = hooks
	}
}

func (m *MemoryBackend) GetObject(_ context.Context, key string) (*GetObjectResponse, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return &GetObjectResponse{
		Body:         io.NopCloser(bytes.NewReader(obj.data)),
		ETag:         obj.etag,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
		Metadata:     obj.metadata,
	}, nil
}

func (m *MemoryBackend) HeadObject(_ context.Context, key string) (*BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return obj.info(key), nil
}

func (m *MemoryBackend) PutObject(_ context.Context, params *PutObjectParams) (*PutObjectResponse, error) {
	if !ValidateKey(params.Key) {
		return nil, ErrInvalidKey
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	obj := &memoryObject{
		data:         data,
		etag:         utils.BytesHash(data),
		contentType:  params.ContentType,
		lastModified: time.Now().UTC(),
		metadata:     map[string]string{},
	}
	if params.Modified != "" {
		obj.metadata[MetaModified] = params.Modified
	}
	if params.MD5 != "" {
		obj.metadata[MetaMD5] = params.MD5
	}

	m.mu.Lock()
	m.objects[params.Key] = obj
	m.mu.Unlock()

	result := &PutObjectResponse{
		Key:          params.Key,
		ETag:         obj.etag,
		Size:         int64(len(data)),
		LastModified: obj.lastModified,
	}
	if m.hooks.AfterPutObject != nil {
		m.hooks.AfterPutObject(params, result)
	}
	return result, nil
}

func (m *MemoryBackend) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	if m.hooks.AfterDeleteObject != nil {
		m.hooks.AfterDeleteObject(key)
	}
	return nil
}

func (m *MemoryBackend) ListObjects(_ context.Context, prefix string) ([]*BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make([]*BlobInfo, 0, len(m.objects))
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		info := obj.info(key)
		// match S3 listings, which carry no user metadata
		info.ContentType, info.Modified, info.MD5 = "", "", ""
		objects = append(objects, info)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (o *memoryObject) info(key string) *BlobInfo {
	return &BlobInfo{
		Key:          key,
		ETag:         o.etag,
		Size:         int64(len(o.data)),
		LastModified: o.lastModified.Format(time.RFC3339Nano),
		ContentType:  o.contentType,
		Modified:     o.metadata[MetaModified],
		MD5:          o.metadata[MetaMD5],
	}
}

var _ Backend = (*MemoryBackend)(nil)
