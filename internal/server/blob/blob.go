package blob

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// BlobService ties the backend to its index and keeps them consistent
type BlobService struct {
	backend Backend
	index   *BlobIndex
	indexer *blobIndexer
}

func NewBlobService(backend Backend, db *sqlx.DB, indexInterval time.Duration) (*BlobService, error) {
	index, err := newBlobIndex(db)
	if err != nil {
		return nil, err
	}

	return &BlobService{
		backend: backend,
		index:   index,
		indexer: newBlobIndexer(backend, index, indexInterval),
	}, nil
}

func (b *BlobService) Start(ctx context.Context) error {
	slog.Debug("blob service start")
	b.backend.setHooks(&blobBackendHooks{
		AfterPutObject:    b.afterPutObject,
		AfterDeleteObject: b.afterDeleteObject,
	})
	return b.indexer.Start(ctx)
}

func (b *BlobService) Shutdown(_ context.Context) error {
	slog.Debug("blob service shutdown")
	return b.index.Close()
}

func (b *BlobService) Backend() Backend {
	return b.backend
}

func (b *BlobService) Index() *BlobIndex {
	return b.index
}

func (b *BlobService) afterPutObject(req *PutObjectParams, resp *PutObjectResponse) {
	err := b.index.Set(&BlobInfo{
		Key:          resp.Key,
		ETag:         resp.ETag,
		Size:         resp.Size,
		LastModified: resp.LastModified.UTC().Format(time.RFC3339Nano),
		ContentType:  req.ContentType,
		Modified:     req.Modified,
		MD5:          req.MD5,
	})
	if err != nil {
		slog.Error("update index", "hook", "PutObject", "key", resp.Key, "error", err)
		return
	}
	slog.Debug("update index", "hook", "PutObject", "key", resp.Key)
}

func (b *BlobService) afterDeleteObject(key string) {
	if err := b.index.Remove(key); err != nil {
		slog.Error("update index", "hook", "DeleteObject", "key", key, "error", err)
		return
	}
	slog.Debug("update index", "hook", "DeleteObject", "key", key)
}
