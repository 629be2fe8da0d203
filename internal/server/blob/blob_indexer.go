package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultIndexInterval = 15 * time.Minute
	headConcurrency      = 16
)

// blobIndexer periodically rebuilds the index from the bucket listing.
// Listings carry no user metadata, so new or changed objects get a HEAD request.
type blobIndexer struct {
	backend  Backend
	index    *BlobIndex
	interval time.Duration
}

func newBlobIndexer(backend Backend, index *BlobIndex, interval time.Duration) *blobIndexer {
	if interval <= 0 {
		interval = defaultIndexInterval
	}
	return &blobIndexer{
		backend:  backend,
		index:    index,
		interval: interval,
	}
}

// Start builds the index once, then keeps rebuilding it until ctx is done
func (bi *blobIndexer) Start(ctx context.Context) error {
	if err := bi.buildIndex(ctx); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(bi.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Debug("blob indexer stopped")
				return
			case <-ticker.C:
				if err := bi.buildIndex(ctx); err != nil {
					slog.Error("blob indexer", "error", err)
				}
			}
		}
	}()

	return nil
}

func (bi *blobIndexer) buildIndex(ctx context.Context) error {
	start := time.Now()

	blobs, err := bi.backend.ListObjects(ctx, "")
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}

	heads := bi.fillMetadata(ctx, blobs)

	result, err := bi.index.bulkUpdate(blobs)
	if err != nil {
		return fmt.Errorf("update index: %w", err)
	}

	slog.Debug("blob indexer update",
		"total", len(blobs),
		"heads", heads,
		"added", result.Added,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"took", time.Since(start),
	)
	return nil
}

// fillMetadata copies metadata for unchanged objects from the index and fetches it for the rest
func (bi *blobIndexer) fillMetadata(ctx context.Context, blobs []*BlobInfo) int {
	var pending []*BlobInfo
	for _, blob := range blobs {
		if existing, ok := bi.index.Get(blob.Key); ok && existing.sameObject(blob) {
			blob.ContentType = existing.ContentType
			blob.Modified = existing.Modified
			blob.MD5 = existing.MD5
			continue
		}
		pending = append(pending, blob)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(headConcurrency)
	for _, blob := range pending {
		g.Go(func() error {
			head, err := bi.backend.HeadObject(gctx, blob.Key)
			if errors.Is(err, ErrNotFound) {
				return nil
			} else if err != nil {
				// keep the listing entry, a missing modified falls back to the upload time
				slog.Warn("blob indexer head", "key", blob.Key, "error", err)
				return nil
			}
			blob.ContentType = head.ContentType
			blob.Modified = head.Modified
			blob.MD5 = head.MD5
			return nil
		})
	}
	_ = g.Wait()

	return len(pending)
}
