package reconcile

import (
	"context"
	"time"
)

// RemoteWriter performs remote mutations
type RemoteWriter interface {
	// SyncBatch uploads a batch in one request and reports per item results
	SyncBatch(ctx context.Context, items []*UploadItem) ([]*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// RemoteStore is everything a run needs from the remote side
type RemoteStore interface {
	RemoteLister
	RemoteWriter
}

// Executor applies a plan against a RemoteWriter
type Executor struct {
	writer            RemoteWriter
	batchSize         int
	readConcurrency   int
	uploadConcurrency int
	deleteConcurrency int
	requestTimeout    time.Duration
}

func NewExecutor(cfg *Config, writer RemoteWriter) *Executor {
	return &Executor{
		writer:            writer,
		batchSize:         orDefault(cfg.BatchSize, DefaultBatchSize),
		readConcurrency:   orDefault(cfg.ReadConcurrency, DefaultReadConcurrency),
		uploadConcurrency: orDefault(cfg.UploadConcurrency, DefaultUploadConcurrency),
		deleteConcurrency: orDefault(cfg.DeleteConcurrency, DefaultDeleteConcurrency),
		requestTimeout:    cfg.RequestTimeout,
	}
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.requestTimeout)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
