package reconcile

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/delorenj/vaultsync/internal/vaultsdk"
	"golang.org/x/sync/errgroup"
)

var ErrMissingFromResponse = errors.New("missing from batch response")

type preparedItem struct {
	file *LocalFile
	item *UploadItem
	size int64
	err  error
}

// Upload sends files in chunks of the configured batch size, one request per chunk.
// Every file yields exactly one outcome, in input order.
func (e *Executor) Upload(ctx context.Context, files []*LocalFile) []*Outcome {
	chunks := chunk(files, e.batchSize)
	if len(chunks) == 0 {
		return nil
	}

	results := make([][]*Outcome, len(chunks))

	var g errgroup.Group
	g.SetLimit(e.uploadConcurrency)
	for i, c := range chunks {
		g.Go(func() error {
			results[i] = e.uploadChunk(ctx, i+1, c)
			return nil
		})
	}
	_ = g.Wait()

	outcomes := make([]*Outcome, 0, len(files))
	for _, r := range results {
		outcomes = append(outcomes, r...)
	}
	return outcomes
}

func (e *Executor) uploadChunk(ctx context.Context, n int, files []*LocalFile) []*Outcome {
	prepared := e.prepare(ctx, files)

	outcomes := make([]*Outcome, len(files))
	items := make([]*UploadItem, 0, len(files))
	for i, p := range prepared {
		if p.err != nil {
			slog.Error("sync", "op", OpUpload, "path", p.file.RelPath, "error", p.err)
			outcomes[i] = errorOutcome(p.file.RelPath, OpUpload, p.err)
			continue
		}
		items = append(items, p.item)
	}

	if len(items) == 0 {
		return outcomes
	}

	reqCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.writer.SyncBatch(reqCtx, items)
	if err != nil {
		err = fmt.Errorf("batch %d: %w", n, err)
		slog.Error("sync", "op", OpUpload, "batch", n, "files", len(items), "error", err)
		for i, p := range prepared {
			if outcomes[i] == nil {
				outcomes[i] = errorOutcome(p.file.RelPath, OpUpload, err)
			}
		}
		return outcomes
	}

	byPath := make(map[string]*UploadResult, len(res))
	for _, r := range res {
		byPath[r.Path] = r
	}

	for i, p := range prepared {
		if outcomes[i] != nil {
			continue
		}

		path := p.file.RelPath
		r, ok := byPath[path]
		switch {
		case !ok:
			outcomes[i] = errorOutcome(path, OpUpload, ErrMissingFromResponse)
		case r.Status != StatusSuccess:
			msg := r.Error
			if msg == "" {
				msg = "upload rejected"
			}
			outcomes[i] = &Outcome{Key: path, Op: OpUpload, Status: StatusError, Error: msg}
		default:
			outcomes[i] = successOutcome(path, OpUpload)
			outcomes[i].Bytes = p.size
		}

		if outcomes[i].Failed() {
			slog.Error("sync", "op", OpUpload, "path", path, "error", outcomes[i].Error)
		} else {
			slog.Info("sync", "op", OpUpload, "path", path, "size", p.size)
		}
	}

	return outcomes
}

// prepare reads and encodes every file of a chunk. Read failures stay on the item.
func (e *Executor) prepare(ctx context.Context, files []*LocalFile) []*preparedItem {
	prepared := make([]*preparedItem, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.readConcurrency)
	for i, file := range files {
		g.Go(func() error {
			prepared[i] = prepareItem(gctx, file)
			return nil
		})
	}
	_ = g.Wait()

	return prepared
}

func prepareItem(ctx context.Context, file *LocalFile) *preparedItem {
	p := &preparedItem{file: file}

	if err := ctx.Err(); err != nil {
		p.err = err
		return p
	}

	data, err := os.ReadFile(file.AbsPath)
	if err != nil {
		p.err = fmt.Errorf("read file: %w", err)
		return p
	}

	p.size = int64(len(data))
	p.item = &UploadItem{
		Path:        file.RelPath,
		Content:     base64.StdEncoding.EncodeToString(data),
		ContentType: utils.DetectContentType(file.RelPath),
		Modified:    vaultsdk.FormatTime(file.ModTime),
		MD5:         utils.BytesHash(data),
	}
	return p
}
