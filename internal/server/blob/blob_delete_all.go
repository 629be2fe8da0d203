package blob

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

const deleteAllWorkers = 8

// DeleteAllResult summarizes a DeleteAll run
type DeleteAllResult struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// DeleteAll removes every object under prefix using a bounded worker pool
func (b *BlobService) DeleteAll(ctx context.Context, prefix string) (*DeleteAllResult, error) {
	objects, err := b.backend.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	type deleteResult struct {
		key string
		err error
	}

	workChan := make(chan string)
	resultChan := make(chan deleteResult, len(objects))

	var wg sync.WaitGroup
	for range min(deleteAllWorkers, max(len(objects), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range workChan {
				resultChan <- deleteResult{key: key, err: b.backend.DeleteObject(ctx, key)}
			}
		}()
	}

	for _, obj := range objects {
		workChan <- obj.Key
	}
	close(workChan)
	wg.Wait()
	close(resultChan)

	result := &DeleteAllResult{}
	for res := range resultChan {
		if res.err != nil {
			slog.Error("delete all", "key", res.key, "error", res.err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", res.key, res.err))
			continue
		}
		result.Deleted++
	}

	slog.Info("delete all", "prefix", prefix, "deleted", result.Deleted, "failed", result.Failed)
	return result, nil
}
