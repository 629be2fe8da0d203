package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type deleteJob struct {
	index int
	key   string
}

type deleteResult struct {
	index   int
	outcome *Outcome
}

// Delete removes keys one request at a time through a bounded worker pool.
// Every key yields exactly one outcome, in input order.
func (e *Executor) Delete(ctx context.Context, keys []string) []*Outcome {
	if len(keys) == 0 {
		return nil
	}

	numWorkers := min(len(keys), e.deleteConcurrency)
	workChan := make(chan deleteJob, len(keys))
	resultChan := make(chan deleteResult, len(keys))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range workChan {
				resultChan <- deleteResult{index: job.index, outcome: e.deleteOne(ctx, job.key)}
			}
		}()
	}

	for i, key := range keys {
		workChan <- deleteJob{index: i, key: key}
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	outcomes := make([]*Outcome, len(keys))
	for res := range resultChan {
		outcomes[res.index] = res.outcome
	}
	return outcomes
}

func (e *Executor) deleteOne(ctx context.Context, key string) *Outcome {
	reqCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.writer.DeleteFile(reqCtx, key); err != nil {
		err = fmt.Errorf("delete file: %w", err)
		slog.Error("sync", "op", OpDelete, "path", key, "error", err)
		return errorOutcome(key, OpDelete, err)
	}

	slog.Info("sync", "op", OpDelete, "path", key)
	return successOutcome(key, OpDelete)
}
