package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrCursorMissing  = errors.New("truncated page without cursor")
	ErrCursorRepeated = errors.New("listing cursor did not advance")
)

// RemoteLister returns one page of the remote listing
type RemoteLister interface {
	ListPage(ctx context.Context, prefix, cursor string) (*RemotePage, error)
}

// FetchRemoteSnapshot follows the listing cursor until the last page.
// Any page failure aborts since a partial snapshot would plan wrong deletions.
func FetchRemoteSnapshot(ctx context.Context, lister RemoteLister, prefix string, timeout time.Duration) (RemoteSnapshot, error) {
	snapshot := make(RemoteSnapshot)
	cursor := ""

	for page := 1; ; page++ {
		res, err := listPage(ctx, lister, prefix, cursor, timeout)
		if err != nil {
			return nil, fmt.Errorf("fetch remote page %d: %w", page, err)
		}

		for _, file := range res.Files {
			if file == nil {
				continue
			}
			// last write wins on duplicate keys across pages
			snapshot[file.Key] = file
		}

		if !res.Truncated {
			slog.Debug("remote snapshot", "pages", page, "files", len(snapshot))
			return snapshot, nil
		}

		if res.Cursor == "" {
			return nil, fmt.Errorf("fetch remote page %d: %w", page, ErrCursorMissing)
		}
		if res.Cursor == cursor {
			return nil, fmt.Errorf("fetch remote page %d: %w", page, ErrCursorRepeated)
		}
		cursor = res.Cursor
	}
}

func listPage(ctx context.Context, lister RemoteLister, prefix, cursor string, timeout time.Duration) (*RemotePage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return lister.ListPage(ctx, prefix, cursor)
}
