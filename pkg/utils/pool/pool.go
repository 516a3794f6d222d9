package pool

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/m-mizutani/ctxlog"
)

// Run executes fn once per item with at most limit invocations in flight.
//
// Parameters:
//   - ctx: Passed through to every invocation, cancellation is observed by fn
//   - limit: Maximum number of concurrent invocations, values below 1 mean 1
//   - items: Work items, each handed to exactly one invocation
//   - fn: Function to execute for each item
//
// Behavior:
//   - Blocks until every invocation has returned
//   - Recovers panics inside fn and logs them, other items keep running
//   - Gives no ordering guarantee across items
func Run[T any](ctx context.Context, limit int, items []T, fn func(ctx context.Context, item T)) {
	if limit < 1 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item T) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					logger := ctxlog.From(ctx)
					logger.Error("panic in pool worker",
						"recover", r,
						"stack", string(debug.Stack()))
				}
			}()

			fn(ctx, item)
		}(item)
	}

	wg.Wait()
}
