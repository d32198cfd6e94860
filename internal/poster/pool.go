package poster

import (
	"context"
	"sync"

	"github.com/reviewsync/reviewsync/internal/document"
)

// runPool dispatches items across a bounded set of workers and collects
// one result per item. Each worker mutates only its own comment, so the
// only serialization point is the caller's final document write-back.
func runPool(ctx context.Context, workers int, items []*document.Comment, fn func(*document.Comment) Result) []Result {
	if len(items) == 0 {
		return nil
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan *document.Comment)
	results := make(chan Result, len(items))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- fn(c)
			}
		}()
	}

	for _, c := range items {
		select {
		case <-ctx.Done():
			// Stop handing out work; records not dispatched stay untouched
			// and a rerun picks them up.
			close(jobs)
			wg.Wait()
			close(results)
			var out []Result
			for r := range results {
				out = append(out, r)
			}
			return out
		case jobs <- c:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(items))
	for r := range results {
		out = append(out, r)
	}
	return out
}
