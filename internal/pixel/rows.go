package pixel

import (
	"context"
	"runtime"
	"sync"
)

// RowFunc renders a single output row.
type RowFunc func(y int)

// ForEachRow calls fn for every row in [0, height), splitting the rows into
// contiguous bands across workers goroutines. fn must only write to row y of
// its output. The context is checked before each row; the first cancellation
// error is returned after all workers stop.
func ForEachRow(ctx context.Context, height, workers int, fn RowFunc) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > height {
		workers = height
	}

	if workers <= 1 {
		for y := 0; y < height; y++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(y)
		}
		return nil
	}

	band := (height + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for start := 0; start < height; start += band {
		end := start + band
		if end > height {
			end = height
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
				fn(y)
			}
		}(start, end)
	}
	wg.Wait()

	return firstErr
}
