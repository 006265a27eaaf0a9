// Package parallel splits row ranges across goroutines for read-only batch work.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the row count at or below which work runs sequentially.
const DefaultThreshold = 1000

// chunks divides items into at most runtime.NumCPU() contiguous [start, end) ranges.
func chunks(items int) [][2]int {
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	out := make([][2]int, 0, numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// ForEachChunk runs fn(ctx, 0, items) on the calling goroutine when
// items <= threshold. Otherwise it runs fn concurrently on the ranges from
// chunks. The first error cancels ctx for the remaining chunks and is returned.
func ForEachChunk(ctx context.Context, items, threshold int, fn func(ctx context.Context, start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		return fn(ctx, 0, items)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range chunks(items) {
		s, e := c[0], c[1]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, s, e)
		})
	}
	return g.Wait()
}
