package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PartialResult holds one outcome of a best-effort fan-out.
type PartialResult[T any] struct {
	Value T
	Err   error
}

// ParallelPartialLimit executes fns with at most limit goroutines in flight
// and collects every outcome. A failing fn does not cancel its siblings;
// callers inspect each PartialResult instead. Results are positionally
// aligned with fns.
//
// Example:
//
//	results := ParallelPartialLimit(ctx, 4, publishFuncs...)
//	for _, r := range results {
//	    if r.Err != nil {
//	        logger.Warn("publish failed", slog.Any("error", r.Err))
//	    }
//	}
func ParallelPartialLimit[T any](
	ctx context.Context,
	limit int,
	fns ...func(context.Context) (T, error),
) []PartialResult[T] {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]PartialResult[T], len(fns))

	for i, fn := range fns {
		g.Go(func() error {
			value, err := fn(ctx)
			results[i] = PartialResult[T]{Value: value, Err: err}

			// Failures stay in the result slot; returning nil keeps the
			// group from canceling the remaining fns.
			return nil
		})
	}

	_ = g.Wait()

	return results
}
