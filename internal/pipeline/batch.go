package pipeline

import (
	"context"
	"reflect"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of parsing one path in a batch.
type BatchResult struct {
	Path  string
	Value any
	Err   error
}

// ParseBatch parses paths concurrently, at most limit at a time (unbounded
// when limit <= 0). Results are in the order of paths; one failing path
// does not stop the others.
func ParseBatch(ctx context.Context, f *Factory, paths []string, target reflect.Type, limit int) []BatchResult {
	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			v, err := f.ParsePath(gctx, path, target)
			results[i] = BatchResult{Path: path, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
