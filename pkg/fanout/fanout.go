// Package fanout runs one fetch per item with bounded concurrency and keeps
// every item's outcome.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is used when Map is called with a non-positive limit.
const DefaultLimit = 8

// Result is the outcome for one input item.
type Result[T any] struct {
	Index int
	Key   string
	Value T
	Err   error
}

// OK reports whether the item succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Map calls fn for every item, at most limit at a time, and returns the
// results in input order. A failing item never cancels its siblings. If ctx
// is cancelled, items not yet started get ctx.Err().
func Map[I, T any](ctx context.Context, items []I, limit int, key func(I) string, fn func(context.Context, I) (T, error)) []Result[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	results := make([]Result[T], len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		results[i].Index = i
		if key != nil {
			results[i].Key = key(item)
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(ctx, item)
			results[i].Value = v
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Values returns the successful values in input order.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Failures returns the failed results in input order.
func Failures[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
