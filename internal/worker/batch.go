package worker

import (
	"context"
)

// URLFunc processes one URL
type URLFunc[T any] func(ctx context.Context, url string) (T, error)

// URLJob applies a URLFunc to a single URL
type URLJob[T any] struct {
	URL string
	Fn  URLFunc[T]
}

// Execute executes the job
func (j *URLJob[T]) Execute(ctx context.Context) Result {
	value, err := j.Fn(ctx, j.URL)
	return &URLResult[T]{
		URL:   j.URL,
		Value: value,
		Error: err,
	}
}

// URLResult is the outcome of one URLJob
type URLResult[T any] struct {
	URL   string
	Value T
	Error error
}

// GetError returns the error from the job
func (r *URLResult[T]) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple URLs concurrently
type BatchProcessor[T any] struct {
	fn          URLFunc[T]
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor[T any](fn URLFunc[T], concurrency int) *BatchProcessor[T] {
	return &BatchProcessor[T]{
		fn:          fn,
		concurrency: concurrency,
	}
}

// ProcessURLs runs fn over urls and returns one result per URL, in input order.
// After ctx is cancelled the remaining URLs get ctx.Err() as their error.
func (b *BatchProcessor[T]) ProcessURLs(ctx context.Context, urls []string) []*URLResult[T] {
	if len(urls) == 0 {
		return []*URLResult[T]{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, url := range urls {
		pool.Submit(&URLJob[T]{URL: url, Fn: b.fn})
	}

	results := pool.Wait()

	out := make([]*URLResult[T], len(urls))
	for i, r := range results {
		if r != nil {
			out[i] = r.(*URLResult[T])
		}
	}
	for i := range out {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &URLResult[T]{URL: urls[i], Error: err}
		}
	}

	return out
}
