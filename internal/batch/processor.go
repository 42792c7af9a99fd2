// Package batch runs one tool action per input file on a worker pool.
package batch

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Result holds the outcome of processing one input.
type Result[T any] struct {
	Input   string
	Value   T
	Err     error
	Elapsed time.Duration
}

type options struct {
	progress io.Writer
	interval time.Duration
}

// Option adjusts Run.
type Option func(*options)

// WithProgress reports throughput to w every interval. A nil w disables it.
func WithProgress(w io.Writer, interval time.Duration) Option {
	return func(o *options) { o.progress, o.interval = w, interval }
}

// Run applies fn to every input using workers goroutines. Results are in
// input order. fn must not share file handles across calls.
func Run[T any](workers int, inputs []string, fn func(input string) (T, error), opts ...Option) []Result[T] {
	o := options{progress: os.Stdout, interval: 2 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	workers = max(1, min(workers, len(inputs)))

	total := len(inputs)
	results := make([]Result[T], total)
	var processed atomic.Int64
	start := time.Now()

	done := make(chan struct{})
	var reporter sync.WaitGroup
	if o.progress != nil && o.interval > 0 {
		reporter.Add(1)
		go func() {
			defer reporter.Done()
			ticker := time.NewTicker(o.interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if p := processed.Load(); p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(o.progress, "  [%d/%d] %.1f files/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				t0 := time.Now()
				v, err := fn(inputs[i])
				results[i] = Result[T]{Input: inputs[i], Value: v, Err: err, Elapsed: time.Since(t0)}
				processed.Add(1)
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)
	reporter.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed[T any](results []Result[T]) []Result[T] {
	var out []Result[T]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
