// Package pipeline counts distinct k-mers in parallel. Each worker fills a
// private sketch from its share of the records; the partial sketches are then
// merged pairwise into one. Because every sketch merge is associative and
// commutative, the result does not depend on the number of workers.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/genc-murat/kmersketch/internal/core/models"
	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/internal/kmer"
	"github.com/genc-murat/kmersketch/internal/pool"
	"github.com/pkg/errors"
)

var ErrInvalidK = errors.New("k-mer length must be greater than zero")

type Result[S models.Sketch[S]] struct {
	Sketch     S
	TotalKmers uint64
	Records    uint64
	Workers    int
	Elapsed    time.Duration
}

func (r Result[S]) Estimate() (float64, error) {
	return r.Sketch.Estimate()
}

// Complexity is the ratio of distinct to total k-mers, clamped to [0,1]. The
// estimate error, if any, is returned alongside the value.
func (r Result[S]) Complexity() (float64, error) {
	if r.TotalKmers == 0 {
		return 0, nil
	}
	estimate, err := r.Sketch.Estimate()
	ratio := estimate / float64(r.TotalKmers)
	return min(max(ratio, 0), 1), err
}

type partial[S any] struct {
	sketch  S
	kmers   uint64
	records uint64
}

// Run partitions records across opts.Workers workers and returns the merged
// sketch. newSketch is called once per worker from the calling goroutine.
func Run[S models.Sketch[S]](ctx context.Context, records []ports.Record, newSketch func() S, opts Options) (Result[S], error) {
	if opts.K <= 0 {
		return Result[S]{}, ErrInvalidK
	}
	startTime := time.Now()
	logger := opts.logger()

	chunks := Partition(records, opts.workers())
	partials := make([]partial[S], len(chunks))

	p := pool.NewWorkerPool(ctx, pool.Config{Workers: len(chunks)})
	var submitErr error
	for i, chunk := range chunks {
		partials[i].sketch = newSketch()
		submitErr = p.Go(func(ctx context.Context) error {
			if opts.Metrics != nil {
				opts.Metrics.WorkerStarted()
				defer opts.Metrics.WorkerDone()
			}
			workerStart := time.Now()
			for _, rec := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				partials[i].kmers += scanRecord(partials[i].sketch, rec, opts)
				partials[i].records++
			}
			logger.Printf("worker %d: %d records, %d k-mers in %s", i, partials[i].records, partials[i].kmers, time.Since(workerStart))
			return nil
		})
		if submitErr != nil {
			break
		}
	}
	if err := p.Wait(); err != nil {
		return Result[S]{}, err
	}
	if submitErr != nil {
		return Result[S]{}, submitErr
	}
	if opts.Metrics != nil {
		opts.Metrics.AddPhase("scan", time.Since(startTime))
	}

	return reduce(partials, opts, startTime)
}

// RunSource streams records from src to a fixed set of workers through a
// bounded queue. A source error stops every worker and is returned as is.
func RunSource[S models.Sketch[S]](ctx context.Context, src ports.RecordSource, newSketch func() S, opts Options) (Result[S], error) {
	if opts.K <= 0 {
		return Result[S]{}, ErrInvalidK
	}
	startTime := time.Now()
	logger := opts.logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := opts.workers()
	queue := make(chan ports.Record, opts.queueSize())
	partials := make([]partial[S], workers)

	p := pool.NewWorkerPool(ctx, pool.Config{Workers: workers})
	for i := range partials {
		partials[i].sketch = newSketch()
		err := p.Go(func(ctx context.Context) error {
			if opts.Metrics != nil {
				opts.Metrics.WorkerStarted()
				defer opts.Metrics.WorkerDone()
			}
			workerStart := time.Now()
			for rec := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}
				partials[i].kmers += scanRecord(partials[i].sketch, rec, opts)
				partials[i].records++
			}
			logger.Printf("worker %d: %d records, %d k-mers in %s", i, partials[i].records, partials[i].kmers, time.Since(workerStart))
			return nil
		})
		if err != nil {
			close(queue)
			if waitErr := p.Wait(); waitErr != nil {
				return Result[S]{}, waitErr
			}
			return Result[S]{}, err
		}
	}

	readErr := feed(p.Context(), src, queue)
	if readErr != nil {
		cancel()
	}
	close(queue)

	waitErr := p.Wait()
	if readErr != nil {
		return Result[S]{}, readErr
	}
	if waitErr != nil {
		return Result[S]{}, waitErr
	}
	if opts.Metrics != nil {
		opts.Metrics.AddPhase("scan", time.Since(startTime))
	}

	return reduce(partials, opts, startTime)
}

// feed copies records from src into queue until EOF, a read error, or ctx is
// done. Only read errors are returned; cancellation is reported by the
// workers.
func feed(ctx context.Context, src ports.RecordSource, queue chan<- ports.Record) error {
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case queue <- rec:
		case <-ctx.Done():
			return nil
		}
	}
}

func scanRecord[S models.Sketch[S]](sketch S, rec ports.Record, opts Options) uint64 {
	windows := kmer.Windows(rec.Seq, opts.K)
	if opts.SkipInvalid {
		windows = kmer.ValidWindows(rec.Seq, opts.K)
	}

	var n uint64
	for w := range windows {
		sketch.Insert(w)
		n++
	}

	if opts.Metrics != nil {
		opts.Metrics.AddRecords(1)
		opts.Metrics.AddKmers(int64(n))
	}
	if opts.OnRecord != nil {
		opts.OnRecord(rec, n)
	}
	return n
}

func reduce[S models.Sketch[S]](partials []partial[S], opts Options, startTime time.Time) (Result[S], error) {
	reduceStart := time.Now()

	sketches := make([]S, len(partials))
	result := Result[S]{Workers: len(partials)}
	for i, part := range partials {
		sketches[i] = part.sketch
		result.TotalKmers += part.kmers
		result.Records += part.records
	}

	merged, err := models.MergeAll(sketches...)
	if err != nil {
		return Result[S]{}, errors.Wrap(err, "reduce partial sketches")
	}
	result.Sketch = merged
	result.Elapsed = time.Since(startTime)

	if opts.Metrics != nil {
		opts.Metrics.AddPhase("reduce", time.Since(reduceStart))
	}
	opts.logger().Printf("reduced %d partial sketches in %s", len(partials), time.Since(reduceStart))
	return result, nil
}
