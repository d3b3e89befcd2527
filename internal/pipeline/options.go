package pipeline

import (
	"io"
	"log"
	"runtime"

	"github.com/genc-murat/kmersketch/internal/core/ports"
	"github.com/genc-murat/kmersketch/internal/metrics"
)

const DefaultQueueSize = 64

type Options struct {
	// Workers is the number of partitions scanned in parallel. Zero means one
	// per CPU.
	Workers int
	// K is the k-mer length.
	K int
	// SkipInvalid drops windows containing bytes other than A, C, G and T.
	SkipInvalid bool
	// QueueSize bounds the records buffered between the source and the
	// workers in streaming mode.
	QueueSize int
	// Logger receives per-worker and reduction timings. Nil discards them.
	Logger *log.Logger
	// Metrics, if set, accumulates record and k-mer counters.
	Metrics *metrics.Metrics
	// OnRecord is called from worker goroutines after each record is
	// scanned, so it must be safe for concurrent use.
	OnRecord func(rec ports.Record, kmers uint64)
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o Options) queueSize() int {
	if o.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return o.QueueSize
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return o.Logger
}
