package pool

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("pool is closed")

// WorkerPool runs tasks on at most Config.Workers goroutines and joins them
// in Wait. The first task error cancels the context handed to every other
// task.
type WorkerPool struct {
	stats struct {
		sync.RWMutex
		started   int
		completed int
		waitTime  time.Duration
	}
	mu      sync.Mutex
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	tokens  chan struct{}
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
	closed  bool
}

func NewWorkerPool(ctx context.Context, config Config) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		tokens: make(chan struct{}, config.workers()),
	}
}

// Size returns the number of worker slots.
func (p *WorkerPool) Size() int {
	return cap(p.tokens)
}

// Context is cancelled once a task fails or Wait returns.
func (p *WorkerPool) Context() context.Context {
	return p.ctx
}

// Go blocks until a worker slot is free and starts task on it. It returns the
// context error if the pool was cancelled while waiting, and ErrPoolClosed
// after Wait.
func (p *WorkerPool) Go(task func(ctx context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	startTime := time.Now()

	select {
	case p.tokens <- struct{}{}:
	case <-p.ctx.Done():
		p.wg.Done()
		return p.ctx.Err()
	}
	p.updateStats(time.Since(startTime))

	go func() {
		defer func() {
			<-p.tokens
			p.incrementCompleted()
			p.wg.Done()
		}()
		if err := task(p.ctx); err != nil {
			p.fail(err)
		}
	}()
	return nil
}

// Wait closes the pool to new tasks, waits for running ones and returns the
// first error any of them reported.
func (p *WorkerPool) Wait() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	return p.err
}

func (p *WorkerPool) fail(err error) {
	p.errOnce.Do(func() {
		p.err = err
		p.cancel()
	})
}

// Metric helpers
func (p *WorkerPool) incrementCompleted() {
	p.stats.Lock()
	p.stats.completed++
	p.stats.Unlock()
}

func (p *WorkerPool) updateStats(waitTime time.Duration) {
	p.stats.Lock()
	p.stats.started++
	p.stats.waitTime += waitTime
	p.stats.Unlock()
}

// Stats getter
func (p *WorkerPool) Stats() (started, completed int, avgWaitTime time.Duration) {
	p.stats.RLock()
	defer p.stats.RUnlock()

	started = p.stats.started
	completed = p.stats.completed
	if started > 0 {
		avgWaitTime = p.stats.waitTime / time.Duration(started)
	}
	return
}
