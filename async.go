package ctxcomp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrExecutorClosed is returned when submitting to a closed AsyncExecutor.
var ErrExecutorClosed = errors.New("async executor is closed")

// AsyncConfig configures the default async executor.
type AsyncConfig struct {
	// Workers is the number of goroutines running tasks. Zero or less runs every task in its own
	// goroutine.
	Workers int
	// QueueSize is the number of tasks that can wait for a worker before Submit blocks.
	QueueSize int
}

// AsyncExecutor runs request work off the calling goroutine. It is resolved through
// AsyncExecutorKey.
type AsyncExecutor interface {
	// Submit queues task. It blocks while the queue is full, and gives up with ctx's error if ctx
	// is done first. The task receives ctx.
	Submit(ctx context.Context, task func(ctx context.Context)) error
	// Close stops accepting tasks and waits for the queued ones to finish. Submit calls blocked
	// on a full queue return ErrExecutorClosed.
	Close()
}

type asyncTask struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// workerPool is the default AsyncExecutor. Workers are started lazily on the first Submit so
// that seeding the default executor costs nothing for applications that never use it.
type workerPool struct {
	cfg    AsyncConfig
	logger *slog.Logger

	startOnce sync.Once
	mu        sync.Mutex
	closed    bool
	quit      chan struct{}
	tasks     chan asyncTask
	submits   sync.WaitGroup // Submit calls past the closed check
	wg        sync.WaitGroup // accepted tasks
}

// NewAsyncExecutor returns the default AsyncExecutor.
func NewAsyncExecutor(cfg AsyncConfig, logger *slog.Logger) AsyncExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	return &workerPool{cfg: cfg, logger: logger}
}

func (p *workerPool) start() {
	p.quit = make(chan struct{})
	p.tasks = make(chan asyncTask, p.cfg.QueueSize)
	for i := 0; i < p.cfg.Workers; i++ {
		go p.worker(i)
	}
	p.logger.Debug("async executor started", "workers", p.cfg.Workers, "queueSize", p.cfg.QueueSize)
}

// worker is the processing loop for a single worker.
func (p *workerPool) worker(workerID int) {
	for t := range p.tasks {
		p.run(t, workerID)
	}
}

func (p *workerPool) run(t asyncTask, workerID int) {
	defer p.wg.Done()
	defer func() {
		// The submitter has long returned, so the best we can do is report the panic.
		if r := recover(); r != nil {
			p.logger.Error("panic in async task", "workerID", workerID, "panic", r)
		}
	}()
	t.fn(t.ctx)
}

func (p *workerPool) Submit(ctx context.Context, task func(ctx context.Context)) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.startOnce.Do(p.start)

	// The lock only covers the closed check. Holding it across the send would let a task that
	// submits from inside a worker block behind a pending Close forever.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrExecutorClosed
	}
	p.wg.Add(1)
	p.submits.Add(1)
	p.mu.Unlock()
	defer p.submits.Done()

	t := asyncTask{ctx: ctx, fn: task}
	if p.cfg.Workers <= 0 {
		go p.run(t, -1)
		return nil
	}
	select {
	case p.tasks <- t:
		return nil
	case <-ctx.Done():
		p.wg.Done()
		return ctx.Err()
	case <-p.quit:
		p.wg.Done()
		return ErrExecutorClosed
	}
}

// Close stops accepting tasks. Submit calls still waiting for queue space return
// ErrExecutorClosed; everything already queued runs to completion before Close returns.
func (p *workerPool) Close() {
	p.startOnce.Do(p.start)
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	// No send can be in flight once the pending submits have left.
	p.submits.Wait()
	close(p.tasks)
	p.wg.Wait()
}
