package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/logger"
)

var (
	ErrClosed = errors.New("queue closed")
	// ErrFull is returned by TryEnqueue when every slot is taken.
	ErrFull = errors.New("queue full")
)

// Handler processes one application. It owns its own error reporting.
type Handler func(ctx context.Context, applicationID uuid.UUID)

// Pool is an in-process work queue drained by a fixed number of workers.
// An id that is already queued or running is not queued again.
type Pool struct {
	handler Handler
	workers int
	jobs    chan uuid.UUID
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}

	closeMu sync.RWMutex
	closed  bool

	startOnce sync.Once
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

func New(workers, size int, handler Handler, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	return &Pool{
		handler:  handler,
		workers:  workers,
		jobs:     make(chan uuid.UUID, size),
		logger:   logger.OrNop(log).Named("queue"),
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Start launches the workers. Handlers receive a context derived from ctx
// that is cancelled if Shutdown gives up waiting.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.work(ctx, i)
		}
		p.logger.Info("workers started", zap.Int("workers", p.workers), zap.Int("capacity", cap(p.jobs)))
	})
}

// Enqueue blocks until there is room in the queue or ctx is done. It reports
// whether the id was queued; false means it was already in flight.
func (p *Pool) Enqueue(ctx context.Context, id uuid.UUID) (bool, error) {
	return p.enqueue(ctx, id, true)
}

// TryEnqueue is Enqueue without waiting: a full queue returns ErrFull at once.
func (p *Pool) TryEnqueue(id uuid.UUID) (bool, error) {
	return p.enqueue(context.Background(), id, false)
}

func (p *Pool) enqueue(ctx context.Context, id uuid.UUID, block bool) (bool, error) {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return false, ErrClosed
	}

	p.mu.Lock()
	if _, ok := p.inflight[id]; ok {
		p.mu.Unlock()
		p.logger.Debug("skipping duplicate", zap.String(logger.FieldApplicationID, id.String()))
		return false, nil
	}
	p.inflight[id] = struct{}{}
	p.mu.Unlock()

	if !block {
		select {
		case p.jobs <- id:
			return true, nil
		default:
			p.done(id)
			return false, fmt.Errorf("enqueue %s: %w", id, ErrFull)
		}
	}

	select {
	case p.jobs <- id:
		return true, nil
	case <-ctx.Done():
		p.done(id)
		return false, fmt.Errorf("enqueue %s: %w", id, ctx.Err())
	}
}

// InFlight is the number of ids queued or being processed.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

// Shutdown stops intake and waits for queued work to drain. If ctx expires
// first, running handlers are cancelled and ctx's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closeMu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.closeMu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		if p.cancel != nil {
			p.cancel()
		}
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		return ctx.Err()
	}
}

func (p *Pool) work(ctx context.Context, n int) {
	defer p.wg.Done()
	for id := range p.jobs {
		p.run(ctx, n, id)
	}
}

func (p *Pool) run(ctx context.Context, n int, id uuid.UUID) {
	defer p.done(id)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("handler panicked",
				zap.Int("worker", n),
				zap.String(logger.FieldApplicationID, id.String()),
				zap.Any("panic", r))
		}
	}()
	p.handler(ctx, id)
}

func (p *Pool) done(id uuid.UUID) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.mu.Unlock()
}
