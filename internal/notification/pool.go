package notification

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/streaklit/internal/logger"
)

// WorkerPool runs fire handlers with bounded concurrency. Submit blocks while the pool is
// full. Task errors are logged as they happen and returned together by Wait.
type WorkerPool struct {
	g   errgroup.Group
	log *log.Logger

	mu   sync.Mutex
	errs []error
}

func NewWorkerPool(workers int, l *log.Logger) *WorkerPool {
	p := &WorkerPool{log: logger.Or(l)}
	p.g.SetLimit(max(1, workers))
	return p
}

// Submit queues task under name.
func (p *WorkerPool) Submit(ctx context.Context, name string, task func(context.Context) error) {
	p.g.Go(func() error {
		if err := task(ctx); err != nil {
			p.log.Error("Background task failed", "task", name, "error", err)
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
		return nil
	})
}

// Wait blocks until every submitted task has returned and reports their errors. The pool
// can be reused afterwards.
func (p *WorkerPool) Wait() error {
	_ = p.g.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	err := stderrors.Join(p.errs...)
	p.errs = nil
	return err
}

// SubmitFire queues HandleFire for habitID on the pool.
func (o *Orchestrator) SubmitFire(ctx context.Context, pool *WorkerPool, habitID string, firedAt time.Time) {
	pool.Submit(ctx, "fire "+habitID, func(ctx context.Context) error {
		return o.HandleFire(ctx, habitID, firedAt)
	})
}
