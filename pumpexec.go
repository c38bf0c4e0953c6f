package asynclazy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultQueueDepth = 128

// PumpExecutor is an [Executor] built around a single designated goroutine's
// work queue. The owning goroutine drains the queue with [PumpExecutor.Pump]
// when idle and with [PumpExecutor.RunSync] while blocked on something, so
// enqueued work always makes progress. Any goroutine may Enqueue.
type PumpExecutor struct {
	tasks chan pumpTask
	log   *zap.Logger
	hang  time.Duration
	depth int
}

type pumpTask struct {
	fn   func()
	done chan struct{} // nil for fire-and-forget
}

// NewPumpExecutor creates an executor with an empty queue. The caller decides
// which goroutine is the designated one by being the one that pumps.
func NewPumpExecutor(opts ...ExecOption) *PumpExecutor {
	e := &PumpExecutor{depth: defaultQueueDepth}
	for _, opt := range opts {
		opt(e)
	}
	e.tasks = make(chan pumpTask, e.depth)
	return e
}

// Enqueue schedules fn to run on the designated goroutine. Blocks only when
// the queue is full. A panic in fn propagates to the pumping goroutine.
func (e *PumpExecutor) Enqueue(fn func()) {
	e.tasks <- pumpTask{fn: fn}
}

// Do schedules fn on the designated goroutine and waits until it has run.
// This is the "switch to the privileged context" helper a factory uses for
// work that must happen there. If ctx fires before fn starts, Do abandons
// the wait; fn may still run later if it was already queued.
func (e *PumpExecutor) Do(ctx context.Context, fn func()) error {
	t := pumpTask{fn: fn, done: make(chan struct{})}
	select {
	case e.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pump services the queue on the calling goroutine until ctx fires. This is
// the designated goroutine's idle loop.
func (e *PumpExecutor) Pump(ctx context.Context) error {
	for {
		select {
		case t := <-e.tasks:
			t.run()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunSync runs op to completion while servicing the queue on the calling
// goroutine, so op can depend on enqueued work without deadlocking the
// designated goroutine. op receives ctx and is expected to honor it; RunSync
// returns whatever op returns.
func (e *PumpExecutor) RunSync(ctx context.Context, op func(ctx context.Context) error) error {
	result := make(chan error, 1)
	go func() {
		result <- op(ctx)
	}()
	for {
		select {
		case err := <-result:
			return err
		case t := <-e.tasks:
			t.run()
		}
	}
}

// Go begins work on its own goroutine, tracked for hang diagnostics: each
// dispatch gets an id, and work still live past the configured threshold is
// logged as a warning so a wedged factory shows up in logs instead of only
// in a goroutine dump.
func (e *PumpExecutor) Go(work func()) {
	if e.log == nil {
		go work()
		return
	}
	id := uuid.NewString()
	start := time.Now()
	e.log.Debug("work dispatched", zap.String("task", id))

	var watchdog *time.Timer
	if e.hang > 0 {
		watchdog = time.AfterFunc(e.hang, func() {
			e.log.Warn("dispatched work still running past hang threshold",
				zap.String("task", id),
				zap.Duration("threshold", e.hang))
		})
	}
	go func() {
		defer func() {
			if watchdog != nil {
				watchdog.Stop()
			}
			e.log.Debug("work completed",
				zap.String("task", id),
				zap.Duration("elapsed", time.Since(start)))
		}()
		work()
	}()
}

func (t pumpTask) run() {
	defer func() {
		if t.done != nil {
			close(t.done)
		}
	}()
	t.fn()
}
