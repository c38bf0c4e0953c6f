package asynclazy

import "context"

// Executor is the boundary to a privileged-execution arbiter: a scheduler
// that owns a designated goroutine and can let a blocked caller service that
// goroutine's queue instead of deadlocking against it. A cell uses one only
// if supplied via [WithExecutor].
type Executor interface {
	// Go begins work under the executor's scheduling and tracking policy.
	// The cell dispatches its factory invocation through this.
	Go(work func())

	// Enqueue schedules fn to run on the executor's designated goroutine.
	// Factories that need the privileged context use this (or a helper
	// built on it, like PumpExecutor.Do).
	Enqueue(fn func())

	// RunSync runs op to completion while servicing the executor's queue on
	// the calling goroutine. This is how a caller on the designated
	// goroutine blocks on work that itself needs that goroutine.
	RunSync(ctx context.Context, op func(ctx context.Context) error) error
}

// JoinHandle tracks a factory invocation dispatched through an Executor.
// It is held in the cell's result slot until the cell realizes or is
// disposed.
type JoinHandle[T any] struct {
	p    *promise[T]
	exec Executor
}

// Join waits for the dispatched work while keeping the calling goroutine
// eligible to service the executor's queue. If ctx fires first the caller
// detaches; the work keeps running for everyone else.
func (h *JoinHandle[T]) Join(ctx context.Context) (T, error) {
	var v T
	err := h.exec.RunSync(ctx, func(ctx context.Context) error {
		var err error
		v, err = h.p.wait(ctx)
		return err
	})
	return v, err
}

// Done returns a channel closed when the dispatched work completes.
func (h *JoinHandle[T]) Done() <-chan struct{} {
	return h.p.done
}
