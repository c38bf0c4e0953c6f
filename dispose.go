package asynclazy

import (
	"context"
	"io"
)

// AsyncDisposer is the asynchronous teardown capability [Lazy.Dispose] looks
// for on the realized value. It takes priority over [io.Closer].
type AsyncDisposer interface {
	DisposeAsync(ctx context.Context) error
}

// Dispose tears the cell down. It is idempotent: exactly one call runs the
// disposal sequence, and every later call returns nil immediately, even
// while the first is still waiting on an in-flight factory.
//
// If the factory is still running, Dispose waits for it to finish before
// touching its product, so factory execution and cleanup never overlap. A
// factory that failed leaves nothing to dispose and its error is deliberately
// not surfaced here. A realized value is released through its [AsyncDisposer]
// capability if present, else [io.Closer], else left alone; the capability is
// read off the value's dynamic type, not T.
//
// ctx bounds only the wait for an in-flight factory; if it fires, Dispose
// returns its error with the cell already marked disposed but the value's
// cleanup abandoned.
func (l *Lazy[T]) Dispose(ctx context.Context) error {
	l.mu.Lock()
	prev := l.state.Load()
	if prev != nil && prev.disposed {
		l.mu.Unlock()
		return nil
	}
	// The disposed marker must land before the factory reference is dropped;
	// otherwise a concurrent Created() could observe a cell that looks never
	// started in the instant between the two writes.
	l.state.Store(&cellState[T]{disposed: true})
	l.factory = nil
	l.mu.Unlock()

	l.emit(EventDisposed)

	if prev == nil || prev.p == nil {
		return nil
	}
	p := prev.p
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if p.faulted() {
		return nil
	}
	return disposeValue(ctx, p.value)
}

// DisposeBlocking is Dispose for callers on an [Executor]'s designated
// goroutine: the wait is routed through the executor so queued work the
// in-flight factory depends on can still run. Without an executor it is
// identical to Dispose.
func (l *Lazy[T]) DisposeBlocking(ctx context.Context) error {
	if l.exec != nil {
		return l.exec.RunSync(ctx, l.Dispose)
	}
	return l.Dispose(ctx)
}

func disposeValue[T any](ctx context.Context, v T) error {
	switch d := any(v).(type) {
	case AsyncDisposer:
		return d.DisposeAsync(ctx)
	case io.Closer:
		return d.Close()
	default:
		return nil
	}
}
