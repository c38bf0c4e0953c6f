package asynclazy

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// promise is the shared result slot: one per factory invocation, realized
// exactly once, waited on by any number of callers.
type promise[T any] struct {
	done chan struct{}

	// Written once, before done is closed. Readers go through done.
	value    T
	err      error
	panicked *panicError
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{done: make(chan struct{})}
}

// run invokes factory and realizes the promise with its outcome. A panic in
// the factory is captured and replayed to every waiter, the same convention
// x/sync/singleflight uses, so one caller's misbehaving factory surfaces at
// every call site rather than killing an anonymous goroutine.
func (p *promise[T]) run(factory Factory[T], ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked = &panicError{value: r, stack: debug.Stack()}
		}
		close(p.done)
	}()
	p.value, p.err = factory(ctx)
}

// realized reports whether the promise has completed, without blocking.
func (p *promise[T]) realized() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// wait blocks until the promise realizes or ctx fires, whichever comes
// first. A ctx failure detaches only this caller; the factory keeps running.
func (p *promise[T]) wait(ctx context.Context) (T, error) {
	// An already-realized result beats a simultaneously-fired ctx; a bare
	// select would pick between two ready channels at random.
	if p.realized() {
		return p.unwrap()
	}
	select {
	case <-p.done:
		return p.unwrap()
	case <-ctx.Done():
		// The result may have realized in the same instant; prefer it.
		select {
		case <-p.done:
			return p.unwrap()
		default:
		}
		var zero T
		return zero, ctx.Err()
	}
}

// unwrap returns the realized outcome. Must only be called after done is
// closed.
func (p *promise[T]) unwrap() (T, error) {
	if p.panicked != nil {
		panic(p.panicked)
	}
	return p.value, p.err
}

// faulted reports whether a realized promise holds a failure or a captured
// panic rather than a value.
func (p *promise[T]) faulted() bool {
	return p.err != nil || p.panicked != nil
}

// panicError carries a factory panic, with the stack where it happened, to
// every caller that unwraps the promise.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("asynclazy: value factory panicked: %v\n\n%s", e.value, e.stack)
}

// Future is a single caller's view of a cell's result: it resolves when the
// shared promise does, or fails with the caller's context error if that
// fires first. Obtained from [Lazy.GetAsync].
type Future[T any] struct {
	p   *promise[T]
	ctx context.Context
	err error // immediate failure (reentrancy, disposal); p is nil

	mu   sync.Mutex
	done chan struct{}
}

func resolvedFuture[T any](err error) *Future[T] {
	return &Future[T]{err: err}
}

// Wait blocks until the future resolves and returns the outcome.
// Safe to call from multiple goroutines; every call returns the same result.
func (f *Future[T]) Wait() (T, error) {
	if f.err != nil {
		var zero T
		return zero, f.err
	}
	return f.p.wait(f.ctx)
}

// Completed reports whether Wait would return without blocking.
func (f *Future[T]) Completed() bool {
	if f.err != nil {
		return true
	}
	if f.p.realized() {
		return true
	}
	return f.ctx.Err() != nil
}

// Done returns a channel closed once the future has resolved, for use in
// select statements. Wait still determines the outcome.
func (f *Future[T]) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done == nil {
		ch := make(chan struct{})
		if f.err != nil {
			close(ch)
		} else {
			go func() {
				select {
				case <-f.p.done:
				case <-f.ctx.Done():
				}
				close(ch)
			}()
		}
		f.done = ch
	}
	return f.done
}
