package asynclazy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Factory produces the cell's value. It is invoked at most once, on a
// context derived from context.Background that carries the cell's
// reentrancy mark; per-caller cancellation never reaches it.
//
// Factories must propagate ctx into nested work. A factory that severs the
// chain and then calls back into its own cell forfeits reentrancy detection
// and will deadlock on itself.
type Factory[T any] func(ctx context.Context) (T, error)

// cellState is the cell's result slot, published atomically so status reads
// never take the lock. A nil *cellState means the factory has not been
// claimed yet; disposed marks the terminal state.
type cellState[T any] struct {
	p        *promise[T]    // nil only when disposed before first access
	h        *JoinHandle[T] // set when the factory was dispatched via an Executor
	disposed bool
}

// Lazy is a thread-safe cell that realizes its value asynchronously, exactly
// once, via the factory given to [New]. The zero value is not usable.
type Lazy[T any] struct {
	// mu guards only the first-access and disposal transitions. It is never
	// held while the factory runs, while a caller waits, or while disposal
	// cleanup executes.
	mu      sync.Mutex
	state   atomic.Pointer[cellState[T]]
	factory Factory[T] // cleared the moment invocation begins

	// Immutable after New.
	exec Executor
	obs  Observer
	name string
}

// New creates a cell around factory. Panics if factory is nil.
func New[T any](factory Factory[T], opts ...Option) *Lazy[T] {
	if factory == nil {
		panic("asynclazy: nil factory")
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Lazy[T]{
		factory: factory,
		exec:    cfg.exec,
		obs:     cfg.obs,
		name:    cfg.name,
	}
}

// Get returns the cell's value, invoking the factory on first access.
// Concurrent first-time callers share one invocation and observe the same
// value or the same failure. If ctx fires before the value realizes, Get
// returns ctx's error for this caller only; the factory keeps running.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	p, err := l.resolve(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.wait(ctx)
}

// GetAsync begins first access if needed and returns this caller's [Future]
// without waiting.
func (l *Lazy[T]) GetAsync(ctx context.Context) *Future[T] {
	p, err := l.resolve(ctx)
	if err != nil {
		return resolvedFuture[T](err)
	}
	return &Future[T]{p: p, ctx: ctx}
}

// GetBlocking is the accessor for callers that own an [Executor]'s
// designated goroutine. If the value is already realized it is returned
// immediately; otherwise the wait is routed through the executor so the
// calling goroutine services queued work while blocked, letting a factory
// that needs the designated goroutine make progress. Without an executor it
// behaves exactly like Get.
func (l *Lazy[T]) GetBlocking(ctx context.Context) (T, error) {
	if s := l.state.Load(); s != nil && !s.disposed && s.p.realized() {
		return s.p.unwrap()
	}
	p, err := l.resolve(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if s := l.state.Load(); s != nil && s.h != nil && !p.realized() {
		return s.h.Join(ctx)
	}
	return p.wait(ctx)
}

// resolve runs the first-access protocol and returns the shared promise.
// On return the promise is published and the factory body has been released
// to run (or had already been).
func (l *Lazy[T]) resolve(ctx context.Context) (*promise[T], error) {
	if s := l.state.Load(); s != nil {
		if s.disposed {
			return nil, l.wrap(ErrDisposed)
		}
		if s.p.realized() {
			return s.p, nil
		}
		// In flight: a caller on the factory's own chain would wait on
		// itself forever.
		if isReentrant(ctx, l) {
			return nil, l.wrap(ErrReentrancy)
		}
		return s.p, nil
	}

	// No result yet. The factory's chain reaching here means the factory
	// re-entered before the slot was even published; catch it before the
	// lock, since a mutex cannot report its own holder.
	if isReentrant(ctx, l) {
		return nil, l.wrap(ErrReentrancy)
	}

	l.mu.Lock()
	if s := l.state.Load(); s != nil {
		// Lost the first-access race.
		l.mu.Unlock()
		if s.disposed {
			return nil, l.wrap(ErrDisposed)
		}
		return s.p, nil
	}
	if err := ctx.Err(); err != nil {
		// Do not start the factory for a caller that has already given up.
		// The factory stays claimable by the next caller.
		l.mu.Unlock()
		return nil, err
	}

	factory := l.factory
	l.factory = nil

	p := newPromise[T]()

	// The gate holds the factory body back until the slot below is published
	// and the lock released, so a factory that immediately calls back into
	// the cell observes a pending result and fails with ErrReentrancy
	// instead of re-triggering dispatch.
	gate := make(chan struct{})
	run := func() {
		<-gate
		l.emit(EventFactoryStarted)
		p.run(factory, markReentrant(context.Background(), l))
		if p.faulted() {
			l.emit(EventFactoryFailed)
		} else {
			l.emit(EventFactoryCompleted)
		}
	}

	var h *JoinHandle[T]
	if l.exec != nil {
		h = &JoinHandle[T]{p: p, exec: l.exec}
		l.exec.Go(run)
	} else {
		go run()
	}

	l.state.Store(&cellState[T]{p: p, h: h})
	l.mu.Unlock()
	close(gate)
	return p, nil
}

// Created reports whether the factory has begun execution and the cell is
// not disposed. Lock-free.
func (l *Lazy[T]) Created() bool {
	s := l.state.Load()
	return s != nil && !s.disposed
}

// FactoryCompleted reports whether the factory has finished, successfully or
// not, and the cell is not disposed. Lock-free.
func (l *Lazy[T]) FactoryCompleted() bool {
	s := l.state.Load()
	return s != nil && !s.disposed && s.p.realized()
}

// Disposed reports whether disposal has begun. Lock-free.
func (l *Lazy[T]) Disposed() bool {
	s := l.state.Load()
	return s != nil && s.disposed
}

// String renders the cell's current contents without ever blocking or
// panicking: a placeholder while pending or after a failure, the value's
// text once realized.
func (l *Lazy[T]) String() string {
	s := l.state.Load()
	switch {
	case s == nil:
		return "<pending>"
	case s.disposed:
		return "<disposed>"
	case !s.p.realized():
		return "<pending>"
	case s.p.faulted():
		return "<faulted>"
	default:
		return fmt.Sprint(s.p.value)
	}
}

func (l *Lazy[T]) emit(ev Event) {
	if l.obs == nil {
		return
	}
	l.obs.On(EventData{Event: ev, Cell: l.name})
}
