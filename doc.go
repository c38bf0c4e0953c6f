// Package asynclazy provides a thread-safe, asynchronously realized lazy
// value: a cell whose factory runs exactly once, on first demand, and whose
// realized value or failure is shared by every caller forever after.
//
// Create a cell with [New], passing a factory that produces the value, then
// call [Lazy.Get] from any goroutine:
//
//	pool := asynclazy.New(func(ctx context.Context) (*Pool, error) {
//	    return dialPool(ctx, dsn)
//	})
//
//	p, err := pool.Get(ctx)
//
// Concurrent first-time callers share a single factory invocation. A failed
// factory is not retried: the first failure is cached and replayed to every
// caller, the same way the value would be. Each caller's context cancels only
// that caller's wait, never the shared factory.
//
// A factory that calls back into its own cell — directly, or from work it
// spawned with its context — fails fast with [ErrReentrancy] instead of
// deadlocking. Detection rides on context propagation, so factories must pass
// their ctx along to nested work.
//
// When the value must be produced with help from a single designated
// goroutine (a main loop, a thread-bound library), attach an [Executor] via
// [WithExecutor] and have the designated goroutine use [Lazy.GetBlocking],
// which services the executor's queue while it waits. [PumpExecutor] is a
// ready-made implementation.
//
// [Lazy.Dispose] tears the cell down: it waits for any in-flight factory,
// then releases the realized value through its [AsyncDisposer] or [io.Closer]
// capability if it has one. Every accessor afterwards fails with
// [ErrDisposed].
package asynclazy
