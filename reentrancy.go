package asynclazy

import "context"

// reentrancyKey marks a context as belonging to the call chain of one cell's
// factory invocation. The cell pointer inside the key keeps marks of nested
// cells from colliding.
type reentrancyKey struct {
	cell any
}

// markReentrant returns a child context carrying cell's reentrancy mark.
// The mark is inherited by any work the factory spawns from this context and
// is invisible to unrelated call chains.
func markReentrant(ctx context.Context, cell any) context.Context {
	return context.WithValue(ctx, reentrancyKey{cell}, true)
}

// isReentrant reports whether ctx belongs to cell's factory call chain.
func isReentrant(ctx context.Context, cell any) bool {
	v, _ := ctx.Value(reentrancyKey{cell}).(bool)
	return v
}
