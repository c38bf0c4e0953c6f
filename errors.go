package asynclazy

import (
	"errors"
	"fmt"
)

// ErrReentrancy is returned when a factory's call chain re-enters the cell
// that is still waiting on that factory. Without this check the call would
// deadlock: the factory would be waiting on its own completion.
var ErrReentrancy = errors.New("asynclazy: value factory re-entered its own cell")

// ErrDisposed is returned by every accessor once disposal has begun.
var ErrDisposed = errors.New("asynclazy: cell disposed")

// wrap attaches the cell's diagnostic name, when it has one, to a sentinel.
// Called only after the failure condition is confirmed; the hot path never
// pays for formatting.
func (l *Lazy[T]) wrap(sentinel error) error {
	if l.name == "" {
		return sentinel
	}
	return fmt.Errorf("cell %q: %w", l.name, sentinel)
}
