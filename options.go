package asynclazy

import (
	"time"

	"go.uber.org/zap"
)

type config struct {
	exec Executor
	obs  Observer
	name string
}

// Option configures a cell created by New.
type Option func(*config)

// WithExecutor attaches the executor through which the factory is dispatched
// and through which the blocking accessors pump while they wait.
func WithExecutor(e Executor) Option {
	return func(c *config) {
		c.exec = e
	}
}

// WithObserver attaches an Observer that receives factory and disposal
// events for the lifetime of the cell.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.obs = o
	}
}

// WithName gives the cell a diagnostic identity, surfaced in errors and
// observer events.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// ExecOption configures a PumpExecutor created by NewPumpExecutor.
type ExecOption func(*PumpExecutor)

// ExecWithLogger attaches a logger for dispatch tracing and hang warnings.
// Without one the executor is silent.
func ExecWithLogger(log *zap.Logger) ExecOption {
	return func(e *PumpExecutor) {
		e.log = log
	}
}

// ExecWithHangThreshold sets how long dispatched work may stay live before a
// hang warning is logged. Zero disables the watchdog.
func ExecWithHangThreshold(d time.Duration) ExecOption {
	return func(e *PumpExecutor) {
		e.hang = d
	}
}

// ExecWithQueueDepth sets the designated-goroutine queue capacity.
func ExecWithQueueDepth(n int) ExecOption {
	return func(e *PumpExecutor) {
		e.depth = n
	}
}
