package asynclazy

// Observer receives cell lifecycle events. Implementations must be safe for
// concurrent use when the cell is accessed from multiple goroutines.
type Observer interface {
	On(eventData EventData)
}

// Event represents a cell lifecycle event type.
type Event int

const (
	// EventFactoryStarted is emitted when the factory body begins running.
	EventFactoryStarted Event = iota
	// EventFactoryCompleted is emitted when the factory returns a value.
	EventFactoryCompleted
	// EventFactoryFailed is emitted when the factory returns an error or
	// panics. The outcome is cached either way; there is no retry.
	EventFactoryFailed
	// EventDisposed is emitted when disposal begins.
	EventDisposed
)

// EventData carries the details of a cell event.
type EventData struct {
	Event Event
	Cell  string // the cell's WithName identity, "" if unnamed
}
