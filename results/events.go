package results

// EventType identifies the type of event emitted by the Collector.
type EventType string

const (
	EventGroupStarted EventType = "group_started" // A group was referenced for the first time
	EventGroupOutput  EventType = "group_output"  // A group kept an output line
	EventGroupFailed  EventType = "group_failed"  // A group was marked FAIL
	EventFinished     EventType = "finished"      // End of stream was reached
)

// Event represents a high-level event emitted by the Collector.
type Event struct {
	Type   EventType
	Key    string // Group key; empty for EventFinished
	Output string // For EventGroupOutput
	Stats  Stats  // Collector counters after the event
}

// NewGroupStartedEvent creates a new GroupStarted event.
func NewGroupStartedEvent(key string, stats Stats) Event {
	return Event{Type: EventGroupStarted, Key: key, Stats: stats}
}

// NewGroupOutputEvent creates a new GroupOutput event.
func NewGroupOutputEvent(key, output string, stats Stats) Event {
	return Event{Type: EventGroupOutput, Key: key, Output: output, Stats: stats}
}

// NewGroupFailedEvent creates a new GroupFailed event.
func NewGroupFailedEvent(key string, stats Stats) Event {
	return Event{Type: EventGroupFailed, Key: key, Stats: stats}
}

// NewFinishedEvent creates a new Finished event.
func NewFinishedEvent(stats Stats) Event {
	return Event{Type: EventFinished, Stats: stats}
}
