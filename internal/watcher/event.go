package watcher

// EventType says what happened to a path once it settled.
type EventType string

// Event types.
const (
	EventAdded    EventType = "added"
	EventModified EventType = "modified"
	// EventRemoved also covers files renamed out of the watched tree.
	EventRemoved EventType = "removed"
)

func (t EventType) String() string { return string(t) }

// Event is one settled change to a watched file.
type Event struct {
	Type EventType
	Path string
}
