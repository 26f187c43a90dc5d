package domain

// EventKind discriminates the two shapes of view update.
type EventKind string

const (
	EventReplace EventKind = "replace"
	EventAppend  EventKind = "append"
)

// Event is one update to the filtered view. Replace carries the whole view and
// supersedes everything the consumer holds; Append carries lines for the tail of the
// existing view. Append lines may overlap lines the consumer already has (context
// windows from adjacent batches), so consumers de-duplicate by LineNumber.
type Event struct {
	Kind  EventKind      `json:"kind"`
	Lines []FilteredLine `json:"lines"`

	// InitialLoadComplete is set on the first Replace after a Reset, once the full
	// pass over the pre-existing document has finished.
	InitialLoadComplete bool `json:"initial_load_complete,omitempty"`
}

// NewReplace builds a Replace event.
func NewReplace(lines []FilteredLine, initialLoadComplete bool) Event {
	return Event{Kind: EventReplace, Lines: lines, InitialLoadComplete: initialLoadComplete}
}

// NewAppend builds an Append event.
func NewAppend(lines []FilteredLine) Event {
	return Event{Kind: EventAppend, Lines: lines}
}
