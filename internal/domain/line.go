package domain

// FilteredLine is one row of the filtered view. LineNumber is 1-based; the store
// indexes lines from 0 internally, so callers converting an index add 1 exactly once.
type FilteredLine struct {
	LineNumber uint32 `json:"line"`
	Text       string `json:"text"`
	IsContext  bool   `json:"context,omitempty"`
}

// RawLine is a newly ingested line carried through the incremental path before
// evaluation. Index is the 0-based position the line was appended at.
type RawLine struct {
	Index int
	Text  string
}
