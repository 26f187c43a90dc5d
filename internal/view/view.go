// Package view maintains a consumer-side copy of the filtered view from the
// pipeline's event stream.
package view

import (
	"github.com/vburojevic/logsieve/internal/domain"
)

// Accumulator folds Replace and Append events into an ordered view. Append lines
// can overlap lines already present (context windows of adjacent batches touch), so
// each appended line is admitted only if its number is new; a non-context duplicate
// upgrades an existing context line in place.
type Accumulator struct {
	lines []domain.FilteredLine
	seen  map[uint32]int // line number -> index in lines
}

// NewAccumulator creates an empty view.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[uint32]int)}
}

// Apply folds one event in and returns the lines newly added to the view (for
// Replace, the whole view).
func (a *Accumulator) Apply(ev domain.Event) []domain.FilteredLine {
	switch ev.Kind {
	case domain.EventReplace:
		a.lines = append([]domain.FilteredLine(nil), ev.Lines...)
		a.seen = make(map[uint32]int, len(a.lines))
		for i, l := range a.lines {
			a.seen[l.LineNumber] = i
		}
		return a.lines
	case domain.EventAppend:
		var added []domain.FilteredLine
		for _, l := range ev.Lines {
			if i, dup := a.seen[l.LineNumber]; dup {
				if !l.IsContext && a.lines[i].IsContext {
					a.lines[i].IsContext = false
				}
				continue
			}
			a.seen[l.LineNumber] = len(a.lines)
			a.lines = append(a.lines, l)
			added = append(added, l)
		}
		return added
	}
	return nil
}

// Lines returns the current view in order.
func (a *Accumulator) Lines() []domain.FilteredLine {
	return a.lines
}

// Len returns the number of lines in the view.
func (a *Accumulator) Len() int {
	return len(a.lines)
}
