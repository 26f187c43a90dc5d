// Package engine evaluates filter trees against a log document, producing the
// ordered, de-duplicated view the pipeline publishes. Both entry points are pure
// with respect to their inputs; the pipeline serializes calls so a tree is never
// edited mid-pass.
package engine

import (
	"fmt"
	"sort"

	"github.com/vburojevic/logsieve/internal/domain"
	"github.com/vburojevic/logsieve/internal/filter"
)

// Document is the read surface the engine needs. *store.Store satisfies it.
type Document interface {
	Len() int
	Line(i int) (string, bool)
}

// row accumulates one included line before ordering. isMatch wins over context when
// a line is both.
type row struct {
	text    string
	isMatch bool
}

// ApplyFull scans the whole document and returns every matching line plus its
// context window, ordered by line number. Filter predicates are expected to be
// total; a panic inside one is caught and returned as an error, which the pipeline
// treats as terminal.
func ApplyFull(doc Document, node filter.Node, contextLines int) (lines []domain.FilteredLine, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("filter evaluation failed: %v", r)
		}
	}()

	n := doc.Len()
	rows := make(map[int]row)
	for i := 0; i < n; i++ {
		text, ok := doc.Line(i)
		if !ok {
			continue
		}
		if !node.Match(text) {
			continue
		}
		rows[i] = row{text: text, isMatch: true}
		markContext(rows, doc, i, contextLines, n)
	}
	return order(rows), nil
}

// ApplySubset evaluates only the given batch of newly appended lines, expanding
// context windows against the full document. Batch entries whose index falls
// outside the document (a benign race with a concurrent Clear) are dropped; the
// count of drops is returned so the caller can log them.
func ApplySubset(batch []domain.RawLine, doc Document, node filter.Node, contextLines int) (lines []domain.FilteredLine, skipped int, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("filter evaluation failed: %v", r)
		}
	}()

	// The document length is only consulted once the first batch line matches, so a
	// batch with no matches never touches the store.
	docLen := -1
	length := func() int {
		if docLen < 0 {
			docLen = doc.Len()
		}
		return docLen
	}

	rows := make(map[int]row)
	for _, raw := range batch {
		if node.Match(raw.Text) {
			if raw.Index < 0 || raw.Index >= length() {
				skipped++
				continue
			}
			rows[raw.Index] = row{text: raw.Text, isMatch: true}
			markContext(rows, doc, raw.Index, contextLines, length())
			continue
		}
		// A non-matching new line still belongs to the view when a match sits
		// within the context window before it. Matches after it are either in this
		// batch (handled above) or not appended yet, so only the backward window
		// needs checking. Without this, the view would permanently miss the
		// forward context of a match that landed at the tail of the previous
		// batch.
		if contextLines <= 0 {
			continue
		}
		if raw.Index < 0 || raw.Index >= length() {
			continue
		}
		if trailsMatch(rows, doc, node, raw.Index, contextLines) {
			if _, seen := rows[raw.Index]; !seen {
				rows[raw.Index] = row{text: raw.Text}
			}
		}
	}
	return order(rows), skipped, nil
}

// trailsMatch reports whether any line in the contextLines window before index i
// matches the filter, consulting rows first to avoid re-evaluating batch matches.
func trailsMatch(rows map[int]row, doc Document, node filter.Node, i, contextLines int) bool {
	from := i - contextLines
	if from < 0 {
		from = 0
	}
	for j := from; j < i; j++ {
		if r, seen := rows[j]; seen && r.isMatch {
			return true
		}
		text, ok := doc.Line(j)
		if !ok {
			continue
		}
		if node.Match(text) {
			return true
		}
	}
	return false
}

// markContext includes [i-contextLines, i+contextLines] clamped to [0, n), without
// demoting lines already recorded as direct matches.
func markContext(rows map[int]row, doc Document, i, contextLines, n int) {
	if contextLines <= 0 {
		return
	}
	from := i - contextLines
	if from < 0 {
		from = 0
	}
	to := i + contextLines
	if to > n-1 {
		to = n - 1
	}
	for j := from; j <= to; j++ {
		if j == i {
			continue
		}
		if _, seen := rows[j]; seen {
			continue
		}
		text, ok := doc.Line(j)
		if !ok {
			continue
		}
		rows[j] = row{text: text}
	}
}

// order flattens the index-keyed rows into ascending 1-based output.
func order(rows map[int]row) []domain.FilteredLine {
	if len(rows) == 0 {
		return nil
	}
	idx := make([]int, 0, len(rows))
	for i := range rows {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]domain.FilteredLine, 0, len(idx))
	for _, i := range idx {
		r := rows[i]
		out = append(out, domain.FilteredLine{
			LineNumber: uint32(i + 1),
			Text:       r.text,
			IsContext:  !r.isMatch,
		})
	}
	return out
}
