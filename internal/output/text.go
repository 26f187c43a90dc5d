package output

import (
	"fmt"
	"io"

	"github.com/vburojevic/logsieve/internal/domain"
)

// TextWriter renders filtered lines for humans: right-aligned line numbers, context
// lines dimmed, matches bold.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// WriteLine renders one filtered line.
func (t *TextWriter) WriteLine(line domain.FilteredLine) error {
	num := numberStyle.Render(fmt.Sprintf("%6d", line.LineNumber))
	var text string
	if line.IsContext {
		text = contextStyle.Render(line.Text)
	} else {
		text = matchStyle.Render(line.Text)
	}
	_, err := fmt.Fprintf(t.w, "%s  %s\n", num, text)
	return err
}

// WriteLines renders a batch in order.
func (t *TextWriter) WriteLines(lines []domain.FilteredLine) error {
	for _, l := range lines {
		if err := t.WriteLine(l); err != nil {
			return err
		}
	}
	return nil
}

// WriteInfo renders an informational banner.
func (t *TextWriter) WriteInfo(msg string) error {
	_, err := fmt.Fprintln(t.w, infoStyle.Render(msg))
	return err
}
