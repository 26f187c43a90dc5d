package output

import (
	"encoding/json"
	"io"

	"github.com/vburojevic/logsieve/internal/domain"
)

// NDJSONWriter emits one JSON object per line, the machine-readable counterpart of
// TextWriter. Events are written whole so a consumer can replay the exact
// Replace/Append sequence.
type NDJSONWriter struct {
	enc *json.Encoder
}

// NewNDJSONWriter creates an NDJSON writer.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

// WriteEvent emits a full view update.
func (n *NDJSONWriter) WriteEvent(ev domain.Event) error {
	return n.enc.Encode(ev)
}

// WriteLine emits a single filtered line.
func (n *NDJSONWriter) WriteLine(line domain.FilteredLine) error {
	return n.enc.Encode(struct {
		Type string `json:"type"`
		domain.FilteredLine
	}{Type: "line", FilteredLine: line})
}

// WriteInfo emits an informational record.
func (n *NDJSONWriter) WriteInfo(msg string) error {
	return n.enc.Encode(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "info", Message: msg})
}

// WriteError emits an error record.
func (n *NDJSONWriter) WriteError(code, msg string) error {
	return n.enc.Encode(struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Type: "error", Code: code, Message: msg})
}

// WriteTotal emits the running total-lines-processed counter.
func (n *NDJSONWriter) WriteTotal(total int) error {
	return n.enc.Encode(struct {
		Type  string `json:"type"`
		Total int    `json:"total"`
	}{Type: "total", Total: total})
}
