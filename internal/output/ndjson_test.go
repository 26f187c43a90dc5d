package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/vburojevic/logsieve/internal/domain"
)

func TestNDJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)

	require.NoError(t, w.WriteEvent(domain.NewReplace([]domain.FilteredLine{
		{LineNumber: 3, Text: "Error: bad"},
		{LineNumber: 4, Text: "detail", IsContext: true},
	}, true)))
	require.NoError(t, w.WriteLine(domain.FilteredLine{LineNumber: 7, Text: "hit"}))
	require.NoError(t, w.WriteInfo("initial load complete"))
	require.NoError(t, w.WriteError("source_failed", "stat /gone: no such file"))
	require.NoError(t, w.WriteTotal(42))

	records := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, records, 5)
	for _, r := range records {
		require.True(t, gjson.Valid(r), "invalid JSON record: %s", r)
	}

	ev := records[0]
	assert.Equal(t, "replace", gjson.Get(ev, "kind").String())
	assert.True(t, gjson.Get(ev, "initial_load_complete").Bool())
	assert.Equal(t, int64(3), gjson.Get(ev, "lines.0.line").Int())
	assert.False(t, gjson.Get(ev, "lines.0.context").Bool())
	assert.True(t, gjson.Get(ev, "lines.1.context").Bool())

	assert.Equal(t, "line", gjson.Get(records[1], "type").String())
	assert.Equal(t, int64(7), gjson.Get(records[1], "line").Int())
	assert.Equal(t, "info", gjson.Get(records[2], "type").String())
	assert.Equal(t, "source_failed", gjson.Get(records[3], "code").String())
	assert.Equal(t, int64(42), gjson.Get(records[4], "total").Int())
}

func TestAppendEventOmitsInitialFlag(t *testing.T) {
	var buf bytes.Buffer
	w := NewNDJSONWriter(&buf)

	require.NoError(t, w.WriteEvent(domain.NewAppend([]domain.FilteredLine{{LineNumber: 1, Text: "x"}})))

	record := strings.TrimSpace(buf.String())
	assert.Equal(t, "append", gjson.Get(record, "kind").String())
	assert.False(t, gjson.Get(record, "initial_load_complete").Exists())
}
