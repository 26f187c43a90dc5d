package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// collector is a thread-safe sink for source callbacks.
type collector struct {
	mu    sync.Mutex
	lines []string
	errs  []error
}

func (c *collector) line(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, s)
}

func (c *collector) err(e error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, e)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *collector) errCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func quickPoll() FileConfig {
	return FileConfig{PollInterval: 5 * time.Millisecond}
}

func TestPrepareReplaysCompleteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "first\nsecond\r\npartial")

	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())

	count, err := f.Prepare(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	// The unterminated tail stays pending and carriage returns are trimmed.
	assert.Equal(t, []string{"first", "second"}, c.snapshot())
}

func TestPrepareMissingFile(t *testing.T) {
	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())

	_, err := f.Prepare(context.Background(), filepath.Join(t.TempDir(), "absent.log"))
	require.Error(t, err)
}

func TestStartRequiresPrepare(t *testing.T) {
	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())
	require.Error(t, f.Start(context.Background()))
}

func TestTailDeliversAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "existing\n")

	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())

	_, err := f.Prepare(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))
	defer func() { require.NoError(t, f.Stop()) }()

	appendFile(t, path, "tailed one\ntailed tw")
	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"existing", "tailed one"}, c.snapshot())

	// The pending tail is delivered once its newline lands.
	appendFile(t, path, "o\n")
	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "tailed two", c.snapshot()[2])
}

func TestTailRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "old one\nold two\n")

	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())

	_, err := f.Prepare(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))
	defer func() { require.NoError(t, f.Stop()) }()

	// Rotation: the file is replaced with shorter content.
	writeFile(t, path, "rotated\n")
	require.Eventually(t, func() bool {
		lines := c.snapshot()
		return len(lines) == 3 && lines[2] == "rotated"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, c.errCount())
}

func TestTailReportsStatFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "line\n")

	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())

	_, err := f.Prepare(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))
	defer func() { require.NoError(t, f.Stop()) }()

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		return c.errCount() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStartTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	writeFile(t, path, "")

	var c collector
	f := NewFileSource(c.line, c.err, quickPoll())

	_, err := f.Prepare(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))
	defer func() { require.NoError(t, f.Stop()) }()

	require.Error(t, f.Start(context.Background()))
}

func TestReaderSourceDeliversAndCompletes(t *testing.T) {
	var c collector
	r := NewReaderSource(strings.NewReader("one\ntwo\nthree\n"), c.line, c.err)

	count, err := r.Prepare(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 3
	}, 2*time.Second, 5*time.Millisecond)

	// Clean EOF is not an error.
	require.NoError(t, r.Stop())
	assert.Equal(t, []string{"one", "two", "three"}, c.snapshot())
	assert.Zero(t, c.errCount())
}

func TestReaderSourceUnterminatedFinalLine(t *testing.T) {
	var c collector
	r := NewReaderSource(strings.NewReader("alpha\nbeta"), c.line, c.err)

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop())

	// bufio.Scanner delivers the final unterminated line at EOF.
	assert.Equal(t, []string{"alpha", "beta"}, c.snapshot())
}
