package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vburojevic/logsieve/internal/domain"
	"github.com/vburojevic/logsieve/internal/filter"
	"github.com/vburojevic/logsieve/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// advance lets the run goroutine catch up on channel traffic before moving the
// mock clock, so timers armed by the last interaction exist before they are due.
func advance(mock *clock.Mock, d time.Duration) {
	time.Sleep(20 * time.Millisecond)
	mock.Add(d)
}

func recvEvent(t *testing.T, p *Processor) domain.Event {
	t.Helper()
	select {
	case ev, ok := <-p.Updates():
		require.True(t, ok, "update stream closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func expectNoEvent(t *testing.T, p *Processor) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	select {
	case ev := <-p.Updates():
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func newRunning(t *testing.T, doc *store.Store, cfg Config) (*Processor, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	cfg.Clock = mock
	p := New(doc, cfg)
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(p.Stop)
	return p, mock
}

// completeInitialLoad submits neutral settings and drives the debounce so the
// processor leaves the gated state.
func completeInitialLoad(t *testing.T, p *Processor, mock *clock.Mock) domain.Event {
	t.Helper()
	p.UpdateFilterSettings(filter.NewTrue(), 0)
	advance(mock, defaultDebounce)
	ev := recvEvent(t, p)
	require.Equal(t, domain.EventReplace, ev.Kind)
	require.True(t, ev.InitialLoadComplete)
	return ev
}

func TestInitialLoadGating(t *testing.T) {
	doc := store.New()
	p, mock := newRunning(t, doc, Config{})

	p.Ingest("alpha")
	p.Ingest("beta")
	p.Ingest("gamma")

	// Gated: nothing flows through the incremental path, no matter how much time
	// passes.
	advance(mock, time.Second)
	expectNoEvent(t, p)

	ev := completeInitialLoad(t, p, mock)
	require.Len(t, ev.Lines, 3)
	assert.Equal(t, "alpha", ev.Lines[0].Text)
	assert.Equal(t, uint32(1), ev.Lines[0].LineNumber)
	assert.Equal(t, 3, p.TotalLines())

	select {
	case total := <-p.Totals():
		assert.Equal(t, 3, total)
	default:
		t.Fatal("expected a published total")
	}
}

func TestDebounceCollapsesSubmissions(t *testing.T) {
	doc := store.New()
	doc.Append("first target")
	doc.Append("second target")
	p, mock := newRunning(t, doc, Config{})

	p.UpdateFilterSettings(filter.NewSubstring("first", false), 0)
	advance(mock, 100*time.Millisecond)
	p.UpdateFilterSettings(filter.NewSubstring("nothing here", false), 0)
	advance(mock, 100*time.Millisecond)
	p.UpdateFilterSettings(filter.NewSubstring("second", false), 0)
	advance(mock, defaultDebounce)

	// Only the last submission is evaluated.
	ev := recvEvent(t, p)
	require.Equal(t, domain.EventReplace, ev.Kind)
	require.Len(t, ev.Lines, 1)
	assert.Equal(t, "second target", ev.Lines[0].Text)

	expectNoEvent(t, p)
}

func TestSubsequentReplaceNotInitial(t *testing.T) {
	doc := store.New()
	doc.Append("kept line")
	p, mock := newRunning(t, doc, Config{})

	completeInitialLoad(t, p, mock)

	p.UpdateFilterSettings(filter.NewSubstring("kept", false), 0)
	advance(mock, defaultDebounce)
	ev := recvEvent(t, p)
	require.Equal(t, domain.EventReplace, ev.Kind)
	assert.False(t, ev.InitialLoadComplete)
	require.Len(t, ev.Lines, 1)
}

func TestBatchFlushByCount(t *testing.T) {
	doc := store.New()
	p, mock := newRunning(t, doc, Config{BatchMaxLines: 3})

	completeInitialLoad(t, p, mock)

	p.Ingest("one")
	p.Ingest("two")
	expectNoEvent(t, p)

	p.Ingest("three")
	ev := recvEvent(t, p)
	require.Equal(t, domain.EventAppend, ev.Kind)
	require.Len(t, ev.Lines, 3)
	assert.Equal(t, uint32(1), ev.Lines[0].LineNumber)
	assert.Equal(t, "three", ev.Lines[2].Text)
}

func TestBatchFlushByTime(t *testing.T) {
	doc := store.New()
	p, mock := newRunning(t, doc, Config{})

	completeInitialLoad(t, p, mock)

	p.Ingest("lonely line")
	expectNoEvent(t, p)

	advance(mock, defaultBatchInterval)
	ev := recvEvent(t, p)
	require.Equal(t, domain.EventAppend, ev.Kind)
	require.Len(t, ev.Lines, 1)
	assert.Equal(t, "lonely line", ev.Lines[0].Text)
}

func TestAppendsRespectCurrentFilter(t *testing.T) {
	doc := store.New()
	p, mock := newRunning(t, doc, Config{})

	p.UpdateFilterSettings(filter.NewSubstring("error", false), 0)
	advance(mock, defaultDebounce)
	ev := recvEvent(t, p)
	require.True(t, ev.InitialLoadComplete)
	require.Empty(t, ev.Lines)

	p.Ingest("routine chatter")
	p.Ingest("Error: disk full")
	advance(mock, defaultBatchInterval)

	ev = recvEvent(t, p)
	require.Equal(t, domain.EventAppend, ev.Kind)
	require.Len(t, ev.Lines, 1)
	assert.Equal(t, "Error: disk full", ev.Lines[0].Text)
	assert.Equal(t, uint32(2), ev.Lines[0].LineNumber)

	// A batch with no surviving lines emits nothing.
	p.Ingest("more chatter")
	advance(mock, defaultBatchInterval)
	expectNoEvent(t, p)
}

func TestAppendCarriesContext(t *testing.T) {
	doc := store.New()
	p, mock := newRunning(t, doc, Config{})

	p.UpdateFilterSettings(filter.NewSubstring("error", false), 1)
	advance(mock, defaultDebounce)
	recvEvent(t, p)

	p.Ingest("lead-in")
	p.Ingest("Error: oops")
	advance(mock, defaultBatchInterval)

	ev := recvEvent(t, p)
	require.Len(t, ev.Lines, 2)
	assert.True(t, ev.Lines[0].IsContext)
	assert.False(t, ev.Lines[1].IsContext)
}

func TestResetRegates(t *testing.T) {
	doc := store.New()
	doc.Append("old line")
	p, mock := newRunning(t, doc, Config{})

	completeInitialLoad(t, p, mock)
	assert.Equal(t, 1, p.TotalLines())

	p.Reset()
	assert.Equal(t, 0, p.TotalLines())

	// Gated again: new lines are stored but not evaluated incrementally.
	doc.Clear()
	p.Ingest("fresh line")
	advance(mock, time.Second)
	expectNoEvent(t, p)

	ev := completeInitialLoad(t, p, mock)
	require.Len(t, ev.Lines, 1)
	assert.Equal(t, "fresh line", ev.Lines[0].Text)
	assert.Equal(t, 1, p.TotalLines())
}

func TestNilFilterMeansMatchAll(t *testing.T) {
	doc := store.New()
	doc.Append("anything")
	p, mock := newRunning(t, doc, Config{})

	p.UpdateFilterSettings(nil, 0)
	advance(mock, defaultDebounce)
	ev := recvEvent(t, p)
	require.Len(t, ev.Lines, 1)
}

type boom struct{}

func (boom) Match(string) bool { panic("broken predicate") }
func (boom) Enabled() bool     { return true }
func (boom) SetEnabled(bool)   {}

func TestEvaluationErrorIsTerminal(t *testing.T) {
	doc := store.New()
	doc.Append("a line to evaluate")
	p, mock := newRunning(t, doc, Config{})

	p.UpdateFilterSettings(boom{}, 0)
	advance(mock, defaultDebounce)

	select {
	case err := <-p.Errors():
		require.Error(t, err)
		assert.Contains(t, err.Error(), "filter evaluation failed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal error")
	}

	// The update stream completes after the error.
	select {
	case _, ok := <-p.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("update stream did not close")
	}

	// Further ingests are no-ops against the closed pipeline.
	p.Ingest("after the end")
}

func TestFailFromSource(t *testing.T) {
	doc := store.New()
	p, _ := newRunning(t, doc, Config{})

	p.Fail(assert.AnError)
	p.Fail(assert.AnError) // idempotent

	select {
	case err := <-p.Errors():
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestStartTwice(t *testing.T) {
	p, _ := newRunning(t, store.New(), Config{})
	require.Error(t, p.Start(context.Background()))
}

func TestTotalsConflation(t *testing.T) {
	doc := store.New()
	p, _ := newRunning(t, doc, Config{})

	for i := 0; i < 10; i++ {
		p.Ingest("line")
	}

	// Nobody drained in between, so the subscription holds only the latest value.
	select {
	case total := <-p.Totals():
		assert.Equal(t, 10, total)
	default:
		t.Fatal("expected a published total")
	}
}

func TestStopCompletesStreams(t *testing.T) {
	p := New(store.New(), Config{Clock: clock.NewMock()})
	require.NoError(t, p.Start(context.Background()))
	p.Stop()

	_, ok := <-p.Updates()
	assert.False(t, ok)
	_, ok = <-p.Errors()
	assert.False(t, ok)
}
