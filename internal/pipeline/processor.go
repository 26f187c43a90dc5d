// Package pipeline orchestrates incremental filtering: it ingests raw lines into
// the log store, batches them for subset evaluation, debounces filter-setting
// changes into full re-evaluations, and publishes one ordered stream of view
// updates.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/vburojevic/logsieve/internal/domain"
	"github.com/vburojevic/logsieve/internal/engine"
	"github.com/vburojevic/logsieve/internal/filter"
	"github.com/vburojevic/logsieve/internal/store"
)

// Settings is one submission of filter tree plus context-line count. Rapid
// submissions are debounced; only the last one before quiescence is evaluated.
type Settings struct {
	Filter       filter.Node
	ContextLines int
}

// Config tunes the processor. Zero values fall back to the defaults below.
type Config struct {
	// BatchMaxLines flushes the incremental batch when it reaches this many lines.
	BatchMaxLines int
	// BatchInterval flushes a non-empty incremental batch after this long.
	BatchInterval time.Duration
	// Debounce is the quiescence window for filter-setting changes.
	Debounce time.Duration

	// Clock drives every timer so tests can advance logical time. Defaults to the
	// wall clock.
	Clock clock.Clock
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

const (
	defaultBatchMaxLines = 50
	defaultBatchInterval = 100 * time.Millisecond
	defaultDebounce      = 300 * time.Millisecond
)

func (c *Config) fillDefaults() {
	if c.BatchMaxLines <= 0 {
		c.BatchMaxLines = defaultBatchMaxLines
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = defaultBatchInterval
	}
	if c.Debounce <= 0 {
		c.Debounce = defaultDebounce
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Processor runs the two evaluation paths over a borrowed store. A single run
// goroutine performs all evaluation and emission, so consumers never observe
// interleaved events. The store is borrowed, never cleared here: switching log
// sources is Reset() on the processor plus Clear() on the store, in the caller's
// hands.
type Processor struct {
	cfg Config
	clk clock.Clock
	log *zap.Logger
	doc *store.Store

	events chan domain.Event
	errs   chan error
	totals chan int

	lineCh     chan domain.RawLine
	settingsCh chan Settings
	done       chan struct{}

	mu          sync.Mutex
	running     bool
	failed      bool
	closed      bool
	initialLoad bool
	total       int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a processor over the given store. The processor starts as if Reset
// had just been called: incremental processing stays gated until the first
// full evaluation completes.
func New(doc *store.Store, cfg Config) *Processor {
	cfg.fillDefaults()
	return &Processor{
		cfg:         cfg,
		clk:         cfg.Clock,
		log:         cfg.Logger,
		doc:         doc,
		events:      make(chan domain.Event, 16),
		errs:        make(chan error, 4),
		totals:      make(chan int, 1),
		lineCh:      make(chan domain.RawLine, 1024),
		settingsCh:  make(chan Settings, 1),
		done:        make(chan struct{}),
		initialLoad: true,
	}
}

// Start launches the run goroutine.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("processor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(runCtx)
	}()
	return nil
}

// Ingest is the append callback handed to line sources. It stores the line, bumps
// the processed counter, and feeds the incremental path unless the initial load is
// still in progress (the pending full pass will cover the line).
func (p *Processor) Ingest(text string) {
	p.mu.Lock()
	idx := p.doc.Append(text)
	p.total++
	total := p.total
	initial := p.initialLoad
	p.mu.Unlock()
	p.publishTotal(total)

	if initial {
		return
	}
	select {
	case p.lineCh <- domain.RawLine{Index: idx, Text: text}:
	case <-p.done:
	}
}

// UpdateFilterSettings records new settings and arms the debounce. Intermediate
// submissions inside the debounce window are discarded unevaluated.
func (p *Processor) UpdateFilterSettings(node filter.Node, contextLines int) {
	if node == nil {
		node = filter.NewTrue()
	}
	s := Settings{Filter: node, ContextLines: contextLines}
	for {
		select {
		case p.settingsCh <- s:
			return
		case <-p.done:
			return
		default:
		}
		// A stale pending submission is superseded, drop it and retry.
		select {
		case <-p.settingsCh:
		default:
		}
	}
}

// Reset re-arms the initial-load gate and zeroes the processed counter, publishing
// the zero immediately. The store is left untouched.
func (p *Processor) Reset() {
	p.mu.Lock()
	p.initialLoad = true
	p.total = 0
	p.mu.Unlock()
	p.publishTotal(0)
}

// Fail terminates the update stream with err. Wired by the orchestrator to source
// I/O failures; also used internally for evaluation errors.
func (p *Processor) Fail(err error) {
	p.mu.Lock()
	if p.failed || p.closed {
		p.mu.Unlock()
		return
	}
	p.failed = true
	// Unblock any Reset/prepare sequence waiting on the load that will never finish.
	p.initialLoad = false
	cancel := p.cancel
	select {
	case p.errs <- err:
	default:
	}
	p.mu.Unlock()

	p.log.Error("pipeline terminated", zap.Error(err))
	if cancel != nil {
		cancel()
	}
}

// Stop cancels the run goroutine, waits for it, and completes the output stream.
// Borrowed collaborators (store, source) are not touched.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.running = false
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.close()
}

// Updates is the ordered stream of view updates. Closed on Stop and after a
// terminal error.
func (p *Processor) Updates() <-chan domain.Event { return p.events }

// Errors yields at most one terminal error before the stream closes.
func (p *Processor) Errors() <-chan error { return p.errs }

// Totals is a conflated subscription to the total-lines-processed counter: slow
// consumers observe the latest value, never a backlog.
func (p *Processor) Totals() <-chan int { return p.totals }

// TotalLines returns the current total-lines-processed counter.
func (p *Processor) TotalLines() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func (p *Processor) publishTotal(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for {
		select {
		case p.totals <- v:
			return
		default:
		}
		select {
		case <-p.totals:
		default:
		}
	}
}

func (p *Processor) close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		close(p.events)
		close(p.errs)
		close(p.totals)
	})
}

// run is the single delivery context: every evaluation and every emission happens
// here, in arrival order within each path.
func (p *Processor) run(ctx context.Context) {
	defer p.close()

	current := Settings{Filter: filter.NewTrue()}
	var pending *Settings

	var batch []domain.RawLine
	var flushTimer *clock.Timer
	var flushC <-chan time.Time
	var debounceTimer *clock.Timer
	var debounceC <-chan time.Time

	stopTimer := func(t *clock.Timer) {
		if t != nil {
			t.Stop()
		}
	}
	defer func() {
		stopTimer(flushTimer)
		stopTimer(debounceTimer)
	}()

	flush := func() bool {
		stopTimer(flushTimer)
		flushTimer, flushC = nil, nil
		if len(batch) == 0 {
			return true
		}
		b := batch
		batch = nil
		lines, skipped, err := engine.ApplySubset(b, p.doc, current.Filter, current.ContextLines)
		if err != nil {
			p.Fail(err)
			return false
		}
		if skipped > 0 {
			p.log.Debug("skipped out-of-range batch lines", zap.Int("skipped", skipped))
		}
		if len(lines) == 0 {
			return true
		}
		return p.emit(ctx, domain.NewAppend(lines))
	}

	refilter := func() bool {
		// The gate drops before evaluation, not after: lines that arrive while the
		// full pass runs take the incremental path and surface as Appends behind
		// the Replace, instead of being lost to the closing gate.
		p.mu.Lock()
		initialComplete := p.initialLoad
		if initialComplete {
			p.initialLoad = false
			p.total = p.doc.Len()
		}
		total := p.total
		p.mu.Unlock()

		lines, err := engine.ApplyFull(p.doc, current.Filter, current.ContextLines)
		if err != nil {
			p.Fail(err)
			return false
		}
		if initialComplete {
			p.publishTotal(total)
		}
		return p.emit(ctx, domain.NewReplace(lines, initialComplete))
	}

	for {
		select {
		case <-ctx.Done():
			return

		case raw := <-p.lineCh:
			batch = append(batch, raw)
			if len(batch) >= p.cfg.BatchMaxLines {
				if !flush() {
					return
				}
			} else if flushC == nil {
				flushTimer = p.clk.Timer(p.cfg.BatchInterval)
				flushC = flushTimer.C
			}

		case <-flushC:
			flushTimer, flushC = nil, nil
			if !flush() {
				return
			}

		case s := <-p.settingsCh:
			pending = &s
			stopTimer(debounceTimer)
			debounceTimer = p.clk.Timer(p.cfg.Debounce)
			debounceC = debounceTimer.C

		case <-debounceC:
			debounceTimer, debounceC = nil, nil
			if pending != nil {
				current = *pending
				pending = nil
			}
			if !refilter() {
				return
			}
		}
	}
}

// emit delivers one event in order, blocking until the consumer takes it or the
// processor shuts down.
func (p *Processor) emit(ctx context.Context, ev domain.Event) bool {
	select {
	case p.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
