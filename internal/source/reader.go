package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// ReaderSource delivers lines from an io.Reader (stdin, pipes, tests). It has no
// pre-existing content: Prepare is a no-op and live delivery starts with Start. A
// clean EOF completes delivery without error.
type ReaderSource struct {
	r      io.Reader
	onLine func(string)
	onErr  func(error)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReaderSource creates a reader-backed source.
func NewReaderSource(r io.Reader, onLine func(string), onErr func(error)) *ReaderSource {
	return &ReaderSource{r: r, onLine: onLine, onErr: onErr}
}

// Prepare ignores the identifier; a reader has no replayable history.
func (r *ReaderSource) Prepare(ctx context.Context, identifier string) (int, error) {
	return 0, nil
}

// Start begins scanning the reader on its own goroutine.
func (r *ReaderSource) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("reader source already started")
	}
	scanCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.scan(scanCtx)
	}()
	return nil
}

// Stop cancels scanning and waits for the goroutine. The underlying reader is
// borrowed and left open.
func (r *ReaderSource) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.running = false
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return nil
}

func (r *ReaderSource) scan(ctx context.Context) {
	sc := bufio.NewScanner(r.r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		r.onLine(sc.Text())
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		r.onErr(fmt.Errorf("read lines: %w", err))
	}
}
