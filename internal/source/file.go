package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const defaultPollInterval = 250 * time.Millisecond

// FileConfig tunes a FileSource.
type FileConfig struct {
	// PollInterval is how often the tail loop checks the file for growth.
	PollInterval time.Duration
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// FileSource replays an existing file on Prepare and tails appended bytes on
// Start. Only complete lines are delivered; a trailing unterminated line stays
// pending until its newline arrives. Read failures during tailing are reported
// through the error callback, which the orchestrator wires to the pipeline's
// terminal Fail.
type FileSource struct {
	onLine func(string)
	onErr  func(error)
	clk    clock.Clock
	log    *zap.Logger
	poll   time.Duration

	mu      sync.Mutex
	path    string
	offset  int64
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFileSource creates a file source delivering lines to onLine and failures to
// onErr.
func NewFileSource(onLine func(string), onErr func(error), cfg FileConfig) *FileSource {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &FileSource{
		onLine: onLine,
		onErr:  onErr,
		clk:    cfg.Clock,
		log:    cfg.Logger,
		poll:   cfg.PollInterval,
	}
}

// Prepare reads the file's current content and replays every complete line.
func (f *FileSource) Prepare(ctx context.Context, identifier string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return 0, fmt.Errorf("file source already started")
	}
	f.path = identifier
	f.offset = 0

	count, err := f.drainLocked(ctx)
	if err != nil {
		return 0, fmt.Errorf("prepare %s: %w", identifier, err)
	}
	return count, nil
}

// Start begins polling the file for growth.
func (f *FileSource) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return fmt.Errorf("file source already started")
	}
	if f.path == "" {
		return fmt.Errorf("file source not prepared")
	}
	tailCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.running = true
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.tail(tailCtx)
	}()
	return nil
}

// Stop ends tailing and waits for the tail goroutine.
func (f *FileSource) Stop() error {
	f.mu.Lock()
	cancel := f.cancel
	f.running = false
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
	return nil
}

func (f *FileSource) tail(ctx context.Context) {
	ticker := f.clk.Ticker(f.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		f.mu.Lock()
		info, err := os.Stat(f.path)
		if err != nil {
			f.mu.Unlock()
			f.onErr(fmt.Errorf("stat %s: %w", f.path, err))
			return
		}
		if info.Size() < f.offset {
			// File shrank under us, most likely rotated. Start over from the top.
			f.log.Debug("file truncated, restarting from start", zap.String("path", f.path))
			f.offset = 0
		}
		if info.Size() == f.offset {
			f.mu.Unlock()
			continue
		}
		_, err = f.drainLocked(ctx)
		f.mu.Unlock()
		if err != nil {
			f.onErr(fmt.Errorf("tail %s: %w", f.path, err))
			return
		}
	}
}

// drainLocked reads from the current offset and emits complete lines, advancing the
// offset past each delivered line. Requires f.mu.
func (f *FileSource) drainLocked(ctx context.Context) (int, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		line := string(bytes.TrimSuffix(data[:nl], []byte("\r")))
		data = data[nl+1:]
		f.offset += int64(nl + 1)
		f.onLine(line)
		count++
	}
	return count, nil
}
