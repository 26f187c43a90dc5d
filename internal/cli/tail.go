package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vburojevic/logsieve/internal/output"
	"github.com/vburojevic/logsieve/internal/pipeline"
	"github.com/vburojevic/logsieve/internal/source"
	"github.com/vburojevic/logsieve/internal/store"
	"github.com/vburojevic/logsieve/internal/view"
)

// TailCmd follows a log file through the incremental filtering pipeline: existing
// content is replayed, filtered once, then appended lines stream through the
// subset path.
type TailCmd struct {
	filterFlags

	File         string `arg:"" help:"Log file to follow"`
	PollInterval string `help:"How often to check the file for growth (e.g. 250ms)"`
}

// Run executes the tail command.
func (c *TailCmd) Run(globals *Globals) error {
	output.MaybeNoStyle(os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	node, err := c.buildFilter(globals)
	if err != nil {
		return err
	}

	defaults := globals.Config.Defaults
	doc := store.New()
	proc := pipeline.New(doc, pipeline.Config{
		BatchMaxLines: defaults.BatchMaxLines,
		BatchInterval: configDuration(defaults.BatchInterval, 100*time.Millisecond),
		Debounce:      configDuration(defaults.Debounce, 300*time.Millisecond),
		Clock:         clock.New(),
		Logger:        globals.Logger,
	})
	if err := proc.Start(ctx); err != nil {
		return err
	}
	defer proc.Stop()

	poll := c.PollInterval
	if poll == "" {
		poll = defaults.PollInterval
	}
	src := source.NewFileSource(proc.Ingest, proc.Fail, source.FileConfig{
		PollInterval: configDuration(poll, 250*time.Millisecond),
		Logger:       globals.Logger,
	})

	initial, err := src.Prepare(ctx, c.File)
	if err != nil {
		return err
	}
	globals.Debug("prepared source", zap.Int("existing_lines", initial))
	if err := src.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := src.Stop(); err != nil {
			globals.Debug("failed to stop source")
		}
	}()

	if !globals.Quiet && globals.Format == "text" {
		w := output.NewTextWriter(globals.Stderr)
		if err := w.WriteInfo(fmt.Sprintf("Following %s (%d existing lines), Ctrl+C to stop", c.File, initial)); err != nil {
			return err
		}
	}

	// Single settings submission; the debounce fires once and emits the initial
	// Replace.
	proc.UpdateFilterSettings(node, c.Context)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.consume(gctx, globals, proc) })
	g.Go(func() error { return c.watchTotals(gctx, globals, proc) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// consume drains the ordered update stream, printing the initial view once and
// appended lines as they arrive.
func (c *TailCmd) consume(ctx context.Context, globals *Globals, proc *pipeline.Processor) error {
	acc := view.NewAccumulator()
	text := output.NewTextWriter(globals.Stdout)
	ndjson := output.NewNDJSONWriter(globals.Stdout)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-proc.Updates():
			if !ok {
				// Stream ended; a terminal error, if any, is buffered on Errors.
				select {
				case err, ok := <-proc.Errors():
					if ok && err != nil {
						if globals.Format == "ndjson" {
							_ = ndjson.WriteError("PIPELINE_FAILED", err.Error())
						} else {
							fmt.Fprintln(globals.Stderr, output.ErrorStyle().Render(err.Error()))
						}
						return err
					}
				default:
				}
				return nil
			}

			added := acc.Apply(ev)
			if globals.Format == "ndjson" {
				if err := ndjson.WriteEvent(ev); err != nil {
					return err
				}
				continue
			}
			if err := text.WriteLines(added); err != nil {
				return err
			}
			if ev.InitialLoadComplete && !globals.Quiet {
				if err := output.NewTextWriter(globals.Stderr).WriteInfo(
					fmt.Sprintf("Initial view: %d lines", acc.Len())); err != nil {
					return err
				}
			}
		}
	}
}

// watchTotals follows the conflated total-lines counter for debug output.
func (c *TailCmd) watchTotals(ctx context.Context, globals *Globals, proc *pipeline.Processor) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case total, ok := <-proc.Totals():
			if !ok {
				return nil
			}
			globals.Debug("processed lines", zap.Int("total", total))
		}
	}
}
