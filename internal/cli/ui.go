package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vburojevic/logsieve/internal/pipeline"
	"github.com/vburojevic/logsieve/internal/source"
	"github.com/vburojevic/logsieve/internal/store"
	"github.com/vburojevic/logsieve/internal/tui"
)

// UICmd launches the interactive filtered viewer over a log file.
type UICmd struct {
	File         string `arg:"" help:"Log file to view"`
	Query        string `short:"c" help:"Initial substring filter"`
	Context      int    `short:"C" default:"0" help:"Initial context lines around each match"`
	PollInterval string `help:"How often to check the file for growth (e.g. 250ms)"`
}

// Run executes the ui command.
func (c *UICmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	defaults := globals.Config.Defaults
	doc := store.New()
	proc := pipeline.New(doc, pipeline.Config{
		BatchMaxLines: defaults.BatchMaxLines,
		BatchInterval: configDuration(defaults.BatchInterval, 100*time.Millisecond),
		Debounce:      configDuration(defaults.Debounce, 300*time.Millisecond),
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
	if _, err := src.Prepare(ctx, c.File); err != nil {
		return err
	}
	if err := src.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := src.Stop(); err != nil {
			globals.Debug("failed to stop source")
		}
	}()

	model := tui.New(c.File, proc, c.Query, c.Context)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}
	return nil
}
