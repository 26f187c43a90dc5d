package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/vburojevic/logsieve/internal/engine"
	"github.com/vburojevic/logsieve/internal/output"
	"github.com/vburojevic/logsieve/internal/store"
)

// ScanCmd runs one full evaluation over a file and prints the filtered view.
type ScanCmd struct {
	filterFlags

	File string `arg:"" help:"Log file to filter"`
}

// Run executes the scan command.
func (c *ScanCmd) Run(globals *Globals) error {
	output.MaybeNoStyle(os.Stdout)

	node, err := c.buildFilter(globals)
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.File, err)
	}
	defer f.Close()

	doc := store.New()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		doc.Append(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	lines, err := engine.ApplyFull(doc, node, c.Context)
	if err != nil {
		return err
	}
	globals.Debug("scan complete")

	if globals.Format == "ndjson" {
		w := output.NewNDJSONWriter(globals.Stdout)
		for _, l := range lines {
			if err := w.WriteLine(l); err != nil {
				return err
			}
		}
		return nil
	}

	w := output.NewTextWriter(globals.Stdout)
	if err := w.WriteLines(lines); err != nil {
		return err
	}
	if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "%d of %d lines\n", len(lines), doc.Len())
	}
	return nil
}
