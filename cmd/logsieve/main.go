package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/vburojevic/logsieve/internal/cli"
	"github.com/vburojevic/logsieve/internal/config"
)

const quickStart = `logsieve - incremental log filtering for the terminal

START HERE:
  logsieve tail app.log -c Error -C 2

Flags:
  -c    Substring the line must contain (repeatable)
  -C    Context lines to show around each match

Other useful commands:
  logsieve scan app.log -p 'timeout|refused'   Filter a file once
  logsieve ui app.log                          Interactive viewer
  logsieve profiles                            List saved filter profiles
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("logsieve"),
		kong.Description("Incremental log filtering: follow a growing log through a composable filter tree with context lines"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	globals := cli.NewGlobals(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
