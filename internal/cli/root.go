package cli

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/vburojevic/logsieve/internal/config"
)

// CLI is the root command structure for logsieve.
type CLI struct {
	// Global flags
	Format  string `short:"f" default:"text" enum:"text,ndjson" help:"Output format"`
	Quiet   bool   `short:"q" help:"Suppress non-line output"`
	Verbose bool   `short:"v" help:"Show debug output (debounce decisions, skipped lines, internal state)"`

	// Commands
	Scan     ScanCmd     `cmd:"" help:"Filter a log file once and print the matching view"`
	Tail     TailCmd     `cmd:"" default:"withargs" help:"Follow a log file through the incremental filter"`
	UI       UICmd       `cmd:"" help:"Interactive filtered log viewer"`
	Profiles ProfilesCmd `cmd:"" help:"List persisted filter profiles"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
	Logger  *zap.Logger
}

// NewGlobals creates a Globals instance from CLI flags with config fallbacks.
func NewGlobals(cli *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:  cli.Format,
		Quiet:   cli.Quiet,
		Verbose: cli.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
		Logger:  zap.NewNop(),
	}

	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = cfg.Quiet
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = cfg.Verbose
		}
	}

	if g.Verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			g.Logger = logger
		}
	}
	return g
}

// Debug logs a debug message when verbose mode is enabled.
func (g *Globals) Debug(msg string, fields ...zap.Field) {
	g.Logger.Debug(msg, fields...)
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run executes the version command.
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		_, err := io.WriteString(globals.Stdout, `{"type":"version","version":"`+Version+`","commit":"`+Commit+`"}`+"\n")
		return err
	}
	_, err := io.WriteString(globals.Stdout, "logsieve version "+Version+" ("+Commit+")\n")
	return err
}

// Version information (set at build time)
var (
	Version = "dev"
	Commit  = "none"
)
