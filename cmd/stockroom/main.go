// Package main provides stockroom, a small command-line tool that tracks item
// quantities in a JSON (or YAML) file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/entrhq/stockroom/pkg/config"
	"github.com/entrhq/stockroom/pkg/inventory"
	"github.com/entrhq/stockroom/pkg/logging"
)

const version = "0.1.0"

// Exit codes
const (
	exitOK       = 0
	exitNotFound = 1
	exitUsage    = 2
	exitNotSaved = 3
)

// globalFlags holds the flags accepted before the subcommand
type globalFlags struct {
	file        string
	configPath  string
	logLevel    string
	logDir      string
	threshold   int
	color       bool
	showVersion bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes one subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stockroom", flag.ContinueOnError)
	fs.SetOutput(stderr)

	g := &globalFlags{}
	fs.StringVar(&g.file, "file", inventory.DefaultPath, "Inventory file (.json, .yaml or .yml)")
	fs.StringVar(&g.configPath, "config", "", "Settings file (default ~/.config/stockroom/config.yaml)")
	fs.StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&g.logDir, "log-dir", "", "Write logs to a session file in this directory instead of stderr")
	fs.IntVar(&g.threshold, "threshold", inventory.DefaultThreshold, "Default low-stock threshold for low, report -mark-low and demo")
	fs.BoolVar(&g.color, "color", false, "Style report output")
	fs.BoolVar(&g.showVersion, "version", false, "Show version and exit")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if g.showVersion {
		fmt.Fprintf(stdout, "stockroom v%s\n", version)
		return exitOK
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}

	settings, err := loadSettings(fs, g)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	logOpts := []logging.Option{
		logging.WithWriter(stderr),
		logging.WithLevel(settings.Level()),
	}
	if settings.LogDir != "" {
		logOpts = append(logOpts, logging.WithFile(settings.LogDir))
	}

	logger, err := logging.New("inventory", logOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
	defer logger.Close()

	a := &app{
		settings: settings,
		store:    inventory.NewStore(inventory.WithLogger(logger)),
		stdout:   stdout,
		stderr:   stderr,
	}
	return a.dispatch(rest[0], rest[1:])
}

// loadSettings resolves settings from the settings file, the environment and
// any global flags the user set explicitly.
func loadSettings(fs *flag.FlagSet, g *globalFlags) (*config.Settings, error) {
	path, optional := g.configPath, false
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path, optional = defaultPath, true
	}

	settings, err := config.LoadFile(path, optional)
	if err != nil {
		return nil, err
	}

	var cli config.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cli.DataFile = &g.file
		case "log-level":
			cli.LogLevel = &g.logLevel
		case "log-dir":
			cli.LogDir = &g.logDir
		case "threshold":
			cli.Threshold = &g.threshold
		case "color":
			cli.Color = &g.color
		}
	})

	if err := settings.Resolve(cli); err != nil {
		return nil, err
	}
	return settings, nil
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "stockroom - track item quantities in a flat file\n\n")
	fmt.Fprintf(w, "Usage: stockroom [options] <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  add <item> <qty>       Add qty of item (negative qty decreases stock)\n")
	fmt.Fprintf(w, "  remove <item> <qty>    Remove qty of item; the item is dropped at zero\n")
	fmt.Fprintf(w, "  get <item>             Print the quantity of item\n")
	fmt.Fprintf(w, "  low [-threshold N]     List items with quantity below N\n")
	fmt.Fprintf(w, "  report [-match P]...   Print all items, optionally filtered by glob\n")
	fmt.Fprintf(w, "  demo                   Run a short demonstration\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nEnvironment Variables:\n")
	fmt.Fprintf(w, "  %-20s Inventory file\n", config.EnvFile)
	fmt.Fprintf(w, "  %-20s Default low-stock threshold\n", config.EnvThreshold)
	fmt.Fprintf(w, "  %-20s Log level\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %-20s Log directory\n", config.EnvLogDir)
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  stockroom add apple 10\n")
	fmt.Fprintf(w, "  stockroom -file stock.yaml remove apple 3\n")
	fmt.Fprintf(w, "  stockroom low -threshold 10\n")
	fmt.Fprintf(w, "  stockroom -threshold 3 report -mark-low\n")
	fmt.Fprintf(w, "  stockroom -color report -match 'bolt*' -exclude '*M3'\n")
}
