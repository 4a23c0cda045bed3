package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/entrhq/stockroom/pkg/config"
	"github.com/entrhq/stockroom/pkg/inventory"
	"github.com/entrhq/stockroom/pkg/report"
)

// errNotPersisted means a mutation succeeded in memory but was not written
var errNotPersisted = errors.New("change not saved")

// app carries what every subcommand needs
type app struct {
	settings *config.Settings
	store    *inventory.Store
	stdout   io.Writer
	stderr   io.Writer
}

// stringList is a repeatable string flag
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func (a *app) dispatch(command string, args []string) int {
	var err error
	switch command {
	case "add":
		err = a.mutate(command, args, a.store.Add)
	case "remove":
		err = a.mutate(command, args, a.store.Remove)
	case "get":
		err = a.get(args)
	case "low":
		err = a.low(args)
	case "report":
		err = a.report(args)
	case "demo":
		err = a.demo()
	default:
		err = usageError("unknown command %q", command)
	}
	return a.exitCode(err)
}

// exitCode prints err, if any, and maps it to an exit status
func (a *app) exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	if errors.Is(err, inventory.ErrNotFound) {
		return exitNotFound
	}
	if errors.Is(err, errNotPersisted) {
		return exitNotSaved
	}
	return exitUsage
}

func usageError(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", inventory.ErrValidation, fmt.Sprintf(format, v...))
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, inventory.ErrInvalidQuantity)
	}
	return n, nil
}

// mutate runs add or remove against the inventory file
func (a *app) mutate(command string, args []string, op func(string, int) (inventory.Record, error)) error {
	if len(args) != 2 {
		return usageError("usage: stockroom %s <item> <qty>", command)
	}
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}

	// Never overwrite a file that exists but could not be read back
	loaded := a.store.Load(a.settings.DataFile)
	rec, err := op(args[0], qty)
	if err != nil {
		return err
	}
	if loaded == inventory.OutcomeFailed || loaded == inventory.OutcomeInvalid {
		return fmt.Errorf("%w: %s was not loaded (%s)", errNotPersisted, a.settings.DataFile, loaded)
	}
	if saved := a.store.Save(a.settings.DataFile); saved != inventory.OutcomeOK {
		return fmt.Errorf("%w: saving %s %s", errNotPersisted, a.settings.DataFile, saved)
	}

	if rec.Removed {
		fmt.Fprintf(a.stdout, "%s removed\n", rec.Item)
	} else {
		fmt.Fprintf(a.stdout, "%s -> %d\n", rec.Item, rec.Current)
	}
	return nil
}

func (a *app) get(args []string) error {
	if len(args) != 1 {
		return usageError("usage: stockroom get <item>")
	}

	a.store.Load(a.settings.DataFile)
	qty, err := a.store.Quantity(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, qty)
	return nil
}

func (a *app) low(args []string) error {
	fs := flag.NewFlagSet("low", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	threshold := fs.String("threshold", strconv.Itoa(a.settings.Threshold), "List items with quantity strictly below this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n, err := strconv.Atoi(strings.TrimSpace(*threshold))
	if err != nil {
		return fmt.Errorf("%q: %w", *threshold, inventory.ErrInvalidThreshold)
	}

	a.store.Load(a.settings.DataFile)
	for _, name := range a.store.BelowThreshold(n) {
		fmt.Fprintln(a.stdout, name)
	}
	return nil
}

func (a *app) report(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var match, exclude stringList
	fs.Var(&match, "match", "Only include items matching this glob (repeatable)")
	fs.Var(&exclude, "exclude", "Leave out items matching this glob (repeatable)")
	markLow := fs.Bool("mark-low", false, "Mark items below the configured threshold")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := report.NewFilter(match, exclude)
	if err != nil {
		return usageError("%v", err)
	}

	opts := []report.Option{
		report.WithFilter(filter),
		report.WithStyle(a.settings.Color),
	}
	if *markLow {
		opts = append(opts, report.WithLowThreshold(a.settings.Threshold))
	}

	a.store.Load(a.settings.DataFile)
	return report.Write(a.stdout, a.store.Items(), opts...)
}

// demo seeds an item, exercises every operation and round-trips the file
func (a *app) demo() error {
	if _, err := a.store.Add("apple", 10); err != nil {
		return err
	}

	if _, err := a.store.Remove("apple", 3); err != nil {
		fmt.Fprintf(a.stderr, "Tried to remove non-existent item: %v\n", err)
	}

	if qty, err := a.store.Quantity("apple"); err != nil {
		fmt.Fprintln(a.stdout, "Apple not found")
	} else {
		fmt.Fprintf(a.stdout, "Apple stock: %d\n", qty)
	}

	fmt.Fprintf(a.stdout, "Low items: %v\n", a.store.BelowThreshold(a.settings.Threshold))

	a.store.Save(a.settings.DataFile)
	a.store.Load(a.settings.DataFile)

	return report.Write(a.stdout, a.store.Items(), report.WithStyle(a.settings.Color))
}
