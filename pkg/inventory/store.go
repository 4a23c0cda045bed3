package inventory

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/entrhq/stockroom/pkg/logging"
)

const (
	// DefaultPath is the file Load and Save use when given an empty path.
	DefaultPath = "inventory.json"

	// DefaultThreshold is the customary cutoff for BelowThreshold.
	DefaultThreshold = 5

	// ReportHeader is the first line of every report.
	ReportHeader = "Items Report"
)

// Logger is the subset of *logging.Logger the store writes to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// Item is one entry of a store snapshot.
type Item struct {
	Name     string
	Quantity int
}

// Store maps item names to quantities.
type Store struct {
	quantities map[string]int
	mu         sync.RWMutex

	logger   Logger
	observer func(Record)
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets where operation and persistence messages go.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithObserver registers fn to receive every Record produced by Add and Remove.
// fn runs after the store lock is released.
func WithObserver(fn func(Record)) Option {
	return func(s *Store) {
		s.observer = fn
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store. Without WithLogger it logs to stderr.
func NewStore(opts ...Option) *Store {
	s := &Store{
		quantities: make(map[string]int),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		// New cannot fail without a log directory
		s.logger, _ = logging.New("inventory")
	}
	return s
}

// Add adds qty to item, creating it on first use. A negative qty decreases
// the stock; if the result is zero or below the item is deleted. qty == 0
// leaves the store unchanged.
func (s *Store) Add(item string, qty int) (Record, error) {
	if !validItem(item) {
		return Record{}, ErrInvalidItem
	}

	s.mu.Lock()
	previous := s.quantities[item]
	rec := Record{
		Time:     s.now(),
		Item:     item,
		Delta:    qty,
		Previous: previous,
	}

	if qty == 0 {
		s.mu.Unlock()
		rec.Op = OpNoop
		rec.Current = previous
		s.logger.Debugf("Add called with qty=0 for %s; no change made", item)
		return rec, nil
	}

	current := previous + qty
	if (qty > 0 && current < previous) || (qty < 0 && current > previous) {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("adding %d to %s: %w", qty, item, ErrQuantityOverflow)
	}

	rec.Op = OpAdd
	if current > 0 {
		s.quantities[item] = current
		rec.Current = current
	} else {
		delete(s.quantities, item)
		rec.Removed = true
	}
	s.mu.Unlock()

	s.logger.Infof("%s", rec)
	s.notify(rec)
	return rec, nil
}

// Remove takes qty away from item. The item must exist. If the remaining
// quantity is zero or below, the item is deleted; this includes a negative
// qty that still leaves it at zero or below.
func (s *Store) Remove(item string, qty int) (Record, error) {
	if !validItem(item) {
		return Record{}, ErrInvalidItem
	}

	s.mu.Lock()
	previous, ok := s.quantities[item]
	if !ok {
		s.mu.Unlock()
		return Record{}, notFound(item)
	}

	current := previous - qty
	if (qty > 0 && current > previous) || (qty < 0 && current < previous) {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("removing %d from %s: %w", qty, item, ErrQuantityOverflow)
	}

	rec := Record{
		Time:     s.now(),
		Op:       OpRemove,
		Item:     item,
		Delta:    qty,
		Previous: previous,
	}
	if current > 0 {
		s.quantities[item] = current
		rec.Current = current
	} else {
		delete(s.quantities, item)
		rec.Removed = true
	}
	s.mu.Unlock()

	s.logger.Infof("%s", rec)
	s.notify(rec)
	return rec, nil
}

// Quantity returns the stored quantity of item.
func (s *Store) Quantity(item string) (int, error) {
	if !validItem(item) {
		return 0, ErrInvalidItem
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	qty, ok := s.quantities[item]
	if !ok {
		return 0, notFound(item)
	}
	return qty, nil
}

// BelowThreshold returns the names of items whose quantity is strictly less
// than threshold, sorted by name.
func (s *Store) BelowThreshold(threshold int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0)
	for name, qty := range s.quantities {
		if qty < threshold {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Items returns a snapshot of the store sorted by name.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.quantities))
	for name, qty := range s.quantities {
		items = append(items, Item{Name: name, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})
	return items
}

// Len returns the number of items held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quantities)
}

// Print writes the plain items report for the current contents to w.
func (s *Store) Print(w io.Writer) error {
	return WriteReport(w, s.Items())
}

// WriteReport writes the report header followed by one "<name> -> <quantity>"
// line per item, in the order given.
func WriteReport(w io.Writer, items []Item) error {
	if _, err := fmt.Fprintln(w, ReportHeader); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "%s -> %d\n", it.Name, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// validItem reports whether item can name an entry: non-empty UTF-8 text.
func validItem(item string) bool {
	return item != "" && utf8.ValidString(item)
}

func (s *Store) snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.quantities))
	for k, v := range s.quantities {
		out[k] = v
	}
	return out
}

// replace clears the mapping and repopulates it from cleaned, keeping the
// same map value.
func (s *Store) replace(cleaned map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.quantities {
		delete(s.quantities, k)
	}
	for k, v := range cleaned {
		s.quantities[k] = v
	}
}

func (s *Store) notify(rec Record) {
	if s.observer != nil {
		s.observer(rec)
	}
}
