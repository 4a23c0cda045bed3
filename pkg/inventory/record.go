package inventory

import (
	"fmt"
	"time"
)

// Op names the kind of mutation a Record describes.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpNoop   Op = "noop"
)

// Record describes one mutation of the store.
type Record struct {
	Time     time.Time
	Op       Op
	Item     string
	Delta    int // quantity argument as passed by the caller
	Previous int
	Current  int  // quantity after the operation, 0 when the item was deleted
	Removed  bool // the item is no longer in the store
}

// String renders the record as a timestamped, human-readable line.
func (r Record) String() string {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05.000000Z")

	switch r.Op {
	case OpAdd:
		line := fmt.Sprintf("%s: Added %d of %s (prev=%d, now=%d)", ts, r.Delta, r.Item, r.Previous, r.Previous+r.Delta)
		if r.Removed {
			line += "; removed from inventory"
		}
		return line
	case OpRemove:
		if r.Removed {
			return fmt.Sprintf("%s: Item '%s' removed from inventory (qty <= 0 after removal)", ts, r.Item)
		}
		return fmt.Sprintf("%s: Removed %d of %s; new qty=%d", ts, r.Delta, r.Item, r.Current)
	default:
		return fmt.Sprintf("%s: No change to %s (qty=%d)", ts, r.Item, r.Current)
	}
}
