package inventory

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/stockroom/pkg/logging"
)

var testTime = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

// newTestStore returns a store whose log output is captured in the returned buffer.
func newTestStore(t *testing.T, opts ...Option) (*Store, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger, err := logging.New("inventory", logging.WithWriter(&buf), logging.WithLevel(logging.LevelDebug))
	require.NoError(t, err)

	opts = append([]Option{
		WithLogger(logger),
		WithClock(func() time.Time { return testTime }),
	}, opts...)
	return NewStore(opts...), &buf
}

func seed(t *testing.T, s *Store, items map[string]int) {
	t.Helper()
	for name, qty := range items {
		_, err := s.Add(name, qty)
		require.NoError(t, err)
	}
}

func TestStoreScenarios(t *testing.T) {
	s, _ := newTestStore(t)

	// add to an empty store
	_, err := s.Add("apple", 10)
	require.NoError(t, err)
	qty, err := s.Quantity("apple")
	require.NoError(t, err)
	assert.Equal(t, 10, qty)

	// partial removal
	_, err = s.Remove("apple", 3)
	require.NoError(t, err)
	qty, err = s.Quantity("apple")
	require.NoError(t, err)
	assert.Equal(t, 7, qty)

	// removing the remaining stock deletes the item
	_, err = s.Remove("apple", 7)
	require.NoError(t, err)
	_, err = s.Quantity("apple")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestRemoveMissingItem(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Remove("ghost", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "'ghost'")
	assert.Equal(t, 0, s.Len())
}

func TestAdd(t *testing.T) {
	t.Run("accumulates", func(t *testing.T) {
		s, _ := newTestStore(t)
		seed(t, s, map[string]int{"pear": 2})

		rec, err := s.Add("pear", 5)
		require.NoError(t, err)
		assert.Equal(t, OpAdd, rec.Op)
		assert.Equal(t, 2, rec.Previous)
		assert.Equal(t, 7, rec.Current)
		assert.False(t, rec.Removed)
		assert.Equal(t, testTime, rec.Time)
	})

	t.Run("zero is a no-op", func(t *testing.T) {
		s, logs := newTestStore(t)
		seed(t, s, map[string]int{"pear": 2})
		before := s.Items()

		rec, err := s.Add("pear", 0)
		require.NoError(t, err)
		assert.Equal(t, OpNoop, rec.Op)
		assert.Equal(t, before, s.Items())

		rec, err = s.Add("plum", 0)
		require.NoError(t, err)
		assert.Equal(t, OpNoop, rec.Op)
		_, err = s.Quantity("plum")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, logs.String(), "[DEBUG] Add called with qty=0 for plum; no change made")
	})

	t.Run("negative decreases stock", func(t *testing.T) {
		s, _ := newTestStore(t)
		seed(t, s, map[string]int{"pear": 5})

		_, err := s.Add("pear", -2)
		require.NoError(t, err)
		qty, err := s.Quantity("pear")
		require.NoError(t, err)
		assert.Equal(t, 3, qty)
	})

	t.Run("negative to zero or below deletes", func(t *testing.T) {
		s, _ := newTestStore(t)
		seed(t, s, map[string]int{"pear": 5})

		rec, err := s.Add("pear", -9)
		require.NoError(t, err)
		assert.True(t, rec.Removed)
		assert.Equal(t, 0, rec.Current)
		_, err = s.Quantity("pear")
		assert.ErrorIs(t, err, ErrNotFound)

		// a brand new item with a negative quantity never appears
		_, err = s.Add("fig", -1)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, err := s.Add("", 1)
		assert.ErrorIs(t, err, ErrInvalidItem)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("invalid UTF-8 name is rejected", func(t *testing.T) {
		s, _ := newTestStore(t)
		seed(t, s, map[string]int{"\uFFFD": 1})

		_, err := s.Add("\xff", 2)
		assert.ErrorIs(t, err, ErrInvalidItem)
		_, err = s.Remove("\xff", 1)
		assert.ErrorIs(t, err, ErrInvalidItem)
		_, err = s.Quantity("\xff")
		assert.ErrorIs(t, err, ErrInvalidItem)

		// the replacement character entry is a different, untouched item
		assert.Equal(t, map[string]int{"\uFFFD": 1}, s.snapshot())
	})

	t.Run("overflow is rejected", func(t *testing.T) {
		s, _ := newTestStore(t)
		seed(t, s, map[string]int{"big": math.MaxInt - 1})

		_, err := s.Add("big", 2)
		assert.ErrorIs(t, err, ErrQuantityOverflow)
		qty, _ := s.Quantity("big")
		assert.Equal(t, math.MaxInt-1, qty)
	})
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		qty       int
		wantQty   int
		wantGone  bool
		wantInLog string
	}{
		{name: "partial", start: 10, qty: 4, wantQty: 6, wantInLog: "Removed 4 of widget; new qty=6"},
		{name: "exact", start: 10, qty: 10, wantGone: true, wantInLog: "Item 'widget' removed from inventory (qty <= 0 after removal)"},
		{name: "more than stock", start: 3, qty: 8, wantGone: true, wantInLog: "removed from inventory"},
		{name: "negative increases", start: 3, qty: -2, wantQty: 5, wantInLog: "Removed -2 of widget; new qty=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, logs := newTestStore(t)
			seed(t, s, map[string]int{"widget": tt.start})

			rec, err := s.Remove("widget", tt.qty)
			require.NoError(t, err)
			assert.Equal(t, OpRemove, rec.Op)
			assert.Equal(t, tt.start, rec.Previous)
			assert.Equal(t, tt.wantGone, rec.Removed)
			assert.Contains(t, logs.String(), tt.wantInLog)

			qty, err := s.Quantity("widget")
			if tt.wantGone {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQty, qty)
		})
	}

	t.Run("empty name is a validation error", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, err := s.Remove("", 1)
		assert.ErrorIs(t, err, ErrValidation)
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("overflow is rejected", func(t *testing.T) {
		s, _ := newTestStore(t)
		seed(t, s, map[string]int{"big": math.MaxInt - 1})

		_, err := s.Remove("big", -2)
		assert.ErrorIs(t, err, ErrQuantityOverflow)
	})
}

func TestPositiveInvariant(t *testing.T) {
	s, _ := newTestStore(t)
	ops := []struct {
		remove bool
		item   string
		qty    int
	}{
		{false, "a", 3}, {false, "b", 1}, {true, "a", 1}, {false, "b", -1},
		{false, "c", 8}, {true, "c", 20}, {false, "a", -1}, {true, "a", -5},
		{false, "d", 2}, {false, "d", 0}, {true, "d", 1},
	}

	for _, op := range ops {
		if op.remove {
			_, _ = s.Remove(op.item, op.qty)
		} else {
			_, _ = s.Add(op.item, op.qty)
		}
		for _, it := range s.Items() {
			assert.Positive(t, it.Quantity, "item %s", it.Name)
		}
	}
}

func TestQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, map[string]int{"bolt": 12})

	qty, err := s.Quantity("bolt")
	require.NoError(t, err)
	assert.Equal(t, 12, qty)

	_, err = s.Quantity("nut")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Quantity("")
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestBelowThreshold(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, map[string]int{"a": 1, "b": 4, "c": 5, "d": 6, "e": 100})

	assert.Equal(t, []string{"a", "b"}, s.BelowThreshold(DefaultThreshold))
	assert.Equal(t, []string{}, s.BelowThreshold(1))
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.BelowThreshold(7))
	assert.Equal(t, []string{}, s.BelowThreshold(-3))

	// an item is listed iff its quantity is strictly below the threshold
	for threshold := -1; threshold <= 101; threshold++ {
		listed := make(map[string]bool)
		for _, name := range s.BelowThreshold(threshold) {
			listed[name] = true
		}
		for _, it := range s.Items() {
			assert.Equal(t, it.Quantity < threshold, listed[it.Name], "threshold %d item %s", threshold, it.Name)
		}
	}
}

func TestObserver(t *testing.T) {
	var seen []Record
	s, _ := newTestStore(t, WithObserver(func(r Record) {
		seen = append(seen, r)
	}))

	_, err := s.Add("apple", 10)
	require.NoError(t, err)
	_, err = s.Remove("apple", 10)
	require.NoError(t, err)
	_, err = s.Add("apple", 0)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, OpAdd, seen[0].Op)
	assert.Equal(t, OpRemove, seen[1].Op)
	assert.True(t, seen[1].Removed)
}

func TestRecordString(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "add",
			rec:  Record{Time: testTime, Op: OpAdd, Item: "apple", Delta: 10, Previous: 0, Current: 10},
			want: "2024-05-01T12:30:00.000000Z: Added 10 of apple (prev=0, now=10)",
		},
		{
			name: "add that empties",
			rec:  Record{Time: testTime, Op: OpAdd, Item: "apple", Delta: -4, Previous: 3, Removed: true},
			want: "2024-05-01T12:30:00.000000Z: Added -4 of apple (prev=3, now=-1); removed from inventory",
		},
		{
			name: "remove",
			rec:  Record{Time: testTime, Op: OpRemove, Item: "apple", Delta: 3, Previous: 10, Current: 7},
			want: "2024-05-01T12:30:00.000000Z: Removed 3 of apple; new qty=7",
		},
		{
			name: "remove that empties",
			rec:  Record{Time: testTime, Op: OpRemove, Item: "apple", Delta: 7, Previous: 7, Removed: true},
			want: "2024-05-01T12:30:00.000000Z: Item 'apple' removed from inventory (qty <= 0 after removal)",
		},
		{
			name: "noop",
			rec:  Record{Time: testTime, Op: OpNoop, Item: "apple", Previous: 7, Current: 7},
			want: "2024-05-01T12:30:00.000000Z: No change to apple (qty=7)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.String())
		})
	}
}

func TestAddLogsRecord(t *testing.T) {
	s, logs := newTestStore(t)

	_, err := s.Add("apple", 10)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "[inventory] [INFO] 2024-05-01T12:30:00.000000Z: Added 10 of apple (prev=0, now=10)")
}

func TestPrint(t *testing.T) {
	s, _ := newTestStore(t)
	seed(t, s, map[string]int{"pear": 2, "apple": 7, "Zucchini": 1})

	var out bytes.Buffer
	require.NoError(t, s.Print(&out))

	want := strings.Join([]string{
		"Items Report",
		"Zucchini -> 1",
		"apple -> 7",
		"pear -> 2",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())
}

func TestPrintEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	var out bytes.Buffer
	require.NoError(t, s.Print(&out))
	assert.Equal(t, "Items Report\n", out.String())
}
