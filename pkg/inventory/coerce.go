package inventory

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// coerceQuantity converts a decoded value to an int. Integral numbers pass
// through, other finite numbers truncate toward zero, booleans count as 1
// and 0, and strings are parsed as base-10 integers after trimming
// surrounding whitespace. Everything else reports ok == false.
func coerceQuantity(v interface{}) (qty int, ok bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		if val < math.MinInt || val > math.MaxInt {
			return 0, false
		}
		return int(val), true
	case uint64:
		if val > math.MaxInt {
			return 0, false
		}
		return int(val), true
	case float64:
		return truncate(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return coerceQuantity(n)
		}
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < math.MinInt || t >= math.MaxInt {
		return 0, false
	}
	return int(t), true
}
