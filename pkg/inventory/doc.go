// Package inventory keeps named item quantities in memory and persists them
// to a flat file.
//
// A Store is an explicit object owned by the caller. Every stored quantity is
// strictly positive: an Add or Remove that would leave an item at zero or
// below deletes it instead.
//
// Persistence problems never reach the caller as errors:
//
//   - Load never returns an error. A missing, unreadable or malformed file
//     leaves the in-memory state untouched and is reported through the logger
//     and the returned Outcome.
//   - Save never returns an error either. Failures are logged and reported as
//     OutcomeFailed.
//
// Validation failures (ErrValidation) and missing items (ErrNotFound) are
// ordinary errors; branch on them with errors.Is.
//
// Files are JSON objects of item name to quantity, written with sorted keys
// and two-space indentation:
//
//	{
//	  "apple": 7,
//	  "pear": 2
//	}
//
// Paths ending in .yaml or .yml use the equivalent YAML mapping instead.
package inventory
