package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the kind shared by every argument validation failure.
	ErrValidation = errors.New("invalid argument")

	// ErrNotFound is returned when an operation names an item the store does not hold.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidItem is returned for an empty or non-UTF-8 item name.
	ErrInvalidItem = fmt.Errorf("%w: item must be a non-empty name", ErrValidation)

	// ErrInvalidQuantity is returned when a quantity argument cannot be used.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be an integer", ErrValidation)

	// ErrInvalidThreshold is returned when a threshold argument cannot be used.
	ErrInvalidThreshold = fmt.Errorf("%w: threshold must be an integer", ErrValidation)

	// ErrQuantityOverflow is returned when a mutation would overflow int.
	ErrQuantityOverflow = fmt.Errorf("%w: quantity out of range", ErrValidation)
)

func notFound(item string) error {
	return fmt.Errorf("%w: '%s'", ErrNotFound, item)
}
