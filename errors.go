package chainmap

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the root of all construction errors.
	ErrInvalidArgument = errors.New("chainmap: invalid argument")

	// ErrInvalidCapacity is returned when the initial capacity is not positive.
	ErrInvalidCapacity = fmt.Errorf("%w: capacity must be > 0", ErrInvalidArgument)

	// ErrInvalidLoadFactor is returned when the load factor is not a finite
	// positive number.
	ErrInvalidLoadFactor = fmt.Errorf("%w: load factor must be > 0", ErrInvalidArgument)

	// ErrNotCopyable is returned by Snapshot when a value cannot be deep
	// copied, for example because it holds unexported struct fields.
	ErrNotCopyable = errors.New("chainmap: value cannot be deep copied")
)
