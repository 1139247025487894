package geometry

import "errors"

var (
	ErrInvertedRectangle = errors.New("rectangle corners are inverted")
	ErrNegativeSize      = errors.New("rectangle size must not be negative")
	ErrNonFinite         = errors.New("coordinates must be finite")
)
