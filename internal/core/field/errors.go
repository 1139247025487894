package field

import "errors"

var (
	ErrEmptyCollection    = errors.New("collection has no conductors")
	ErrDuplicateConductor = errors.New("conductor id already present")
	ErrConductorNotFound  = errors.New("conductor not found")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidAmperage    = errors.New("amperage must be finite")
	ErrInvalidPosition    = errors.New("conductor position must be finite")
)
