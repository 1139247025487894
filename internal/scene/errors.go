package scene

import "errors"

var (
	ErrLastConductor    = errors.New("cannot remove the last conductor")
	ErrUnknownDirection = errors.New("unknown pan direction")
)
