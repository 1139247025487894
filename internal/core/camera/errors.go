package camera

import "errors"

var (
	ErrInvalidZoom     = errors.New("zoom must be a positive finite number")
	ErrInvalidViewport = errors.New("viewport must have positive width and height")
)
