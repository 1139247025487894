package sampler

import "errors"

var ErrInvalidResolution = errors.New("grid width and height must be positive")
