package render

import "errors"

var ErrUnknownShape = errors.New("unknown shape")
