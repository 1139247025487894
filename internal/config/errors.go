package config

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidScene  = errors.New("invalid scene file")
)
