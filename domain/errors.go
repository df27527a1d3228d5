package domain

import "errors"

var (
	ErrInvalidHistory = errors.New("invalid event history")
	ErrVersionGap     = errors.New("event version does not follow snapshot version")
)
