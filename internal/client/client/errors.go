package client

import "errors"

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
