package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoData       = errors.New("no data")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStale        = errors.New("superseded by newer refresh")
	ErrLockHeld     = errors.New("lock already held")
)
