package service

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrExchangeFailed = errors.New("exchange_failed")
	ErrNotConnected   = errors.New("not_connected")
	ErrUpstream       = errors.New("upstream_error")
)
