package repository

import "errors"

// Sentinel errors for repository operations.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrLocalNil     = errors.New("local data source is nil")
	ErrNetworkNil   = errors.New("network data source is nil")
)
