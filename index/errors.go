package index

import "errors"

// Error kinds for the index lifecycle (spec.md §7, "Index lifecycle").
var (
	ErrInvalidIndex     = errors.New("index: invalid index")
	ErrInvalidIndexPath = errors.New("index: invalid index path")
	ErrInvalidIndexName = errors.New("index: invalid index name")
	ErrInvalidIntent    = errors.New("index: invalid intent")
	ErrLockFailed       = errors.New("index: lock failed")
	ErrLockTimeout      = errors.New("index: lock timeout")
	ErrOpenFailed       = errors.New("index: open failed")
	ErrCreateFailed     = errors.New("index: create failed")
	ErrCloseFailed      = errors.New("index: close failed")
)
