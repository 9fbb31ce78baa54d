package farm

import "errors"

var (
	ErrFarmNotFound      = errors.New("farm not found")
	ErrNotConnected      = errors.New("wallet not connected")
	ErrNotLoaded         = errors.New("not loaded")
	ErrQuoteFarmMismatch = errors.New("quote belongs to a different farm")
	// ErrEmptyRead is a read that returned neither a value nor an error.
	ErrEmptyRead = errors.New("read returned no value")
)
