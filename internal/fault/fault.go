// Package fault defines the sentinel errors callers match with errors.Is.
package fault

import "errors"

var (
	// Configuration errors.
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrFrameOutOfRange  = errors.New("frame index out of range")
	ErrInvalidInput     = errors.New("invalid input array")

	// Resource errors.
	ErrInvalidWorkers = errors.New("invalid worker count")

	// Numeric failure inside the per-pixel pipeline.
	ErrNumeric = errors.New("numeric failure")

	// Boundary IO.
	ErrReadFailure  = errors.New("read failure")
	ErrWriteFailure = errors.New("write failure")
)
