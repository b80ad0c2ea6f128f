package gpu

import "errors"

var (
	// ErrInvalidHandle reports an operation on an identifier the device does not own.
	ErrInvalidHandle = errors.New("gpu: invalid handle")

	// ErrInvalidOperation reports a call that is not legal in the current state,
	// such as unmapping a buffer that is not mapped.
	ErrInvalidOperation = errors.New("gpu: invalid operation")

	// ErrUnsupported reports a feature the backend does not provide.
	ErrUnsupported = errors.New("gpu: unsupported")

	// ErrOutOfMemory reports a failed allocation.
	ErrOutOfMemory = errors.New("gpu: out of memory")
)
