package buffer

import (
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
)

// BufferBuilderOption is a functional option for configuring a Buffer.
type BufferBuilderOption func(*bufferImpl)

// WithLabel sets the debug label of the buffer.
//
// Parameters:
//   - label: the label attached to the device object
//
// Returns:
//   - BufferBuilderOption: option function to apply
func WithLabel(label string) BufferBuilderOption {
	return func(b *bufferImpl) {
		b.label = label
	}
}

// WithUsage sets the roles the buffer is bound for. The default is gpu.UsageVertex.
//
// Parameters:
//   - usage: usage flags
//
// Returns:
//   - BufferBuilderOption: option function to apply
func WithUsage(usage gpu.BufferUsage) BufferBuilderOption {
	return func(b *bufferImpl) {
		b.usage = usage
	}
}

// WithMode sets the alignment mode for cache writes, fills and mapped writes.
// The default is layout.ModeStd430.
//
// Parameters:
//   - mode: the alignment mode
//
// Returns:
//   - BufferBuilderOption: option function to apply
func WithMode(mode layout.Mode) BufferBuilderOption {
	return func(b *bufferImpl) {
		b.mode = mode
	}
}

// WithCache puts the buffer in cache mode.
//
// Returns:
//   - BufferBuilderOption: option function to apply
func WithCache() BufferBuilderOption {
	return func(b *bufferImpl) {
		b.cached = true
	}
}

// WithSize allocates size bytes at construction. In direct mode this is the same as
// calling Allocate; in cache mode the storage is replaced by Complete.
//
// Parameters:
//   - size: storage size in bytes
//
// Returns:
//   - BufferBuilderOption: option function to apply
func WithSize(size int) BufferBuilderOption {
	return func(b *bufferImpl) {
		b.initSize = size
	}
}
