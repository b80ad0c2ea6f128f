package layout

// CacheBuilderOption is a functional option for configuring a Cache.
type CacheBuilderOption func(*cacheImpl)

// WithCapacity preallocates capacity bytes so small caches never grow.
//
// Parameters:
//   - capacity: initial arena size in bytes
//
// Returns:
//   - CacheBuilderOption: option function to apply
func WithCapacity(capacity int) CacheBuilderOption {
	return func(c *cacheImpl) {
		if capacity > 0 {
			c.data = make([]byte, capacity)
		}
	}
}

// WithSink sets the function receiving write-through ranges after Commit.
//
// Parameters:
//   - sink: the receiver of written ranges
//
// Returns:
//   - CacheBuilderOption: option function to apply
func WithSink(sink Sink) CacheBuilderOption {
	return func(c *cacheImpl) {
		c.sink = sink
	}
}

// WriteOption adjusts a single write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	offset   int
	explicit bool
	through  bool
}

// At writes at an explicit byte offset instead of appending.
// The cursor does not move and no position is recorded.
//
// Parameters:
//   - offset: destination byte offset
//
// Returns:
//   - WriteOption: option function to apply
func At(offset int) WriteOption {
	return func(w *writeConfig) {
		w.offset = offset
		w.explicit = true
	}
}

// Through pushes the written range to the cache's sink as well.
//
// Returns:
//   - WriteOption: option function to apply
func Through() WriteOption {
	return func(w *writeConfig) {
		w.through = true
	}
}

func resolve(opts []WriteOption) writeConfig {
	var w writeConfig
	for _, opt := range opts {
		opt(&w)
	}
	return w
}
