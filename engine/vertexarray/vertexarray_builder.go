package vertexarray

// AttributeOption adjusts a single attribute declaration.
type AttributeOption func(*attributeConfig)

type attributeConfig struct {
	divisor    uint32
	hasDivisor bool
	normalized bool
}

// WithDivisor makes the attribute's slot advance once every n instances.
// A divisor of 0 explicitly marks the slot as per-vertex.
//
// Parameters:
//   - n: instances per step
//
// Returns:
//   - AttributeOption: option function to apply
func WithDivisor(n uint32) AttributeOption {
	return func(c *attributeConfig) {
		c.divisor = n
		c.hasDivisor = true
	}
}

// WithNormalized maps integer data to [0,1] or [-1,1] instead of converting it directly.
//
// Returns:
//   - AttributeOption: option function to apply
func WithNormalized() AttributeOption {
	return func(c *attributeConfig) {
		c.normalized = true
	}
}

func resolve(opts []AttributeOption) attributeConfig {
	var c attributeConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
