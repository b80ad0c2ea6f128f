package gpu

import "fmt"

// ScalarType is the component type of vertex attribute data.
type ScalarType int

const (
	Float32 ScalarType = iota
	Int32
	Uint32
	Int16
	Uint16
	Int8
	Uint8
)

// Size returns the byte width of one component.
func (t ScalarType) Size() int {
	switch t {
	case Float32, Int32, Uint32:
		return 4
	case Int16, Uint16:
		return 2
	case Int8, Uint8:
		return 1
	}
	panic(fmt.Sprintf("gpu: unknown scalar type %d", int(t)))
}

// IsInteger reports whether the type holds integer data.
func (t ScalarType) IsInteger() bool {
	return t != Float32
}

func (t ScalarType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	}
	return fmt.Sprintf("ScalarType(%d)", int(t))
}

// Topology is the primitive assembly mode of a draw.
type Topology int

const (
	Triangles Topology = iota
	TriangleStrip
	Lines
	LineStrip
	Points
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle-strip"
	case Lines:
		return "lines"
	case LineStrip:
		return "line-strip"
	case Points:
		return "points"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// IndexType is the width of one element index.
type IndexType int

const (
	IndexUint8 IndexType = iota
	IndexUint16
	IndexUint32
)

// Size returns the byte width of one index.
func (t IndexType) Size() int {
	switch t {
	case IndexUint8:
		return 1
	case IndexUint16:
		return 2
	default:
		return 4
	}
}

func (t IndexType) String() string {
	switch t {
	case IndexUint8:
		return "uint8"
	case IndexUint16:
		return "uint16"
	case IndexUint32:
		return "uint32"
	}
	return fmt.Sprintf("IndexType(%d)", int(t))
}

// BufferUsage lists the roles a buffer is bound for. Backends without typed buffers ignore it.
type BufferUsage uint32

const (
	UsageVertex BufferUsage = 1 << iota
	UsageIndex
	UsageIndirect
	UsageUniform
	UsageStorage
)

// MapAccess selects how a mapped range may be used.
type MapAccess uint32

const (
	MapRead MapAccess = 1 << iota
	MapWrite
	// MapInvalidateRange lets the driver discard the previous contents of the mapped range.
	MapInvalidateRange
	// MapInvalidateBuffer lets the driver discard the previous contents of the whole buffer.
	MapInvalidateBuffer
)

// Has reports whether every bit of f is set.
func (a MapAccess) Has(f MapAccess) bool {
	return a&f == f
}
