package layout

import "fmt"

// Kind names the shape of a value for alignment queries.
type Kind int

const (
	KindScalar Kind = iota
	KindVec2
	KindVec3
	KindVec4
	KindMat4
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindVec4:
		return "vec4"
	case KindMat4:
		return "mat4"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Align returns the alignment of a single value of kind k.
func Align(k Kind) int {
	switch k {
	case KindScalar:
		return scalarSize
	case KindVec2:
		return vec2Size
	case KindVec3, KindVec4, KindMat4:
		return vec4Size
	}
	panic(fmt.Sprintf("layout: unknown kind %d", int(k)))
}

// ArrayStride returns the distance between consecutive array elements of kind k.
// Padded mode rounds scalars and 2-vectors up to a full 16-byte slot.
func (m Mode) ArrayStride(k Kind) int {
	switch k {
	case KindScalar, KindVec2:
		if m == ModeStd140 {
			return vec4Size
		}
		return Align(k)
	case KindVec3, KindVec4:
		return vec4Size
	case KindMat4:
		return mat4Size
	}
	panic(fmt.Sprintf("layout: unknown kind %d", int(k)))
}

// ArrayAlign returns the start alignment of an array of kind k.
func (m Mode) ArrayAlign(k Kind) int {
	if m == ModeStd140 {
		return vec4Size
	}
	return Align(k)
}

// AlignUp rounds v up to the next multiple of align.
func AlignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}
