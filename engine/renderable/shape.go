package renderable

import "fmt"

// DrawShape is the draw entry point a Renderable dispatches to.
type DrawShape int

const (
	// ShapeArray draws vertices straight from the bound vertex array.
	ShapeArray DrawShape = iota
	// ShapeElements draws through an element buffer.
	ShapeElements
	// ShapeIndirectArray issues a batch of array draws read from an indirect buffer.
	ShapeIndirectArray
	// ShapeIndirectElements issues a batch of indexed draws read from an indirect buffer.
	ShapeIndirectElements
)

// shapes is indexed by [hasElements][hasIndirect].
var shapes = [2][2]DrawShape{
	{ShapeArray, ShapeIndirectArray},
	{ShapeElements, ShapeIndirectElements},
}

func index(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SelectShape picks the draw shape for the attached buffers. An indirect buffer always
// wins over a direct draw; an element buffer picks the indexed variant.
func SelectShape(hasElements, hasIndirect bool) DrawShape {
	return shapes[index(hasElements)][index(hasIndirect)]
}

// Indexed reports whether the shape reads an element buffer.
func (s DrawShape) Indexed() bool {
	return s == ShapeElements || s == ShapeIndirectElements
}

// Indirect reports whether the shape reads an indirect buffer.
func (s DrawShape) Indirect() bool {
	return s == ShapeIndirectArray || s == ShapeIndirectElements
}

func (s DrawShape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeElements:
		return "elements"
	case ShapeIndirectArray:
		return "indirect-array"
	case ShapeIndirectElements:
		return "indirect-elements"
	}
	return fmt.Sprintf("DrawShape(%d)", int(s))
}
