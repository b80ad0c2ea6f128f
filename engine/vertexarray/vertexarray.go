package vertexarray

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
)

// MatrixRowSize is the byte distance between the rows streamed by MatrixAttribute.
const MatrixRowSize = 16

// VertexArray wires buffer byte ranges to numbered shader attributes.
//
// Buffers are referenced by identifier only. A VertexArray never disposes the buffers
// bound to it.
//
// Per-instance attributes follow a fixed call order on the device: attribute format,
// attribute binding, enable, then the binding divisor. Rebinding a buffer to a slot
// re-applies that slot's divisor so the binding and its attributes always agree.
type VertexArray interface {
	// ID returns the device handle of the vertex array.
	ID() gpu.VertexArrayID

	// Label returns the debug label.
	Label() string

	// BindBuffer attaches a byte range of an allocated buffer to a binding slot.
	// It panics if the buffer has no storage yet.
	//
	// Parameters:
	//   - slot: the binding slot
	//   - buf: the buffer to read from
	//   - offset: byte offset of the first element
	//   - stride: byte distance between consecutive elements
	BindBuffer(slot uint32, buf buffer.Buffer, offset, stride int)

	// Attribute declares a floating point attribute read from a slot.
	// Integer data is converted to float, or normalized with WithNormalized.
	//
	// Parameters:
	//   - slot: the binding slot the attribute reads from
	//   - attrib: the shader attribute index
	//   - count: component count, 1 to 4
	//   - typ: scalar type of the stored data
	//   - relOffset: byte offset of the attribute inside one element
	//   - opts: attribute options
	Attribute(slot, attrib uint32, count int, typ gpu.ScalarType, relOffset int, opts ...AttributeOption)

	// AttributeI declares an attribute the shader reads as integers, with no conversion.
	// Packed positions and per-instance lookup indices use this path.
	//
	// Parameters:
	//   - slot: the binding slot the attribute reads from
	//   - attrib: the shader attribute index
	//   - count: component count, 1 to 4
	//   - typ: an integer scalar type
	//   - relOffset: byte offset of the attribute inside one element
	//   - opts: attribute options; WithNormalized is not allowed
	AttributeI(slot, attrib uint32, count int, typ gpu.ScalarType, relOffset int, opts ...AttributeOption)

	// MatrixAttribute declares four consecutive vec4 attributes holding the rows of a
	// 4x4 matrix, all read from one slot at 16-byte row spacing.
	//
	// Parameters:
	//   - slot: the binding slot, normally bound with a 64-byte stride
	//   - firstAttrib: the attribute index of row 0
	//   - divisor: instance divisor applied to the slot
	MatrixAttribute(slot, firstAttrib uint32, divisor uint32)

	// Divisor returns the divisor recorded for a slot and whether one was set.
	Divisor(slot uint32) (uint32, bool)

	// Bindings returns a snapshot of the recorded bindings and attributes.
	Bindings() gpu.VertexArrayState

	// Bind makes this vertex array current on the device.
	Bind()

	// Dispose deletes the vertex array. Calling it again does nothing.
	Dispose()
}

type vertexArrayImpl struct {
	device   gpu.Device
	id       gpu.VertexArrayID
	label    string
	state    gpu.VertexArrayState
	divisors map[uint32]uint32
	disposed bool
}

var _ VertexArray = &vertexArrayImpl{}

// New creates an empty vertex array on the device.
//
// Parameters:
//   - device: the device that owns the vertex array
//   - label: debug label
//
// Returns:
//   - VertexArray: the new vertex array
func New(device gpu.Device, label string) VertexArray {
	return &vertexArrayImpl{
		device: device,
		id:     device.CreateVertexArray(label),
		label:  label,
		state: gpu.VertexArrayState{
			Label:    label,
			Bindings: make(map[uint32]gpu.VertexBinding),
			Attribs:  make(map[uint32]gpu.VertexAttrib),
		},
		divisors: make(map[uint32]uint32),
	}
}

func (v *vertexArrayImpl) ID() gpu.VertexArrayID { return v.id }

func (v *vertexArrayImpl) Label() string { return v.label }

func (v *vertexArrayImpl) live(op string) {
	if v.disposed {
		panic(fmt.Sprintf("vertexarray: %s on disposed vertex array %q", op, v.label))
	}
}

func (v *vertexArrayImpl) BindBuffer(slot uint32, buf buffer.Buffer, offset, stride int) {
	v.live("BindBuffer")
	if buf.Size() == 0 {
		panic(fmt.Sprintf("vertexarray: buffer %q bound to slot %d of %q before it was allocated", buf.Label(), slot, v.label))
	}
	v.device.VertexArrayVertexBuffer(v.id, slot, buf.ID(), offset, stride)

	b := v.state.Bindings[slot]
	b.Buffer, b.Offset, b.Stride = buf.ID(), offset, stride
	if d, ok := v.divisors[slot]; ok {
		v.device.VertexArrayBindingDivisor(v.id, slot, d)
		b.Divisor = d
	}
	v.state.Bindings[slot] = b
}

func (v *vertexArrayImpl) Attribute(slot, attrib uint32, count int, typ gpu.ScalarType, relOffset int, opts ...AttributeOption) {
	v.live("Attribute")
	cfg := resolve(opts)
	v.device.VertexArrayAttribFormat(v.id, attrib, count, typ, cfg.normalized, relOffset)
	v.finish(slot, attrib, gpu.VertexAttrib{
		Slot:       slot,
		Count:      count,
		Type:       typ,
		Normalized: cfg.normalized,
		RelOffset:  relOffset,
	}, cfg)
}

func (v *vertexArrayImpl) AttributeI(slot, attrib uint32, count int, typ gpu.ScalarType, relOffset int, opts ...AttributeOption) {
	v.live("AttributeI")
	cfg := resolve(opts)
	if !typ.IsInteger() {
		panic(fmt.Sprintf("vertexarray: integer attribute %d of %q declared with %s", attrib, v.label, typ))
	}
	if cfg.normalized {
		panic(fmt.Sprintf("vertexarray: integer attribute %d of %q cannot be normalized", attrib, v.label))
	}
	v.device.VertexArrayAttribIFormat(v.id, attrib, count, typ, relOffset)
	v.finish(slot, attrib, gpu.VertexAttrib{
		Slot:      slot,
		Count:     count,
		Type:      typ,
		Integer:   true,
		RelOffset: relOffset,
	}, cfg)
}

// finish runs the binding, enable and divisor steps that follow an attribute format.
func (v *vertexArrayImpl) finish(slot, attrib uint32, a gpu.VertexAttrib, cfg attributeConfig) {
	if a.Count < 1 || a.Count > 4 {
		panic(fmt.Sprintf("vertexarray: attribute %d of %q has %d components, want 1-4", attrib, v.label, a.Count))
	}
	v.device.VertexArrayAttribBinding(v.id, attrib, slot)
	v.device.EnableVertexArrayAttrib(v.id, attrib)
	a.Enabled = true
	v.state.Attribs[attrib] = a

	if !cfg.hasDivisor {
		return
	}
	if prev, ok := v.divisors[slot]; ok && prev != cfg.divisor {
		panic(fmt.Sprintf("vertexarray: slot %d of %q already advances every %d instances, attribute %d asks for %d",
			slot, v.label, prev, attrib, cfg.divisor))
	}
	v.device.VertexArrayBindingDivisor(v.id, slot, cfg.divisor)
	v.divisors[slot] = cfg.divisor
	b := v.state.Bindings[slot]
	b.Divisor = cfg.divisor
	v.state.Bindings[slot] = b
}

func (v *vertexArrayImpl) MatrixAttribute(slot, firstAttrib uint32, divisor uint32) {
	for row := uint32(0); row < 4; row++ {
		v.Attribute(slot, firstAttrib+row, 4, gpu.Float32, int(row)*MatrixRowSize, WithDivisor(divisor))
	}
}

func (v *vertexArrayImpl) Divisor(slot uint32) (uint32, bool) {
	d, ok := v.divisors[slot]
	return d, ok
}

func (v *vertexArrayImpl) Bindings() gpu.VertexArrayState {
	out := gpu.VertexArrayState{
		Label:    v.state.Label,
		Bindings: make(map[uint32]gpu.VertexBinding, len(v.state.Bindings)),
		Attribs:  make(map[uint32]gpu.VertexAttrib, len(v.state.Attribs)),
	}
	for k, b := range v.state.Bindings {
		out.Bindings[k] = b
	}
	for k, a := range v.state.Attribs {
		out.Attribs[k] = a
	}
	return out
}

func (v *vertexArrayImpl) Bind() {
	v.live("Bind")
	v.device.BindVertexArray(v.id)
}

func (v *vertexArrayImpl) Dispose() {
	if v.disposed {
		return
	}
	v.device.DeleteVertexArray(v.id)
	v.disposed = true
	common.Logger().Debug("vertexarray: disposed", "label", v.label, "id", v.id)
}
