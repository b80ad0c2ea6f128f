package gpu

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
)

const (
	// DrawArraysCommandSize is the byte size of one indirect array draw entry:
	// count, instanceCount, first, baseInstance.
	DrawArraysCommandSize = 16

	// DrawElementsCommandSize is the byte size of one indirect indexed draw entry:
	// count, instanceCount, firstIndex, baseVertex, baseInstance.
	DrawElementsCommandSize = 20
)

// Names of recorded calls.
const (
	OpCreateBuffer         = "CreateBuffer"
	OpBufferStorage        = "BufferStorage"
	OpBufferSubData        = "BufferSubData"
	OpMapBufferRange       = "MapBufferRange"
	OpUnmapBuffer          = "UnmapBuffer"
	OpGetBufferSubData     = "GetBufferSubData"
	OpClearBuffer          = "ClearBuffer"
	OpDeleteBuffer         = "DeleteBuffer"
	OpCreateVertexArray    = "CreateVertexArray"
	OpVertexBuffer         = "VertexArrayVertexBuffer"
	OpAttribFormat         = "VertexArrayAttribFormat"
	OpAttribIFormat        = "VertexArrayAttribIFormat"
	OpAttribBinding        = "VertexArrayAttribBinding"
	OpBindingDivisor       = "VertexArrayBindingDivisor"
	OpEnableAttrib         = "EnableVertexArrayAttrib"
	OpBindVertexArray      = "BindVertexArray"
	OpDeleteVertexArray    = "DeleteVertexArray"
	OpBindElementBuffer    = "BindElementBuffer"
	OpBindIndirectBuffer   = "BindIndirectBuffer"
	OpUseProgram           = "UseProgram"
	OpBindProgramPipeline  = "BindProgramPipeline"
	OpDrawArrays           = "DrawArrays"
	OpDrawElements         = "DrawElements"
	OpDrawArraysIndirect   = "DrawArraysIndirect"
	OpDrawElementsIndirect = "DrawElementsIndirect"
	OpBeginFrame           = "BeginFrame"
	OpEndFrame             = "EndFrame"
)

// Call is one recorded device call.
type Call struct {
	Op   string
	Args []int
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Op + "(" + strings.Join(parts, ", ") + ")"
}

// DrawStats accumulates the work submitted through draw calls.
type DrawStats struct {
	DrawCalls int
	Vertices  int
	Instances int
}

// SoftwareDevice is a Device that keeps buffer memory in process and records every call.
// Indirect draws are decoded from buffer memory, so batches are validated the way a driver
// would read them. It backs headless runs and tests.
type SoftwareDevice interface {
	Device

	// Trace returns a copy of every call recorded since the last ResetTrace.
	Trace() []Call

	// Ops returns the names of the recorded calls, optionally keeping only the given names.
	//
	// Parameters:
	//   - filter: call names to keep; empty keeps all
	//
	// Returns:
	//   - []string: call names in call order
	Ops(filter ...string) []string

	// ResetTrace clears the recorded calls and draw statistics.
	ResetTrace()

	// Stats returns the draw statistics gathered since the last ResetTrace.
	Stats() DrawStats

	// BufferBytes returns a copy of a buffer's storage, or nil for an unknown buffer.
	BufferBytes(id BufferID) []byte

	// VertexArray returns a snapshot of a vertex array's recorded state.
	VertexArray(id VertexArrayID) (VertexArrayState, bool)

	// LiveBuffers returns the number of buffers not yet deleted.
	LiveBuffers() int

	// LiveVertexArrays returns the number of vertex arrays not yet deleted.
	LiveVertexArrays() int

	// CurrentProgram returns the active program and whether it was bound as a pipeline.
	CurrentProgram() (ProgramID, bool)
}

type swBuffer struct {
	label   string
	usage   BufferUsage
	data    []byte
	mapped  bool
	mapOff  int
	mapSize int
}

type softwareDeviceImpl struct {
	caps     Capabilities
	buffers  *handleTable[BufferID, *swBuffer]
	arrays   *handleTable[VertexArrayID, *VertexArrayState]
	trace    []Call
	stats    DrawStats
	errs     []error
	vao      VertexArrayID
	element  BufferID
	indirect BufferID
	program  ProgramID
	pipeline bool
	inFrame  bool
}

var _ SoftwareDevice = &softwareDeviceImpl{}

// NewSoftwareDevice creates an in-process device.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - SoftwareDevice: the new device
func NewSoftwareDevice(options ...SoftwareDeviceOption) SoftwareDevice {
	d := &softwareDeviceImpl{
		caps: Capabilities{
			Uint8Indices:      true,
			BaseInstance:      true,
			MultiDrawIndirect: true,
		},
		buffers: newHandleTable[BufferID, *swBuffer](),
		arrays:  newHandleTable[VertexArrayID, *VertexArrayState](),
	}
	for _, opt := range options {
		opt(d)
	}
	common.Logger().Info("gpu: software device created", "uint8Indices", d.caps.Uint8Indices)
	return d
}

func (d *softwareDeviceImpl) record(op string, args ...int) {
	d.trace = append(d.trace, Call{Op: op, Args: args})
}

func (d *softwareDeviceImpl) fail(err error, format string, args ...any) {
	d.errs = append(d.errs, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

func (d *softwareDeviceImpl) buffer(id BufferID, op string) *swBuffer {
	b, ok := d.buffers.get(id)
	if !ok {
		d.fail(ErrInvalidHandle, "%s: buffer %d", op, id)
		return nil
	}
	return b
}

func (d *softwareDeviceImpl) array(id VertexArrayID, op string) *VertexArrayState {
	a, ok := d.arrays.get(id)
	if !ok {
		d.fail(ErrInvalidHandle, "%s: vertex array %d", op, id)
		return nil
	}
	return a
}

func checkRange(op string, offset, size, limit int) {
	if offset < 0 || size < 0 || offset+size > limit {
		panic(fmt.Sprintf("gpu: %s range [%d, %d) outside storage of %d bytes", op, offset, offset+size, limit))
	}
}

func (d *softwareDeviceImpl) Name() string { return "software" }

func (d *softwareDeviceImpl) Capabilities() Capabilities { return d.caps }

func (d *softwareDeviceImpl) CreateBuffer(label string, usage BufferUsage) BufferID {
	id := d.buffers.add(&swBuffer{label: label, usage: usage})
	d.record(OpCreateBuffer, int(id))
	return id
}

func (d *softwareDeviceImpl) BufferStorage(id BufferID, size int) {
	d.record(OpBufferStorage, int(id), size)
	b := d.buffer(id, OpBufferStorage)
	if b == nil {
		return
	}
	if size < 0 {
		panic(fmt.Sprintf("gpu: BufferStorage negative size %d", size))
	}
	b.data = make([]byte, size)
	b.mapped = false
}

func (d *softwareDeviceImpl) BufferSubData(id BufferID, offset int, data []byte) {
	d.record(OpBufferSubData, int(id), offset, len(data))
	b := d.buffer(id, OpBufferSubData)
	if b == nil {
		return
	}
	checkRange(OpBufferSubData, offset, len(data), len(b.data))
	copy(b.data[offset:], data)
}

func (d *softwareDeviceImpl) MapBufferRange(id BufferID, offset, size int, access MapAccess) []byte {
	d.record(OpMapBufferRange, int(id), offset, size, int(access))
	b := d.buffer(id, OpMapBufferRange)
	if b == nil {
		return nil
	}
	if b.mapped {
		panic(fmt.Sprintf("gpu: buffer %d (%s) is already mapped", id, b.label))
	}
	checkRange(OpMapBufferRange, offset, size, len(b.data))
	b.mapped, b.mapOff, b.mapSize = true, offset, size
	return b.data[offset : offset+size : offset+size]
}

func (d *softwareDeviceImpl) UnmapBuffer(id BufferID) {
	d.record(OpUnmapBuffer, int(id))
	b := d.buffer(id, OpUnmapBuffer)
	if b == nil {
		return
	}
	if !b.mapped {
		d.fail(ErrInvalidOperation, "UnmapBuffer: buffer %d is not mapped", id)
		return
	}
	b.mapped = false
}

func (d *softwareDeviceImpl) GetBufferSubData(id BufferID, offset int, dst []byte) {
	d.record(OpGetBufferSubData, int(id), offset, len(dst))
	b := d.buffer(id, OpGetBufferSubData)
	if b == nil {
		return
	}
	checkRange(OpGetBufferSubData, offset, len(dst), len(b.data))
	copy(dst, b.data[offset:])
}

func (d *softwareDeviceImpl) ClearBuffer(id BufferID) {
	d.record(OpClearBuffer, int(id))
	b := d.buffer(id, OpClearBuffer)
	if b == nil {
		return
	}
	clear(b.data)
}

func (d *softwareDeviceImpl) DeleteBuffer(id BufferID) {
	d.record(OpDeleteBuffer, int(id))
	if !d.buffers.remove(id) {
		d.fail(ErrInvalidHandle, "DeleteBuffer: buffer %d", id)
	}
	if d.element == id {
		d.element = 0
	}
	if d.indirect == id {
		d.indirect = 0
	}
}

func (d *softwareDeviceImpl) CreateVertexArray(label string) VertexArrayID {
	id := d.arrays.add(newVertexArrayState(label))
	d.record(OpCreateVertexArray, int(id))
	return id
}

func (d *softwareDeviceImpl) VertexArrayVertexBuffer(vao VertexArrayID, slot uint32, buf BufferID, offset, stride int) {
	d.record(OpVertexBuffer, int(vao), int(slot), int(buf), offset, stride)
	a := d.array(vao, OpVertexBuffer)
	if a == nil {
		return
	}
	if buf != 0 {
		b := d.buffer(buf, OpVertexBuffer)
		if b == nil {
			return
		}
		if len(b.data) == 0 {
			panic(fmt.Sprintf("gpu: buffer %d (%s) bound to slot %d before storage was allocated", buf, b.label, slot))
		}
	}
	bind := a.Bindings[slot]
	bind.Buffer, bind.Offset, bind.Stride = buf, offset, stride
	a.Bindings[slot] = bind
}

func (d *softwareDeviceImpl) VertexArrayAttribFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, normalized bool, relOffset int) {
	d.record(OpAttribFormat, int(vao), int(attrib), count, int(typ), boolInt(normalized), relOffset)
	d.setFormat(vao, attrib, count, typ, false, normalized, relOffset)
}

func (d *softwareDeviceImpl) VertexArrayAttribIFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, relOffset int) {
	d.record(OpAttribIFormat, int(vao), int(attrib), count, int(typ), relOffset)
	if !typ.IsInteger() {
		panic(fmt.Sprintf("gpu: integer attribute %d declared with %s data", attrib, typ))
	}
	d.setFormat(vao, attrib, count, typ, true, false, relOffset)
}

func (d *softwareDeviceImpl) setFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, integer, normalized bool, relOffset int) {
	a := d.array(vao, OpAttribFormat)
	if a == nil {
		return
	}
	if count < 1 || count > 4 {
		panic(fmt.Sprintf("gpu: attribute %d component count %d outside 1-4", attrib, count))
	}
	at := a.Attribs[attrib]
	at.Count, at.Type, at.Integer, at.Normalized, at.RelOffset = count, typ, integer, normalized, relOffset
	a.Attribs[attrib] = at
}

func (d *softwareDeviceImpl) VertexArrayAttribBinding(vao VertexArrayID, attrib, slot uint32) {
	d.record(OpAttribBinding, int(vao), int(attrib), int(slot))
	a := d.array(vao, OpAttribBinding)
	if a == nil {
		return
	}
	at := a.Attribs[attrib]
	at.Slot = slot
	a.Attribs[attrib] = at
}

func (d *softwareDeviceImpl) VertexArrayBindingDivisor(vao VertexArrayID, slot, divisor uint32) {
	d.record(OpBindingDivisor, int(vao), int(slot), int(divisor))
	a := d.array(vao, OpBindingDivisor)
	if a == nil {
		return
	}
	bind := a.Bindings[slot]
	bind.Divisor = divisor
	a.Bindings[slot] = bind
}

func (d *softwareDeviceImpl) EnableVertexArrayAttrib(vao VertexArrayID, attrib uint32) {
	d.record(OpEnableAttrib, int(vao), int(attrib))
	a := d.array(vao, OpEnableAttrib)
	if a == nil {
		return
	}
	at := a.Attribs[attrib]
	at.Enabled = true
	a.Attribs[attrib] = at
}

func (d *softwareDeviceImpl) BindVertexArray(vao VertexArrayID) {
	d.record(OpBindVertexArray, int(vao))
	if vao != 0 && d.array(vao, OpBindVertexArray) == nil {
		return
	}
	d.vao = vao
}

func (d *softwareDeviceImpl) DeleteVertexArray(vao VertexArrayID) {
	d.record(OpDeleteVertexArray, int(vao))
	if !d.arrays.remove(vao) {
		d.fail(ErrInvalidHandle, "DeleteVertexArray: vertex array %d", vao)
	}
	if d.vao == vao {
		d.vao = 0
	}
}

func (d *softwareDeviceImpl) BindElementBuffer(buf BufferID) {
	d.record(OpBindElementBuffer, int(buf))
	if buf != 0 && d.buffer(buf, OpBindElementBuffer) == nil {
		return
	}
	d.element = buf
}

func (d *softwareDeviceImpl) BindIndirectBuffer(buf BufferID) {
	d.record(OpBindIndirectBuffer, int(buf))
	if buf != 0 && d.buffer(buf, OpBindIndirectBuffer) == nil {
		return
	}
	d.indirect = buf
}

func (d *softwareDeviceImpl) UseProgram(p ProgramID) {
	d.record(OpUseProgram, int(p))
	d.program, d.pipeline = p, false
}

func (d *softwareDeviceImpl) BindProgramPipeline(p ProgramID) {
	d.record(OpBindProgramPipeline, int(p))
	d.program, d.pipeline = p, p != 0
}

func (d *softwareDeviceImpl) DrawArrays(mode Topology, first, count, instances int, baseInstance uint32) {
	d.record(OpDrawArrays, int(mode), first, count, instances, int(baseInstance))
	d.stats.DrawCalls++
	d.stats.Vertices += count * instances
	d.stats.Instances += instances
}

func (d *softwareDeviceImpl) DrawElements(mode Topology, count int, typ IndexType, byteOffset, instances, baseVertex int, baseInstance uint32) {
	d.record(OpDrawElements, int(mode), count, int(typ), byteOffset, instances, baseVertex, int(baseInstance))
	elem := d.boundElements(OpDrawElements, typ)
	checkRange(OpDrawElements, byteOffset, count*typ.Size(), len(elem.data))
	d.stats.DrawCalls++
	d.stats.Vertices += count * instances
	d.stats.Instances += instances
}

func (d *softwareDeviceImpl) DrawArraysIndirect(mode Topology, byteOffset, drawCount, stride int) {
	d.record(OpDrawArraysIndirect, int(mode), byteOffset, drawCount, stride)
	if stride == 0 {
		stride = DrawArraysCommandSize
	}
	cmds := d.boundIndirect(OpDrawArraysIndirect)
	d.stats.DrawCalls++
	for i := 0; i < drawCount; i++ {
		off := byteOffset + i*stride
		checkRange(OpDrawArraysIndirect, off, DrawArraysCommandSize, len(cmds.data))
		count := int(binary.LittleEndian.Uint32(cmds.data[off:]))
		inst := int(binary.LittleEndian.Uint32(cmds.data[off+4:]))
		d.stats.Vertices += count * inst
		d.stats.Instances += inst
	}
}

func (d *softwareDeviceImpl) DrawElementsIndirect(mode Topology, typ IndexType, byteOffset, drawCount, stride int) {
	d.record(OpDrawElementsIndirect, int(mode), int(typ), byteOffset, drawCount, stride)
	if stride == 0 {
		stride = DrawElementsCommandSize
	}
	elem := d.boundElements(OpDrawElementsIndirect, typ)
	cmds := d.boundIndirect(OpDrawElementsIndirect)
	d.stats.DrawCalls++
	for i := 0; i < drawCount; i++ {
		off := byteOffset + i*stride
		checkRange(OpDrawElementsIndirect, off, DrawElementsCommandSize, len(cmds.data))
		count := int(binary.LittleEndian.Uint32(cmds.data[off:]))
		inst := int(binary.LittleEndian.Uint32(cmds.data[off+4:]))
		first := int(binary.LittleEndian.Uint32(cmds.data[off+8:]))
		checkRange(OpDrawElementsIndirect, first*typ.Size(), count*typ.Size(), len(elem.data))
		d.stats.Vertices += count * inst
		d.stats.Instances += inst
	}
}

func (d *softwareDeviceImpl) boundElements(op string, typ IndexType) *swBuffer {
	if d.element == 0 {
		panic(fmt.Sprintf("gpu: %s with no element buffer bound", op))
	}
	if typ == IndexUint8 && !d.caps.Uint8Indices {
		panic(fmt.Sprintf("gpu: %s with uint8 indices on a device without uint8 index support", op))
	}
	b, _ := d.buffers.get(d.element)
	return b
}

func (d *softwareDeviceImpl) boundIndirect(op string) *swBuffer {
	if d.indirect == 0 {
		panic(fmt.Sprintf("gpu: %s with no indirect buffer bound", op))
	}
	b, _ := d.buffers.get(d.indirect)
	return b
}

func (d *softwareDeviceImpl) BeginFrame() error {
	d.record(OpBeginFrame)
	if d.inFrame {
		return fmt.Errorf("gpu: BeginFrame: %w: previous frame not ended", ErrInvalidOperation)
	}
	d.inFrame = true
	return nil
}

func (d *softwareDeviceImpl) EndFrame() {
	d.record(OpEndFrame)
	d.inFrame = false
}

func (d *softwareDeviceImpl) Resize(width, height int) {}

func (d *softwareDeviceImpl) CheckError() error {
	if len(d.errs) == 0 {
		return nil
	}
	err := d.errs[0]
	d.errs = d.errs[1:]
	return err
}

func (d *softwareDeviceImpl) Release() {
	d.buffers = newHandleTable[BufferID, *swBuffer]()
	d.arrays = newHandleTable[VertexArrayID, *VertexArrayState]()
	d.vao, d.element, d.indirect, d.program = 0, 0, 0, 0
}

func (d *softwareDeviceImpl) Trace() []Call {
	out := make([]Call, len(d.trace))
	copy(out, d.trace)
	return out
}

func (d *softwareDeviceImpl) Ops(filter ...string) []string {
	keep := make(map[string]bool, len(filter))
	for _, f := range filter {
		keep[f] = true
	}
	out := make([]string, 0, len(d.trace))
	for _, c := range d.trace {
		if len(keep) == 0 || keep[c.Op] {
			out = append(out, c.Op)
		}
	}
	return out
}

func (d *softwareDeviceImpl) ResetTrace() {
	d.trace = nil
	d.stats = DrawStats{}
}

func (d *softwareDeviceImpl) Stats() DrawStats { return d.stats }

func (d *softwareDeviceImpl) BufferBytes(id BufferID) []byte {
	b, ok := d.buffers.get(id)
	if !ok {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (d *softwareDeviceImpl) VertexArray(id VertexArrayID) (VertexArrayState, bool) {
	a, ok := d.arrays.get(id)
	if !ok {
		return VertexArrayState{}, false
	}
	return a.clone(), true
}

func (d *softwareDeviceImpl) LiveBuffers() int { return d.buffers.len() }

func (d *softwareDeviceImpl) LiveVertexArrays() int { return d.arrays.len() }

func (d *softwareDeviceImpl) CurrentProgram() (ProgramID, bool) { return d.program, d.pipeline }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
