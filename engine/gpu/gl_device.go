package gpu

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// GLDevice is a Device backed by an OpenGL 4.6 core context using direct state access.
type GLDevice interface {
	Device
	ProgramCompiler
}

type glDeviceImpl struct {
	clearColor [4]float32
	labels     bool

	width  int
	height int

	sizes    map[BufferID]int
	arrays   map[VertexArrayID]struct{}
	programs map[ProgramID]struct{}
}

var _ GLDevice = &glDeviceImpl{}

// NewGLDevice loads the OpenGL entry points for the context current on the calling thread.
// The context must stay current on that thread for the device's lifetime.
//
// Parameters:
//   - options: functional options applied after the defaults
//
// Returns:
//   - GLDevice: the new device
//   - error: an error if the GL entry points could not be loaded
func NewGLDevice(options ...GLDeviceOption) (GLDevice, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d := &glDeviceImpl{
		clearColor: [4]float32{0.02, 0.02, 0.05, 1},
		sizes:      make(map[BufferID]int),
		arrays:     make(map[VertexArrayID]struct{}),
		programs:   make(map[ProgramID]struct{}),
	}
	for _, opt := range options {
		opt(d)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	common.Logger().Info("gpu: OpenGL device created", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	return d, nil
}

func (d *glDeviceImpl) Name() string { return "gl" }

func (d *glDeviceImpl) Capabilities() Capabilities {
	return Capabilities{Uint8Indices: true, BaseInstance: true, MultiDrawIndirect: true}
}

func (d *glDeviceImpl) label(kind uint32, id uint32, label string) {
	if !d.labels || label == "" {
		return
	}
	gl.ObjectLabel(kind, id, int32(len(label)), gl.Str(label+"\x00"))
}

func (d *glDeviceImpl) checkRange(op string, id BufferID, offset, size int) {
	limit, ok := d.sizes[id]
	if !ok {
		panic(fmt.Sprintf("gpu: %s on unknown buffer %d", op, id))
	}
	checkRange(op, offset, size, limit)
}

func (d *glDeviceImpl) CreateBuffer(label string, usage BufferUsage) BufferID {
	var id uint32
	gl.CreateBuffers(1, &id)
	d.label(gl.BUFFER, id, label)
	d.sizes[BufferID(id)] = 0
	return BufferID(id)
}

func (d *glDeviceImpl) BufferStorage(id BufferID, size int) {
	// Mutable storage: Allocate may be called again on the same buffer.
	gl.NamedBufferData(uint32(id), size, nil, gl.DYNAMIC_DRAW)
	if size > 0 {
		gl.ClearNamedBufferData(uint32(id), gl.R8UI, gl.RED_INTEGER, gl.UNSIGNED_BYTE, nil)
	}
	d.sizes[id] = size
}

func (d *glDeviceImpl) BufferSubData(id BufferID, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	d.checkRange("BufferSubData", id, offset, len(data))
	gl.NamedBufferSubData(uint32(id), offset, len(data), gl.Ptr(data))
}

func (d *glDeviceImpl) MapBufferRange(id BufferID, offset, size int, access MapAccess) []byte {
	d.checkRange("MapBufferRange", id, offset, size)
	ptr := gl.MapNamedBufferRange(uint32(id), offset, size, glMapAccess(access))
	if ptr == nil {
		panic(fmt.Sprintf("gpu: MapBufferRange failed for buffer %d [%d, %d)", id, offset, offset+size))
	}
	return unsafe.Slice((*byte)(ptr), size)
}

func (d *glDeviceImpl) UnmapBuffer(id BufferID) {
	gl.UnmapNamedBuffer(uint32(id))
}

func (d *glDeviceImpl) GetBufferSubData(id BufferID, offset int, dst []byte) {
	if len(dst) == 0 {
		return
	}
	d.checkRange("GetBufferSubData", id, offset, len(dst))
	gl.GetNamedBufferSubData(uint32(id), offset, len(dst), gl.Ptr(dst))
}

func (d *glDeviceImpl) ClearBuffer(id BufferID) {
	gl.ClearNamedBufferData(uint32(id), gl.R8UI, gl.RED_INTEGER, gl.UNSIGNED_BYTE, nil)
}

func (d *glDeviceImpl) DeleteBuffer(id BufferID) {
	raw := uint32(id)
	gl.DeleteBuffers(1, &raw)
	delete(d.sizes, id)
}

func (d *glDeviceImpl) CreateVertexArray(label string) VertexArrayID {
	var id uint32
	gl.CreateVertexArrays(1, &id)
	d.label(gl.VERTEX_ARRAY, id, label)
	d.arrays[VertexArrayID(id)] = struct{}{}
	return VertexArrayID(id)
}

func (d *glDeviceImpl) VertexArrayVertexBuffer(vao VertexArrayID, slot uint32, buf BufferID, offset, stride int) {
	gl.VertexArrayVertexBuffer(uint32(vao), slot, uint32(buf), offset, int32(stride))
}

func (d *glDeviceImpl) VertexArrayAttribFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, normalized bool, relOffset int) {
	gl.VertexArrayAttribFormat(uint32(vao), attrib, int32(count), glScalarType(typ), normalized, uint32(relOffset))
}

func (d *glDeviceImpl) VertexArrayAttribIFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, relOffset int) {
	gl.VertexArrayAttribIFormat(uint32(vao), attrib, int32(count), glScalarType(typ), uint32(relOffset))
}

func (d *glDeviceImpl) VertexArrayAttribBinding(vao VertexArrayID, attrib, slot uint32) {
	gl.VertexArrayAttribBinding(uint32(vao), attrib, slot)
}

func (d *glDeviceImpl) VertexArrayBindingDivisor(vao VertexArrayID, slot, divisor uint32) {
	gl.VertexArrayBindingDivisor(uint32(vao), slot, divisor)
}

func (d *glDeviceImpl) EnableVertexArrayAttrib(vao VertexArrayID, attrib uint32) {
	gl.EnableVertexArrayAttrib(uint32(vao), attrib)
}

func (d *glDeviceImpl) BindVertexArray(vao VertexArrayID) {
	gl.BindVertexArray(uint32(vao))
}

func (d *glDeviceImpl) DeleteVertexArray(vao VertexArrayID) {
	raw := uint32(vao)
	gl.DeleteVertexArrays(1, &raw)
	delete(d.arrays, vao)
}

func (d *glDeviceImpl) BindElementBuffer(buf BufferID) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(buf))
}

func (d *glDeviceImpl) BindIndirectBuffer(buf BufferID) {
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, uint32(buf))
}

func (d *glDeviceImpl) UseProgram(p ProgramID) {
	gl.UseProgram(uint32(p))
}

func (d *glDeviceImpl) BindProgramPipeline(p ProgramID) {
	gl.BindProgramPipeline(uint32(p))
}

func (d *glDeviceImpl) DrawArrays(mode Topology, first, count, instances int, baseInstance uint32) {
	gl.DrawArraysInstancedBaseInstance(glTopology(mode), int32(first), int32(count), int32(instances), baseInstance)
}

func (d *glDeviceImpl) DrawElements(mode Topology, count int, typ IndexType, byteOffset, instances, baseVertex int, baseInstance uint32) {
	gl.DrawElementsInstancedBaseVertexBaseInstance(glTopology(mode), int32(count), glIndexType(typ),
		gl.PtrOffset(byteOffset), int32(instances), int32(baseVertex), baseInstance)
}

func (d *glDeviceImpl) DrawArraysIndirect(mode Topology, byteOffset, drawCount, stride int) {
	gl.MultiDrawArraysIndirect(glTopology(mode), gl.PtrOffset(byteOffset), int32(drawCount), int32(stride))
}

func (d *glDeviceImpl) DrawElementsIndirect(mode Topology, typ IndexType, byteOffset, drawCount, stride int) {
	gl.MultiDrawElementsIndirect(glTopology(mode), glIndexType(typ), gl.PtrOffset(byteOffset), int32(drawCount), int32(stride))
}

func (d *glDeviceImpl) BeginFrame() error {
	if d.width > 0 && d.height > 0 {
		gl.Viewport(0, 0, int32(d.width), int32(d.height))
	}
	c := d.clearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return nil
}

// EndFrame is a no-op; the window owning the context swaps buffers.
func (d *glDeviceImpl) EndFrame() {}

func (d *glDeviceImpl) Resize(width, height int) {
	d.width, d.height = width, height
}

func (d *glDeviceImpl) CheckError() error {
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
		return nil
	case gl.INVALID_OPERATION:
		return ErrInvalidOperation
	case gl.INVALID_VALUE, gl.INVALID_ENUM:
		return fmt.Errorf("gl error 0x%04x: %w", code, ErrInvalidHandle)
	case gl.OUT_OF_MEMORY:
		return ErrOutOfMemory
	default:
		return fmt.Errorf("gpu: gl error 0x%04x", code)
	}
}

func (d *glDeviceImpl) Release() {
	for id := range d.sizes {
		d.DeleteBuffer(id)
	}
	for id := range d.arrays {
		d.DeleteVertexArray(id)
	}
	for id := range d.programs {
		d.DeleteProgram(id)
	}
}

func (d *glDeviceImpl) CompileProgram(src ProgramSource) (ProgramID, error) {
	vs, err := compileGLShader(gl.VERTEX_SHADER, src.Vertex)
	if err != nil {
		return 0, fmt.Errorf("program %q vertex stage: %w", src.Label, err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileGLShader(gl.FRAGMENT_SHADER, src.Fragment)
	if err != nil {
		return 0, fmt.Errorf("program %q fragment stage: %w", src.Label, err)
	}
	defer gl.DeleteShader(fs)

	handle := gl.CreateProgram()
	gl.AttachShader(handle, vs)
	gl.AttachShader(handle, fs)
	gl.LinkProgram(handle)
	gl.DetachShader(handle, vs)
	gl.DetachShader(handle, fs)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return 0, fmt.Errorf("program %q failed to link: %s", src.Label, strings.TrimRight(msg, "\x00"))
	}
	d.label(gl.PROGRAM, handle, src.Label)
	d.programs[ProgramID(handle)] = struct{}{}
	common.Logger().Debug("gpu: program linked", "label", src.Label, "id", handle)
	return ProgramID(handle), nil
}

func (d *glDeviceImpl) DeleteProgram(p ProgramID) {
	gl.DeleteProgram(uint32(p))
	delete(d.programs, p)
}

func compileGLShader(kind uint32, src string) (uint32, error) {
	handle := gl.CreateShader(kind)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("failed to compile: %s", strings.TrimRight(msg, "\x00"))
	}
	return handle, nil
}

func glTopology(t Topology) uint32 {
	switch t {
	case TriangleStrip:
		return gl.TRIANGLE_STRIP
	case Lines:
		return gl.LINES
	case LineStrip:
		return gl.LINE_STRIP
	case Points:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func glScalarType(t ScalarType) uint32 {
	switch t {
	case Int32:
		return gl.INT
	case Uint32:
		return gl.UNSIGNED_INT
	case Int16:
		return gl.SHORT
	case Uint16:
		return gl.UNSIGNED_SHORT
	case Int8:
		return gl.BYTE
	case Uint8:
		return gl.UNSIGNED_BYTE
	default:
		return gl.FLOAT
	}
}

func glIndexType(t IndexType) uint32 {
	switch t {
	case IndexUint8:
		return gl.UNSIGNED_BYTE
	case IndexUint16:
		return gl.UNSIGNED_SHORT
	default:
		return gl.UNSIGNED_INT
	}
}

func glMapAccess(a MapAccess) uint32 {
	var bits uint32
	if a.Has(MapRead) {
		bits |= gl.MAP_READ_BIT
	}
	if a.Has(MapWrite) {
		bits |= gl.MAP_WRITE_BIT
	}
	if a.Has(MapInvalidateRange) {
		bits |= gl.MAP_INVALIDATE_RANGE_BIT
	}
	if a.Has(MapInvalidateBuffer) {
		bits |= gl.MAP_INVALIDATE_BUFFER_BIT
	}
	return bits
}
