package gpu

// BufferID identifies a buffer object in a Device's resource table. 0 means none.
type BufferID uint32

// VertexArrayID identifies a vertex array object. 0 means none.
type VertexArrayID uint32

// ProgramID identifies a linked shader program (or a program pipeline). 0 means none.
type ProgramID uint32

// Capabilities reports optional features of a Device.
type Capabilities struct {
	// Uint8Indices is true when 8-bit element indices can be drawn directly.
	Uint8Indices bool

	// BaseInstance is true when instanced draws honour a base-instance offset.
	BaseInstance bool

	// MultiDrawIndirect is true when one call can issue a whole indirect batch.
	// Devices without it loop over the batch themselves.
	MultiDrawIndirect bool
}

// Device is the GPU command and resource boundary used by the render core.
// Every method maps to one driver entry point. Handles are plain identifiers owned
// by the device; callers never hold driver objects directly.
//
// A Device is bound to the thread that created its context. Calls from other
// goroutines are not supported.
type Device interface {
	// Name returns a short backend name such as "gl", "wgpu" or "software".
	Name() string

	// Capabilities returns the optional features of this device.
	Capabilities() Capabilities

	// CreateBuffer creates an empty buffer object with no storage.
	//
	// Parameters:
	//   - label: debug label attached to the object
	//   - usage: the roles the buffer will be bound for
	//
	// Returns:
	//   - BufferID: the new buffer handle
	CreateBuffer(label string, usage BufferUsage) BufferID

	// BufferStorage allocates size bytes of storage for the buffer, discarding prior contents.
	// New storage is zero filled.
	//
	// Parameters:
	//   - id: the buffer to allocate
	//   - size: the storage size in bytes
	BufferStorage(id BufferID, size int)

	// BufferSubData uploads data into the buffer starting at offset.
	//
	// Parameters:
	//   - id: the destination buffer
	//   - offset: destination byte offset
	//   - data: bytes to upload; offset+len(data) must not exceed the storage size
	BufferSubData(id BufferID, offset int, data []byte)

	// MapBufferRange maps a byte range of the buffer for CPU access.
	// The returned slice is valid until UnmapBuffer is called.
	//
	// Parameters:
	//   - id: the buffer to map
	//   - offset: first mapped byte
	//   - size: number of bytes to map
	//   - access: read/write/invalidate flags
	//
	// Returns:
	//   - []byte: a view of the mapped range
	MapBufferRange(id BufferID, offset, size int, access MapAccess) []byte

	// UnmapBuffer ends the current mapping, publishing any writes to the GPU.
	//
	// Parameters:
	//   - id: the mapped buffer
	UnmapBuffer(id BufferID)

	// GetBufferSubData copies len(dst) bytes starting at offset back to the CPU.
	// May block until prior GPU work touching the buffer completes.
	//
	// Parameters:
	//   - id: the source buffer
	//   - offset: source byte offset
	//   - dst: destination slice
	GetBufferSubData(id BufferID, offset int, dst []byte)

	// ClearBuffer sets every byte of the buffer's storage to zero.
	//
	// Parameters:
	//   - id: the buffer to clear
	ClearBuffer(id BufferID)

	// DeleteBuffer releases the buffer object.
	//
	// Parameters:
	//   - id: the buffer to delete
	DeleteBuffer(id BufferID)

	// CreateVertexArray creates an empty vertex array object.
	//
	// Parameters:
	//   - label: debug label attached to the object
	//
	// Returns:
	//   - VertexArrayID: the new vertex array handle
	CreateVertexArray(label string) VertexArrayID

	// VertexArrayVertexBuffer connects a buffer byte range to a binding slot.
	//
	// Parameters:
	//   - vao: the vertex array
	//   - slot: binding slot index
	//   - buf: the source buffer
	//   - offset: byte offset of the first element
	//   - stride: byte distance between consecutive elements
	VertexArrayVertexBuffer(vao VertexArrayID, slot uint32, buf BufferID, offset, stride int)

	// VertexArrayAttribFormat describes a floating point attribute.
	// Integer source types are converted to float, normalised when normalized is true.
	//
	// Parameters:
	//   - vao: the vertex array
	//   - attrib: attribute index
	//   - count: component count (1-4)
	//   - typ: scalar type of the source data
	//   - normalized: map integer data to [0,1] or [-1,1]
	//   - relOffset: byte offset of the attribute inside one element
	VertexArrayAttribFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, normalized bool, relOffset int)

	// VertexArrayAttribIFormat describes an integer attribute. The GPU never widens it to float.
	//
	// Parameters:
	//   - vao: the vertex array
	//   - attrib: attribute index
	//   - count: component count (1-4)
	//   - typ: integer scalar type of the source data
	//   - relOffset: byte offset of the attribute inside one element
	VertexArrayAttribIFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, relOffset int)

	// VertexArrayAttribBinding connects an attribute index to a binding slot.
	//
	// Parameters:
	//   - vao: the vertex array
	//   - attrib: attribute index
	//   - slot: binding slot index
	VertexArrayAttribBinding(vao VertexArrayID, attrib, slot uint32)

	// VertexArrayBindingDivisor sets how many instances pass before a slot advances.
	// 0 advances every vertex.
	//
	// Parameters:
	//   - vao: the vertex array
	//   - slot: binding slot index
	//   - divisor: instance divisor
	VertexArrayBindingDivisor(vao VertexArrayID, slot, divisor uint32)

	// EnableVertexArrayAttrib enables an attribute index.
	//
	// Parameters:
	//   - vao: the vertex array
	//   - attrib: attribute index
	EnableVertexArrayAttrib(vao VertexArrayID, attrib uint32)

	// BindVertexArray makes the vertex array current. 0 unbinds.
	BindVertexArray(vao VertexArrayID)

	// DeleteVertexArray releases the vertex array object. Referenced buffers are untouched.
	DeleteVertexArray(vao VertexArrayID)

	// BindElementBuffer makes buf the current element (index) buffer. 0 unbinds.
	BindElementBuffer(buf BufferID)

	// BindIndirectBuffer makes buf the current indirect command buffer. 0 unbinds.
	BindIndirectBuffer(buf BufferID)

	// UseProgram activates a linked program. 0 deactivates.
	UseProgram(p ProgramID)

	// BindProgramPipeline activates a separable program pipeline. 0 deactivates.
	BindProgramPipeline(p ProgramID)

	// DrawArrays draws count vertices starting at first, count x instances times.
	//
	// Parameters:
	//   - mode: primitive topology
	//   - first: first vertex
	//   - count: vertices per instance
	//   - instances: instance count
	//   - baseInstance: value added to the instance index for instanced attributes
	DrawArrays(mode Topology, first, count, instances int, baseInstance uint32)

	// DrawElements draws count indices read from the bound element buffer.
	//
	// Parameters:
	//   - mode: primitive topology
	//   - count: indices per instance
	//   - typ: width of one index
	//   - byteOffset: offset of the first index inside the element buffer
	//   - instances: instance count
	//   - baseVertex: value added to every index
	//   - baseInstance: value added to the instance index for instanced attributes
	DrawElements(mode Topology, count int, typ IndexType, byteOffset, instances, baseVertex int, baseInstance uint32)

	// DrawArraysIndirect issues drawCount array draws read from the bound indirect buffer.
	//
	// Parameters:
	//   - mode: primitive topology
	//   - byteOffset: offset of the first command
	//   - drawCount: number of commands
	//   - stride: byte distance between commands (0 means tightly packed)
	DrawArraysIndirect(mode Topology, byteOffset, drawCount, stride int)

	// DrawElementsIndirect issues drawCount indexed draws read from the bound indirect buffer.
	//
	// Parameters:
	//   - mode: primitive topology
	//   - typ: width of one index in the bound element buffer
	//   - byteOffset: offset of the first command
	//   - drawCount: number of commands
	//   - stride: byte distance between commands (0 means tightly packed)
	DrawElementsIndirect(mode Topology, typ IndexType, byteOffset, drawCount, stride int)

	// BeginFrame prepares the default render target for a new frame.
	//
	// Returns:
	//   - error: an error if the frame target could not be acquired
	BeginFrame() error

	// EndFrame submits the recorded frame and presents it where the backend owns presentation.
	EndFrame()

	// Resize tells the device the default render target changed size.
	Resize(width, height int)

	// CheckError returns and clears the oldest pending driver error.
	// Nothing in the render core calls it implicitly.
	//
	// Returns:
	//   - error: the pending error, or nil
	CheckError() error

	// Release frees every object the device still owns.
	Release()
}

// ProgramCompiler builds a shader program from source.
// It is implemented by devices that can compile shaders; the render core only consumes
// the resulting ProgramID.
type ProgramCompiler interface {
	// CompileProgram compiles and links a program.
	//
	// Parameters:
	//   - src: the stage sources and the vertex layout the program reads
	//
	// Returns:
	//   - ProgramID: the linked program
	//   - error: a descriptive failure including the driver log
	CompileProgram(src ProgramSource) (ProgramID, error)

	// DeleteProgram releases a program created by CompileProgram.
	DeleteProgram(p ProgramID)
}

// ProgramSource holds the inputs of ProgramCompiler.CompileProgram.
type ProgramSource struct {
	Label    string
	Vertex   string
	Fragment string

	// Topology is needed by backends that bake primitive state into the program.
	Topology Topology

	// Layout is the vertex array whose recorded attribute formats the program reads.
	// Backends with pipeline objects derive their vertex buffer layouts from it.
	Layout VertexArrayID
}
