package renderable

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/vertexarray"
)

// Renderable couples a vertex array with optional element and indirect buffers into one
// drawable unit. The draw shape is fixed at construction by which buffers are attached.
//
// A Renderable owns its element and indirect buffers. It only references its vertex array.
type Renderable interface {
	// Label returns the debug label.
	Label() string

	// Shape returns the draw shape chosen at construction.
	Shape() DrawShape

	// Topology returns the primitive topology.
	Topology() gpu.Topology

	// VertexArray returns the referenced vertex array, or nil.
	VertexArray() vertexarray.VertexArray

	// Count returns the vertex or index count of direct draws.
	Count() int

	// SetCount changes the vertex or index count of direct draws.
	SetCount(count int)

	// InstanceCount returns the instance count of direct draws.
	InstanceCount() int

	// SetInstanceCount changes the instance count of direct draws. It is the hook for
	// instanced draws whose size changes from frame to frame.
	SetInstanceCount(count int)

	// BaseInstance returns the first instance index of direct draws.
	BaseInstance() uint32

	// IndexType returns the element width, meaningful only for indexed shapes.
	IndexType() gpu.IndexType

	// Elements returns the owned element buffer, or nil.
	Elements() buffer.Buffer

	// Indirect returns the owned indirect buffer, or nil.
	Indirect() buffer.Buffer

	// DrawCount returns the number of indirect entries issued by Render.
	DrawCount() int

	// SetDrawCount limits the indirect batch to its first count entries.
	// It panics if count exceeds the entries uploaded at construction.
	SetDrawCount(count int)

	// Bind binds the vertex array, runs the bind callback and textures, then binds the
	// element and indirect buffers.
	//
	// Parameters:
	//   - frame: the current frame, passed to the bind callback
	Bind(frame Frame)

	// Render issues exactly one draw call for the item's shape.
	Render()

	// Dispose releases the owned element and indirect buffers. Calling it again does nothing.
	Dispose()
}

type textureBinding struct {
	slot    uint32
	texture TextureBinder
}

type renderableImpl struct {
	device   gpu.Device
	label    string
	vao      vertexarray.VertexArray
	topology gpu.Topology
	shape    DrawShape

	count        int
	vertices     int
	instances    int
	baseInstance uint32
	baseVertex   int
	baseIndex    int

	indices   []uint32
	hasIndex  bool
	indexType gpu.IndexType
	elements  buffer.Buffer

	arrayCmds    []DrawArraysCommand
	elementCmds  []DrawElementsCommand
	indirect     buffer.Buffer
	indirectOff  int
	drawCount    int
	maxDraws     int
	commandBytes int

	onBind   BindCallback
	textures []textureBinding
	disposed bool
}

var _ Renderable = &renderableImpl{}

// New creates a Renderable. The shape follows from the options: WithElements selects an
// indexed draw and WithIndirectArrays or WithIndirectElements select an indirect batch.
//
// Parameters:
//   - device: the device draws are issued on
//   - vao: the vertex array to bind, or nil when the shader generates its own vertices
//   - topology: the primitive topology
//   - options: functional options applied after the defaults
//
// Returns:
//   - Renderable: the new item
func New(device gpu.Device, vao vertexarray.VertexArray, topology gpu.Topology, options ...RenderableBuilderOption) Renderable {
	r := &renderableImpl{
		device:    device,
		label:     "renderable",
		vao:       vao,
		topology:  topology,
		instances: 1,
		count:     -1,
	}
	for _, opt := range options {
		opt(r)
	}

	if len(r.arrayCmds) > 0 && len(r.elementCmds) > 0 {
		panic(fmt.Sprintf("renderable: %q has both array and element indirect commands", r.label))
	}
	if len(r.elementCmds) > 0 && !r.hasIndex {
		panic(fmt.Sprintf("renderable: %q has indexed indirect commands but no elements", r.label))
	}
	if len(r.arrayCmds) > 0 && r.hasIndex {
		panic(fmt.Sprintf("renderable: %q has elements but array indirect commands", r.label))
	}

	if r.hasIndex {
		r.uploadElements()
	}
	switch {
	case len(r.arrayCmds) > 0:
		r.uploadIndirect(encodeArrays(r.arrayCmds), len(r.arrayCmds), gpu.DrawArraysCommandSize)
	case len(r.elementCmds) > 0:
		r.uploadIndirect(encodeElements(r.elementCmds), len(r.elementCmds), gpu.DrawElementsCommandSize)
	}
	if r.count < 0 {
		r.count = r.vertices
		if r.hasIndex {
			r.count = len(r.indices)
		}
	}

	r.shape = SelectShape(r.elements != nil, r.indirect != nil)
	return r
}

// IndexTypeFor returns the narrowest index type that holds maxIndex. Byte indices are
// widened to 16 bits when the device cannot draw them.
func IndexTypeFor(maxIndex uint32, caps gpu.Capabilities) gpu.IndexType {
	switch {
	case maxIndex <= 0xff && caps.Uint8Indices:
		return gpu.IndexUint8
	case maxIndex <= 0xffff:
		return gpu.IndexUint16
	}
	return gpu.IndexUint32
}

func (r *renderableImpl) uploadElements() {
	if len(r.indices) == 0 {
		panic(fmt.Sprintf("renderable: %q has an empty element list", r.label))
	}
	var maxIndex uint32
	for _, i := range r.indices {
		maxIndex = max(maxIndex, i)
	}
	r.indexType = IndexTypeFor(maxIndex, r.device.Capabilities())

	width := r.indexType.Size()
	data := make([]byte, len(r.indices)*width)
	for n, i := range r.indices {
		switch r.indexType {
		case gpu.IndexUint8:
			data[n] = byte(i)
		case gpu.IndexUint16:
			binary.LittleEndian.PutUint16(data[2*n:], uint16(i))
		default:
			binary.LittleEndian.PutUint32(data[4*n:], i)
		}
	}

	r.elements = buffer.New(r.device, buffer.WithLabel(r.label+" elements"), buffer.WithUsage(gpu.UsageIndex))
	r.elements.Allocate(len(data))
	r.elements.FillBytes(data, width)
}

func (r *renderableImpl) uploadIndirect(data []byte, entries, stride int) {
	if r.indirectOff < 0 || r.indirectOff%4 != 0 {
		panic(fmt.Sprintf("renderable: %q indirect offset %d is not 4-byte aligned", r.label, r.indirectOff))
	}
	image := make([]byte, r.indirectOff+len(data))
	copy(image[r.indirectOff:], data)

	r.indirect = buffer.New(r.device, buffer.WithLabel(r.label+" indirect"), buffer.WithUsage(gpu.UsageIndirect))
	r.indirect.Allocate(len(image))
	r.indirect.FillBytes(image, 4)
	r.drawCount, r.maxDraws, r.commandBytes = entries, entries, stride
}

func (r *renderableImpl) Label() string { return r.label }

func (r *renderableImpl) Shape() DrawShape { return r.shape }

func (r *renderableImpl) Topology() gpu.Topology { return r.topology }

func (r *renderableImpl) VertexArray() vertexarray.VertexArray { return r.vao }

func (r *renderableImpl) Count() int { return r.count }

func (r *renderableImpl) SetCount(count int) {
	if count < 0 {
		panic(fmt.Sprintf("renderable: %q count %d is negative", r.label, count))
	}
	r.count = count
}

func (r *renderableImpl) InstanceCount() int { return r.instances }

func (r *renderableImpl) SetInstanceCount(count int) {
	if count < 0 {
		panic(fmt.Sprintf("renderable: %q instance count %d is negative", r.label, count))
	}
	r.instances = count
}

func (r *renderableImpl) BaseInstance() uint32 { return r.baseInstance }

func (r *renderableImpl) IndexType() gpu.IndexType { return r.indexType }

func (r *renderableImpl) Elements() buffer.Buffer { return r.elements }

func (r *renderableImpl) Indirect() buffer.Buffer { return r.indirect }

func (r *renderableImpl) DrawCount() int { return r.drawCount }

func (r *renderableImpl) SetDrawCount(count int) {
	if count < 0 || count > r.maxDraws {
		panic(fmt.Sprintf("renderable: %q draw count %d outside [0, %d]", r.label, count, r.maxDraws))
	}
	r.drawCount = count
}

func (r *renderableImpl) Bind(frame Frame) {
	if r.disposed {
		panic(fmt.Sprintf("renderable: Bind on disposed item %q", r.label))
	}
	if r.vao != nil {
		r.vao.Bind()
	}
	if r.onBind != nil {
		r.onBind(r, frame)
	}
	for _, t := range r.textures {
		t.texture.Bind(t.slot)
	}
	if r.elements != nil {
		r.device.BindElementBuffer(r.elements.ID())
	}
	if r.indirect != nil {
		r.device.BindIndirectBuffer(r.indirect.ID())
	}
}

func (r *renderableImpl) Render() {
	if r.disposed {
		panic(fmt.Sprintf("renderable: Render on disposed item %q", r.label))
	}
	switch r.shape {
	case ShapeArray:
		r.device.DrawArrays(r.topology, r.baseVertex, r.count, r.instances, r.baseInstance)
	case ShapeElements:
		r.device.DrawElements(r.topology, r.count, r.indexType, r.baseIndex*r.indexType.Size(),
			r.instances, r.baseVertex, r.baseInstance)
	case ShapeIndirectArray:
		r.device.DrawArraysIndirect(r.topology, r.indirectOff, r.drawCount, r.commandBytes)
	case ShapeIndirectElements:
		r.device.DrawElementsIndirect(r.topology, r.indexType, r.indirectOff, r.drawCount, r.commandBytes)
	}
}

func (r *renderableImpl) Dispose() {
	if r.disposed {
		return
	}
	if r.elements != nil {
		r.elements.Dispose()
	}
	if r.indirect != nil {
		r.indirect.Dispose()
	}
	r.disposed = true
}
