package buffer

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
	"github.com/go-gl/mathgl/mgl32"
)

// Buffer owns one GPU buffer object.
//
// A Buffer is used in exactly one of two styles, chosen at construction:
//   - cache mode (WithCache): values are packed into a layout.Cache, Complete sizes and
//     uploads the buffer, and later write-through writes push only the touched range;
//   - direct mode: Allocate reserves storage and the Fill methods append typed arrays
//     straight into it.
//
// Either style can Map a range for sequential writes, read data back, and Zero the storage.
type Buffer interface {
	// ID returns the device handle of the buffer.
	ID() gpu.BufferID

	// Label returns the debug label.
	Label() string

	// Mode returns the alignment mode used for cache writes, fills and mapped writes.
	Mode() layout.Mode

	// Size returns the allocated size in bytes, or 0 before allocation.
	Size() int

	// BindingSize returns Size rounded up to a 16-byte multiple, as required for
	// uniform and storage block bindings.
	BindingSize() int

	// Cache returns the layout cache of a cache-mode buffer. It panics in direct mode.
	Cache() layout.Cache

	// Complete commits the cache, allocates storage of the committed size and uploads it.
	//
	// Returns:
	//   - int: the buffer size in bytes
	Complete() int

	// Update uploads the whole committed cache, mapping the full range with write and
	// invalidate access.
	Update()

	// Allocate reserves size bytes of zeroed storage and rewinds the fill cursor.
	// Prior contents are discarded. It panics in cache mode.
	//
	// Parameters:
	//   - size: storage size in bytes
	Allocate(size int)

	// FillFloats appends a float32 array and returns its aligned start offset.
	FillFloats(v []float32) int

	// FillUints appends a uint32 array and returns its aligned start offset.
	FillUints(v []uint32) int

	// FillUint16s appends tightly packed uint16 values aligned to 2 bytes.
	FillUint16s(v []uint16) int

	// FillBytes appends raw bytes at the given alignment.
	FillBytes(b []byte, align int) int

	// FillVec2s appends a 2-vector array and returns its aligned start offset.
	FillVec2s(v []mgl32.Vec2) int

	// FillVec3s appends a 3-vector array with a 16-byte stride.
	FillVec3s(v []mgl32.Vec3) int

	// FillVec4s appends a 4-vector array.
	FillVec4s(v []mgl32.Vec4) int

	// FillMat4s appends a matrix array.
	FillMat4s(v []mgl32.Mat4) int

	// FillQuantized packs positions into 8 bytes each and appends them.
	//
	// Parameters:
	//   - points: the positions to pack
	//   - bias: added to each position before scaling
	//   - scale: multiplier mapping biased positions into the 21-bit range
	//
	// Returns:
	//   - int: the 8-byte aligned start offset
	FillQuantized(points []mgl32.Vec3, bias mgl32.Vec3, scale float32) int

	// CurrentPos returns the fill cursor, or the cache cursor in cache mode.
	CurrentPos() int

	// Positions returns the start offset of every fill, or of every appending cache write.
	Positions() []int

	// Map maps [offset, offset+size) for writing and returns a fixed cache over it.
	// The mapping stays open until UnMap.
	//
	// Parameters:
	//   - offset: first mapped byte
	//   - size: number of bytes to map
	//
	// Returns:
	//   - layout.Cache: a committed cache whose writes land in the mapped range
	Map(offset, size int) layout.Cache

	// UnMap ends the mapping opened by Map.
	UnMap()

	// ReadBuffer copies [offset, offset+size) back from the device.
	ReadBuffer(offset, size int) []byte

	// ReadFloats reads count float32 values starting at offset.
	ReadFloats(offset, count int) []float32

	// ReadInts reads count int32 values starting at offset.
	ReadInts(offset, count int) []int32

	// ReadVec4s reads count 4-vectors starting at offset.
	ReadVec4s(offset, count int) []mgl32.Vec4

	// ReadMat4 reads one matrix at offset.
	ReadMat4(offset int) mgl32.Mat4

	// Zero clears the allocated storage on the GPU. A cache is left untouched.
	Zero()

	// Dispose deletes the buffer object. Calling it again does nothing.
	Dispose()
}

type bufferImpl struct {
	device    gpu.Device
	id        gpu.BufferID
	label     string
	usage     gpu.BufferUsage
	mode      layout.Mode
	cached    bool
	cache     layout.Cache
	size      int
	pos       int
	positions []int
	mapped    bool
	initSize  int
	disposed  bool
}

var _ Buffer = &bufferImpl{}

// New creates a buffer object on the device.
//
// Parameters:
//   - device: the device that owns the buffer
//   - options: functional options applied after the defaults
//
// Returns:
//   - Buffer: the new buffer
func New(device gpu.Device, options ...BufferBuilderOption) Buffer {
	b := &bufferImpl{
		device: device,
		label:  "buffer",
		usage:  gpu.UsageVertex,
		mode:   layout.ModeStd430,
	}
	for _, opt := range options {
		opt(b)
	}

	b.id = device.CreateBuffer(b.label, b.usage)
	if b.cached {
		b.cache = layout.NewCache(b.mode, layout.WithSink(b.pushRange))
	}
	if b.initSize > 0 {
		b.storage(b.initSize)
	}
	return b
}

func (b *bufferImpl) ID() gpu.BufferID { return b.id }

func (b *bufferImpl) Label() string { return b.label }

func (b *bufferImpl) Mode() layout.Mode { return b.mode }

func (b *bufferImpl) Size() int { return b.size }

func (b *bufferImpl) BindingSize() int { return layout.AlignUp(b.size, 16) }

func (b *bufferImpl) live(op string) {
	if b.disposed {
		panic(fmt.Sprintf("buffer: %s on disposed buffer %q", op, b.label))
	}
}

func (b *bufferImpl) storage(size int) {
	b.device.BufferStorage(b.id, size)
	b.size = size
	common.Logger().Debug("buffer: storage allocated", "label", b.label, "id", b.id, "size", size)
}

func (b *bufferImpl) Cache() layout.Cache {
	if !b.cached {
		panic(fmt.Sprintf("buffer: %q is a direct-mode buffer and has no cache", b.label))
	}
	return b.cache
}

func (b *bufferImpl) Complete() int {
	b.live("Complete")
	c := b.Cache()
	size := c.Commit()
	b.storage(size)
	b.Update()
	return size
}

func (b *bufferImpl) Update() {
	b.live("Update")
	c := b.Cache()
	if !c.Committed() {
		panic(fmt.Sprintf("buffer: Update on %q before Complete", b.label))
	}
	if b.size == 0 {
		return
	}
	view := b.device.MapBufferRange(b.id, 0, b.size, gpu.MapWrite|gpu.MapInvalidateBuffer)
	copy(view, c.Bytes())
	b.device.UnmapBuffer(b.id)
}

// pushRange is the cache sink for write-through writes.
func (b *bufferImpl) pushRange(offset int, data []byte) {
	if b.size == 0 || len(data) == 0 {
		return
	}
	view := b.device.MapBufferRange(b.id, offset, len(data), gpu.MapWrite|gpu.MapInvalidateRange)
	copy(view, data)
	b.device.UnmapBuffer(b.id)
}

func (b *bufferImpl) Allocate(size int) {
	b.live("Allocate")
	if b.cached {
		panic(fmt.Sprintf("buffer: Allocate on cache-mode buffer %q", b.label))
	}
	b.storage(size)
	b.pos = 0
	b.positions = nil
}

// fill uploads a packed array at the next position aligned for it.
func (b *bufferImpl) fill(align int, data []byte) int {
	b.live("Fill")
	if b.cached {
		panic(fmt.Sprintf("buffer: Fill on cache-mode buffer %q", b.label))
	}
	if b.size == 0 {
		panic(fmt.Sprintf("buffer: Fill on %q before Allocate", b.label))
	}
	off := layout.AlignUp(b.pos, align)
	if off+len(data) > b.size {
		panic(fmt.Sprintf("buffer: fill [%d, %d) past size %d of %q", off, off+len(data), b.size, b.label))
	}
	if len(data) > 0 {
		b.device.BufferSubData(b.id, off, data)
	}
	b.pos = off + len(data)
	b.positions = append(b.positions, off)
	return off
}

// packed runs write against a scratch cache starting at offset 0, which is aligned for
// every kind, and returns the packed bytes.
func (b *bufferImpl) packed(write func(c layout.Cache)) []byte {
	c := layout.NewCache(b.mode)
	write(c)
	c.Commit()
	return c.Bytes()
}

func (b *bufferImpl) FillFloats(v []float32) int {
	return b.fill(b.mode.ArrayAlign(layout.KindScalar), b.packed(func(c layout.Cache) { c.WriteFloats(v) }))
}

func (b *bufferImpl) FillUints(v []uint32) int {
	return b.fill(b.mode.ArrayAlign(layout.KindScalar), b.packed(func(c layout.Cache) { c.WriteUints(v) }))
}

func (b *bufferImpl) FillUint16s(v []uint16) int {
	data := make([]byte, 2*len(v))
	for i, n := range v {
		binary.LittleEndian.PutUint16(data[2*i:], n)
	}
	return b.fill(2, data)
}

func (b *bufferImpl) FillBytes(data []byte, align int) int {
	return b.fill(align, data)
}

func (b *bufferImpl) FillVec2s(v []mgl32.Vec2) int {
	return b.fill(b.mode.ArrayAlign(layout.KindVec2), b.packed(func(c layout.Cache) { c.WriteVec2s(v) }))
}

func (b *bufferImpl) FillVec3s(v []mgl32.Vec3) int {
	return b.fill(b.mode.ArrayAlign(layout.KindVec3), b.packed(func(c layout.Cache) { c.WriteVec3s(v) }))
}

func (b *bufferImpl) FillVec4s(v []mgl32.Vec4) int {
	return b.fill(b.mode.ArrayAlign(layout.KindVec4), b.packed(func(c layout.Cache) { c.WriteVec4s(v) }))
}

func (b *bufferImpl) FillMat4s(v []mgl32.Mat4) int {
	return b.fill(b.mode.ArrayAlign(layout.KindMat4), b.packed(func(c layout.Cache) { c.WriteMat4s(v) }))
}

func (b *bufferImpl) FillQuantized(points []mgl32.Vec3, bias mgl32.Vec3, scale float32) int {
	words := QuantizeAll(points, bias, scale)
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*i:], w)
	}
	return b.fill(QuantizedSize, data)
}

func (b *bufferImpl) CurrentPos() int {
	if b.cached {
		return b.cache.CurrentPos()
	}
	return b.pos
}

func (b *bufferImpl) Positions() []int {
	if b.cached {
		return b.cache.Positions()
	}
	out := make([]int, len(b.positions))
	copy(out, b.positions)
	return out
}

func (b *bufferImpl) Map(offset, size int) layout.Cache {
	b.live("Map")
	if b.mapped {
		panic(fmt.Sprintf("buffer: %q is already mapped", b.label))
	}
	view := b.device.MapBufferRange(b.id, offset, size, gpu.MapWrite|gpu.MapInvalidateRange)
	b.mapped = true
	return layout.NewFixedCache(b.mode, view)
}

func (b *bufferImpl) UnMap() {
	if !b.mapped {
		panic(fmt.Sprintf("buffer: UnMap on %q without Map", b.label))
	}
	b.device.UnmapBuffer(b.id)
	b.mapped = false
}

func (b *bufferImpl) ReadBuffer(offset, size int) []byte {
	b.live("ReadBuffer")
	out := make([]byte, size)
	if size == 0 {
		return out
	}
	b.device.GetBufferSubData(b.id, offset, out)
	return out
}

func (b *bufferImpl) ReadFloats(offset, count int) []float32 {
	return layout.Float32s(b.ReadBuffer(offset, 4*count))
}

func (b *bufferImpl) ReadInts(offset, count int) []int32 {
	return layout.Int32s(b.ReadBuffer(offset, 4*count))
}

func (b *bufferImpl) ReadVec4s(offset, count int) []mgl32.Vec4 {
	return layout.Vec4s(b.ReadBuffer(offset, 16*count))
}

func (b *bufferImpl) ReadMat4(offset int) mgl32.Mat4 {
	return layout.Mat4At(b.ReadBuffer(offset, 64), 0)
}

func (b *bufferImpl) Zero() {
	b.live("Zero")
	if b.size == 0 {
		return
	}
	b.device.ClearBuffer(b.id)
}

func (b *bufferImpl) Dispose() {
	if b.disposed {
		return
	}
	if b.mapped {
		b.device.UnmapBuffer(b.id)
		b.mapped = false
	}
	b.device.DeleteBuffer(b.id)
	b.disposed = true
	common.Logger().Debug("buffer: disposed", "label", b.label, "id", b.id)
}
