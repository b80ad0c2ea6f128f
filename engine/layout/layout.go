package layout

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Mode selects how arrays are packed. It is fixed for the lifetime of a Cache.
type Mode int

const (
	// ModeStd430 packs arrays tightly: scalars at 4 bytes, 2-vectors at 8 bytes.
	ModeStd430 Mode = iota
	// ModeStd140 pads every array element to a 16-byte vector4 slot.
	ModeStd140
)

func (m Mode) String() string {
	if m == ModeStd140 {
		return "std140"
	}
	return "std430"
}

// GrowthSlack is the extra capacity added whenever an uncommitted cache grows.
const GrowthSlack = 256

const (
	scalarSize = 4
	vec2Size   = 8
	vec4Size   = 16
	mat4Size   = 64
)

// Cache packs scalars, vectors and matrices into a byte arena following GPU layout rules.
//
// Every Write method appends at the next aligned cursor position unless the At option
// supplies an explicit offset, and returns the byte offset written. Appending writes
// record their offset in Positions; explicit writes leave the cursor and Positions alone.
//
// While uncommitted the arena grows on demand. After Commit the size is fixed and a
// write past it panics.
type Cache interface {
	// Mode returns the array packing mode chosen at construction.
	Mode() Mode

	// WriteFloat writes one float32 aligned to 4 bytes.
	WriteFloat(v float32, opts ...WriteOption) int

	// WriteInt writes one int32 aligned to 4 bytes.
	WriteInt(v int32, opts ...WriteOption) int

	// WriteUint writes one uint32 aligned to 4 bytes.
	WriteUint(v uint32, opts ...WriteOption) int

	// WriteVec2 writes a 2-vector aligned to 8 bytes.
	WriteVec2(v mgl32.Vec2, opts ...WriteOption) int

	// WriteVec3 writes a 3-vector aligned to 16 bytes. It consumes a full 16-byte slot.
	WriteVec3(v mgl32.Vec3, opts ...WriteOption) int

	// WriteVec4 writes a 4-vector aligned to 16 bytes.
	WriteVec4(v mgl32.Vec4, opts ...WriteOption) int

	// WriteIVec4 writes four int32 values aligned to 16 bytes.
	WriteIVec4(v [4]int32, opts ...WriteOption) int

	// WriteUVec2 writes two uint32 values aligned to 8 bytes.
	WriteUVec2(v [2]uint32, opts ...WriteOption) int

	// WriteMat4 writes a column-major 4x4 matrix aligned to 16 bytes.
	WriteMat4(m mgl32.Mat4, opts ...WriteOption) int

	// WriteFloats writes a float32 array. Stride is 4 bytes in std430 and 16 in std140.
	WriteFloats(v []float32, opts ...WriteOption) int

	// WriteInts writes an int32 array with the same strides as WriteFloats.
	WriteInts(v []int32, opts ...WriteOption) int

	// WriteUints writes a uint32 array with the same strides as WriteFloats.
	WriteUints(v []uint32, opts ...WriteOption) int

	// WriteVec2s writes a 2-vector array. Stride is 8 bytes in std430 and 16 in std140.
	WriteVec2s(v []mgl32.Vec2, opts ...WriteOption) int

	// WriteVec3s writes a 3-vector array with a 16-byte stride in both modes.
	WriteVec3s(v []mgl32.Vec3, opts ...WriteOption) int

	// WriteVec4s writes a 4-vector array with a 16-byte stride.
	WriteVec4s(v []mgl32.Vec4, opts ...WriteOption) int

	// WriteMat4s writes a matrix array with a 64-byte stride.
	WriteMat4s(v []mgl32.Mat4, opts ...WriteOption) int

	// WriteBytes writes raw bytes at the given alignment.
	//
	// Parameters:
	//   - b: the bytes to write
	//   - align: required alignment of the start offset (values below 1 mean 1)
	//   - opts: write options
	//
	// Returns:
	//   - int: the byte offset written
	WriteBytes(b []byte, align int, opts ...WriteOption) int

	// Commit fixes the size to the bytes written so far. Later writes must fit inside it.
	//
	// Returns:
	//   - int: the committed size in bytes
	Commit() int

	// Committed reports whether Commit has been called.
	Committed() bool

	// Size returns the committed size, or 0 before Commit.
	Size() int

	// Extent returns the number of meaningful bytes: the committed size, or before
	// Commit the furthest byte written.
	Extent() int

	// CurrentPos returns the append cursor.
	CurrentPos() int

	// Positions returns the start offsets of every appending write, in write order.
	Positions() []int

	// Bytes returns the first Extent bytes of the arena. The slice aliases the cache.
	Bytes() []byte

	// Range returns the arena bytes [offset, offset+size). The slice aliases the cache.
	Range(offset, size int) []byte

	// SetSink sets the function that receives write-through ranges.
	SetSink(sink Sink)

	// Reset empties the cache and returns it to the uncommitted state.
	// Fixed caches keep their memory and size and only rewind the cursor.
	Reset()
}

// Sink receives a written byte range when a write uses the Through option.
type Sink func(offset int, data []byte)

type cacheImpl struct {
	mode      Mode
	data      []byte
	pos       int
	high      int
	size      int
	committed bool
	fixed     bool
	positions []int
	sink      Sink
}

var _ Cache = &cacheImpl{}

// NewCache creates an empty, growable cache.
//
// Parameters:
//   - mode: array packing mode, fixed for the cache's lifetime
//   - options: functional options applied after the defaults
//
// Returns:
//   - Cache: the new cache
func NewCache(mode Mode, options ...CacheBuilderOption) Cache {
	c := &cacheImpl{mode: mode}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewFixedCache creates a cache over caller-owned memory, such as a mapped buffer range.
// The cache is committed at len(mem) from the start and never grows.
//
// Parameters:
//   - mode: array packing mode
//   - mem: the memory to write into
//
// Returns:
//   - Cache: the new cache
func NewFixedCache(mode Mode, mem []byte) Cache {
	return &cacheImpl{
		mode:      mode,
		data:      mem,
		size:      len(mem),
		committed: true,
		fixed:     true,
	}
}

func (c *cacheImpl) Mode() Mode { return c.mode }

// reserve resolves the destination of a write of size bytes and makes room for it.
func (c *cacheImpl) reserve(align, size int, cfg writeConfig) int {
	off := AlignUp(c.pos, align)
	if cfg.explicit {
		off = cfg.offset
	}
	end := off + size
	if off < 0 {
		panic(fmt.Sprintf("layout: negative write offset %d", off))
	}
	if c.committed {
		if end > c.size {
			panic(fmt.Sprintf("layout: write [%d, %d) past committed size %d", off, end, c.size))
		}
	} else if end > len(c.data) {
		grown := make([]byte, end+GrowthSlack)
		copy(grown, c.data)
		c.data = grown
	}
	if !cfg.explicit {
		c.pos = end
		c.positions = append(c.positions, off)
	}
	c.high = max(c.high, end)
	return off
}

// finish forwards a written range to the sink when write-through was requested.
// Before Commit there is no live buffer yet, so the range waits for the full upload.
func (c *cacheImpl) finish(off, size int, cfg writeConfig) int {
	if cfg.through && c.committed && c.sink != nil {
		c.sink(off, c.data[off:off+size])
	}
	return off
}

func (c *cacheImpl) putFloat(off int, v float32) {
	binary.LittleEndian.PutUint32(c.data[off:], math.Float32bits(v))
}

func (c *cacheImpl) putUint(off int, v uint32) {
	binary.LittleEndian.PutUint32(c.data[off:], v)
}

func (c *cacheImpl) putMat4(off int, m mgl32.Mat4) {
	for i, f := range m {
		c.putFloat(off+i*scalarSize, f)
	}
}

func (c *cacheImpl) WriteFloat(v float32, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(scalarSize, scalarSize, cfg)
	c.putFloat(off, v)
	return c.finish(off, scalarSize, cfg)
}

func (c *cacheImpl) WriteInt(v int32, opts ...WriteOption) int {
	return c.WriteUint(uint32(v), opts...)
}

func (c *cacheImpl) WriteUint(v uint32, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(scalarSize, scalarSize, cfg)
	c.putUint(off, v)
	return c.finish(off, scalarSize, cfg)
}

func (c *cacheImpl) WriteVec2(v mgl32.Vec2, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(vec2Size, vec2Size, cfg)
	c.putFloat(off, v[0])
	c.putFloat(off+4, v[1])
	return c.finish(off, vec2Size, cfg)
}

func (c *cacheImpl) WriteVec3(v mgl32.Vec3, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(vec4Size, vec4Size, cfg)
	for i, f := range v {
		c.putFloat(off+i*scalarSize, f)
	}
	return c.finish(off, vec4Size, cfg)
}

func (c *cacheImpl) WriteVec4(v mgl32.Vec4, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(vec4Size, vec4Size, cfg)
	for i, f := range v {
		c.putFloat(off+i*scalarSize, f)
	}
	return c.finish(off, vec4Size, cfg)
}

func (c *cacheImpl) WriteIVec4(v [4]int32, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(vec4Size, vec4Size, cfg)
	for i, n := range v {
		c.putUint(off+i*scalarSize, uint32(n))
	}
	return c.finish(off, vec4Size, cfg)
}

func (c *cacheImpl) WriteUVec2(v [2]uint32, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(vec2Size, vec2Size, cfg)
	c.putUint(off, v[0])
	c.putUint(off+4, v[1])
	return c.finish(off, vec2Size, cfg)
}

func (c *cacheImpl) WriteMat4(m mgl32.Mat4, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(vec4Size, mat4Size, cfg)
	c.putMat4(off, m)
	return c.finish(off, mat4Size, cfg)
}

// writeScalars is shared by the 4-byte scalar array writers.
func (c *cacheImpl) writeScalars(n int, bits func(i int) uint32, opts []WriteOption) int {
	cfg := resolve(opts)
	stride := c.mode.ArrayStride(KindScalar)
	size := n * stride
	off := c.reserve(c.mode.ArrayAlign(KindScalar), size, cfg)
	for i := 0; i < n; i++ {
		c.putUint(off+i*stride, bits(i))
	}
	return c.finish(off, size, cfg)
}

func (c *cacheImpl) WriteFloats(v []float32, opts ...WriteOption) int {
	return c.writeScalars(len(v), func(i int) uint32 { return math.Float32bits(v[i]) }, opts)
}

func (c *cacheImpl) WriteInts(v []int32, opts ...WriteOption) int {
	return c.writeScalars(len(v), func(i int) uint32 { return uint32(v[i]) }, opts)
}

func (c *cacheImpl) WriteUints(v []uint32, opts ...WriteOption) int {
	return c.writeScalars(len(v), func(i int) uint32 { return v[i] }, opts)
}

func (c *cacheImpl) WriteVec2s(v []mgl32.Vec2, opts ...WriteOption) int {
	cfg := resolve(opts)
	stride := c.mode.ArrayStride(KindVec2)
	size := len(v) * stride
	off := c.reserve(c.mode.ArrayAlign(KindVec2), size, cfg)
	for i, e := range v {
		c.putFloat(off+i*stride, e[0])
		c.putFloat(off+i*stride+4, e[1])
	}
	return c.finish(off, size, cfg)
}

func (c *cacheImpl) WriteVec3s(v []mgl32.Vec3, opts ...WriteOption) int {
	cfg := resolve(opts)
	size := len(v) * vec4Size
	off := c.reserve(vec4Size, size, cfg)
	for i, e := range v {
		for j, f := range e {
			c.putFloat(off+i*vec4Size+j*scalarSize, f)
		}
	}
	return c.finish(off, size, cfg)
}

func (c *cacheImpl) WriteVec4s(v []mgl32.Vec4, opts ...WriteOption) int {
	cfg := resolve(opts)
	size := len(v) * vec4Size
	off := c.reserve(vec4Size, size, cfg)
	for i, e := range v {
		for j, f := range e {
			c.putFloat(off+i*vec4Size+j*scalarSize, f)
		}
	}
	return c.finish(off, size, cfg)
}

func (c *cacheImpl) WriteMat4s(v []mgl32.Mat4, opts ...WriteOption) int {
	cfg := resolve(opts)
	size := len(v) * mat4Size
	off := c.reserve(vec4Size, size, cfg)
	for i, m := range v {
		c.putMat4(off+i*mat4Size, m)
	}
	return c.finish(off, size, cfg)
}

func (c *cacheImpl) WriteBytes(b []byte, align int, opts ...WriteOption) int {
	cfg := resolve(opts)
	off := c.reserve(align, len(b), cfg)
	copy(c.data[off:], b)
	return c.finish(off, len(b), cfg)
}

func (c *cacheImpl) Commit() int {
	if c.committed {
		return c.size
	}
	c.size = c.high
	c.committed = true
	common.Logger().Debug("layout: cache committed", "mode", c.mode, "size", c.size, "writes", len(c.positions))
	return c.size
}

func (c *cacheImpl) Committed() bool { return c.committed }

func (c *cacheImpl) Size() int {
	if !c.committed {
		return 0
	}
	return c.size
}

func (c *cacheImpl) Extent() int {
	if c.committed {
		return c.size
	}
	return c.high
}

func (c *cacheImpl) CurrentPos() int { return c.pos }

func (c *cacheImpl) Positions() []int {
	out := make([]int, len(c.positions))
	copy(out, c.positions)
	return out
}

func (c *cacheImpl) Bytes() []byte {
	return c.data[:c.Extent()]
}

func (c *cacheImpl) Range(offset, size int) []byte {
	if offset < 0 || offset+size > c.Extent() {
		panic(fmt.Sprintf("layout: range [%d, %d) outside %d bytes", offset, offset+size, c.Extent()))
	}
	return c.data[offset : offset+size]
}

func (c *cacheImpl) SetSink(sink Sink) { c.sink = sink }

func (c *cacheImpl) Reset() {
	c.pos = 0
	c.positions = nil
	if c.fixed {
		c.high = 0
		return
	}
	clear(c.data)
	c.high = 0
	c.size = 0
	c.committed = false
}
