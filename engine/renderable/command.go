package renderable

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
)

// DrawArraysCommand is one entry of an indirect array batch.
type DrawArraysCommand struct {
	Count         uint32
	InstanceCount uint32
	First         uint32
	BaseInstance  uint32
}

// DrawElementsCommand is one entry of an indirect indexed batch.
type DrawElementsCommand struct {
	Count         uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	BaseInstance  uint32
}

// Put encodes the command into dst, which must hold gpu.DrawArraysCommandSize bytes.
func (c DrawArraysCommand) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], c.Count)
	binary.LittleEndian.PutUint32(dst[4:], c.InstanceCount)
	binary.LittleEndian.PutUint32(dst[8:], c.First)
	binary.LittleEndian.PutUint32(dst[12:], c.BaseInstance)
}

// Put encodes the command into dst, which must hold gpu.DrawElementsCommandSize bytes.
func (c DrawElementsCommand) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], c.Count)
	binary.LittleEndian.PutUint32(dst[4:], c.InstanceCount)
	binary.LittleEndian.PutUint32(dst[8:], c.FirstIndex)
	binary.LittleEndian.PutUint32(dst[12:], uint32(c.BaseVertex))
	binary.LittleEndian.PutUint32(dst[16:], c.BaseInstance)
}

func encodeArrays(cmds []DrawArraysCommand) []byte {
	out := make([]byte, len(cmds)*gpu.DrawArraysCommandSize)
	for i, c := range cmds {
		c.Put(out[i*gpu.DrawArraysCommandSize:])
	}
	return out
}

func encodeElements(cmds []DrawElementsCommand) []byte {
	out := make([]byte, len(cmds)*gpu.DrawElementsCommandSize)
	for i, c := range cmds {
		c.Put(out[i*gpu.DrawElementsCommandSize:])
	}
	return out
}

// Frame is the per-frame context handed to bind callbacks.
type Frame struct {
	// Index counts frames from 0.
	Index uint64

	// Delta is the time since the previous frame in seconds.
	Delta float32

	// Matrices is the camera state of the frame. The render core passes it through
	// without reading it.
	Matrices any
}

// TextureBinder is a material collaborator that can bind itself to a texture unit.
type TextureBinder interface {
	Bind(slot uint32)
}

// BindCallback runs during Bind, after the vertex array is bound and before draw buffers
// are bound. It typically uploads per-object uniforms.
type BindCallback func(item Renderable, frame Frame)
