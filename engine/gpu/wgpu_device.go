package gpu

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUDevice is a Device backed by WebGPU.
//
// WebGPU has no global binding state, so vertex arrays, element and indirect bindings are
// recorded and replayed onto the render pass at draw time. Programs are render pipelines
// whose vertex buffer layouts are derived from the vertex array passed in ProgramSource.
type WGPUDevice interface {
	Device
	ProgramCompiler
}

type wgpuBuffer struct {
	label  string
	usage  BufferUsage
	buf    *wgpu.Buffer
	shadow []byte

	mapped  bool
	mapOff  int
	mapSize int
}

type wgpuDeviceImpl struct {
	forceFallback bool
	vsync         bool
	width         int
	height        int

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat        wgpu.TextureFormat
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	buffers   *handleTable[BufferID, *wgpuBuffer]
	arrays    *handleTable[VertexArrayID, *VertexArrayState]
	pipelines *handleTable[ProgramID, *wgpu.RenderPipeline]

	vao      VertexArrayID
	element  BufferID
	indirect BufferID
	program  ProgramID

	errs []error
}

var _ WGPUDevice = &wgpuDeviceImpl{}

// NewWGPUDevice requests an adapter and device able to present to the given surface.
// A nil surface descriptor creates a headless device: buffers and read-back work but
// BeginFrame reports ErrUnsupported.
//
// Parameters:
//   - surfaceDescriptor: platform surface from the window, or nil
//   - options: functional options applied after the defaults
//
// Returns:
//   - WGPUDevice: the new device
//   - error: an error if no adapter or device could be acquired
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUDeviceOption) (WGPUDevice, error) {
	runtime.LockOSThread()
	d := &wgpuDeviceImpl{
		width:     1280,
		height:    720,
		buffers:   newHandleTable[BufferID, *wgpuBuffer](),
		arrays:    newHandleTable[VertexArrayID, *VertexArrayState](),
		pipelines: newHandleTable[ProgramID, *wgpu.RenderPipeline](),
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	if surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallback,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "oxy-gl device",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	if d.surface != nil {
		if err := d.configureSurface(d.width, d.height); err != nil {
			return nil, err
		}
	}
	common.Logger().Info("gpu: WebGPU device created", "headless", d.surface == nil)
	return d, nil
}

func (d *wgpuDeviceImpl) configureSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]

	presentMode := wgpu.PresentModeImmediate
	if d.vsync {
		presentMode = wgpu.PresentModeFifo
	}
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	depthTexture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	if d.depthTextureView != nil {
		d.depthTextureView.Release()
	}
	d.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create depth view: %w", err)
	}

	d.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.02, G: 0.02, B: 0.05, A: 1.0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	d.width, d.height = width, height
	return nil
}

func (d *wgpuDeviceImpl) fail(err error) {
	d.errs = append(d.errs, err)
}

func (d *wgpuDeviceImpl) Name() string { return "wgpu" }

func (d *wgpuDeviceImpl) Capabilities() Capabilities {
	return Capabilities{Uint8Indices: false, BaseInstance: true, MultiDrawIndirect: false}
}

func (d *wgpuDeviceImpl) buffer(id BufferID, op string) *wgpuBuffer {
	b, ok := d.buffers.get(id)
	if !ok {
		panic(fmt.Sprintf("gpu: %s on unknown buffer %d", op, id))
	}
	return b
}

func wgpuUsage(u BufferUsage) wgpu.BufferUsage {
	usage := wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	if u&UsageVertex != 0 {
		usage |= wgpu.BufferUsageVertex
	}
	if u&UsageIndex != 0 {
		usage |= wgpu.BufferUsageIndex
	}
	if u&UsageIndirect != 0 {
		usage |= wgpu.BufferUsageIndirect
	}
	if u&UsageUniform != 0 {
		usage |= wgpu.BufferUsageUniform
	}
	if u&UsageStorage != 0 {
		usage |= wgpu.BufferUsageStorage
	}
	return usage
}

// align4 widens [offset, offset+size) to 4-byte boundaries, as queue writes and copies require.
func align4(offset, size int) (int, int) {
	start := offset &^ 3
	end := (offset + size + 3) &^ 3
	return start, end - start
}

func (d *wgpuDeviceImpl) CreateBuffer(label string, usage BufferUsage) BufferID {
	return d.buffers.add(&wgpuBuffer{label: label, usage: usage})
}

func (d *wgpuDeviceImpl) BufferStorage(id BufferID, size int) {
	b := d.buffer(id, "BufferStorage")
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
	b.shadow = make([]byte, size)
	b.mapped = false
	if size == 0 {
		return
	}
	_, alloc := align4(0, size)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.label,
		Size:  uint64(alloc),
		Usage: wgpuUsage(b.usage),
	})
	if err != nil {
		panic(fmt.Sprintf("gpu: failed to allocate %d bytes for %q: %v", size, b.label, err))
	}
	b.buf = buf
}

func (d *wgpuDeviceImpl) upload(b *wgpuBuffer, offset, size int) {
	if size == 0 {
		return
	}
	start, n := align4(offset, size)
	padded := b.shadow[start:min(start+n, len(b.shadow))]
	if len(padded) < n {
		padded = append(append(make([]byte, 0, n), padded...), make([]byte, n-len(padded))...)
	}
	d.queue.WriteBuffer(b.buf, uint64(start), padded)
}

func (d *wgpuDeviceImpl) BufferSubData(id BufferID, offset int, data []byte) {
	b := d.buffer(id, "BufferSubData")
	checkRange("BufferSubData", offset, len(data), len(b.shadow))
	copy(b.shadow[offset:], data)
	d.upload(b, offset, len(data))
}

func (d *wgpuDeviceImpl) MapBufferRange(id BufferID, offset, size int, access MapAccess) []byte {
	b := d.buffer(id, "MapBufferRange")
	if b.mapped {
		panic(fmt.Sprintf("gpu: buffer %d (%s) is already mapped", id, b.label))
	}
	checkRange("MapBufferRange", offset, size, len(b.shadow))
	if access.Has(MapRead) && !access.Has(MapInvalidateRange) && !access.Has(MapInvalidateBuffer) {
		d.readInto(b, offset, b.shadow[offset:offset+size])
	}
	b.mapped, b.mapOff, b.mapSize = true, offset, size
	if !access.Has(MapWrite) {
		b.mapSize = 0
	}
	return b.shadow[offset : offset+size : offset+size]
}

func (d *wgpuDeviceImpl) UnmapBuffer(id BufferID) {
	b := d.buffer(id, "UnmapBuffer")
	if !b.mapped {
		d.fail(fmt.Errorf("UnmapBuffer: buffer %d: %w", id, ErrInvalidOperation))
		return
	}
	d.upload(b, b.mapOff, b.mapSize)
	b.mapped = false
}

func (d *wgpuDeviceImpl) GetBufferSubData(id BufferID, offset int, dst []byte) {
	b := d.buffer(id, "GetBufferSubData")
	checkRange("GetBufferSubData", offset, len(dst), len(b.shadow))
	d.readInto(b, offset, dst)
}

// readInto copies a range back from GPU memory through a MapRead staging buffer.
func (d *wgpuDeviceImpl) readInto(b *wgpuBuffer, offset int, dst []byte) {
	if len(dst) == 0 || b.buf == nil {
		return
	}
	start, n := align4(offset, len(dst))
	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.label + " readback",
		Size:  uint64(n),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("gpu: failed to create readback buffer: %v", err))
	}
	defer staging.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(fmt.Sprintf("gpu: failed to create readback encoder: %v", err))
	}
	encoder.CopyBufferToBuffer(b.buf, uint64(start), staging, 0, uint64(n))
	cmd, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		panic(fmt.Sprintf("gpu: failed to finish readback: %v", err))
	}
	d.queue.Submit(cmd)
	cmd.Release()

	done := false
	var status wgpu.BufferMapAsyncStatus
	err = staging.MapAsync(wgpu.MapModeRead, 0, uint64(n), func(s wgpu.BufferMapAsyncStatus) {
		status, done = s, true
	})
	if err != nil {
		panic(fmt.Sprintf("gpu: readback map failed: %v", err))
	}
	d.device.Poll(true, nil)
	if !done || status != wgpu.BufferMapAsyncStatusSuccess {
		panic("gpu: readback map was not successful")
	}
	mapped := staging.GetMappedRange(0, uint(n))
	copy(dst, mapped[offset-start:])
	staging.Unmap()
}

func (d *wgpuDeviceImpl) ClearBuffer(id BufferID) {
	b := d.buffer(id, "ClearBuffer")
	clear(b.shadow)
	d.upload(b, 0, len(b.shadow))
}

func (d *wgpuDeviceImpl) DeleteBuffer(id BufferID) {
	b, ok := d.buffers.get(id)
	if !ok {
		d.fail(fmt.Errorf("DeleteBuffer: buffer %d: %w", id, ErrInvalidHandle))
		return
	}
	if b.buf != nil {
		b.buf.Release()
	}
	d.buffers.remove(id)
}

func (d *wgpuDeviceImpl) CreateVertexArray(label string) VertexArrayID {
	return d.arrays.add(newVertexArrayState(label))
}

func (d *wgpuDeviceImpl) array(vao VertexArrayID, op string) *VertexArrayState {
	a, ok := d.arrays.get(vao)
	if !ok {
		panic(fmt.Sprintf("gpu: %s on unknown vertex array %d", op, vao))
	}
	return a
}

func (d *wgpuDeviceImpl) VertexArrayVertexBuffer(vao VertexArrayID, slot uint32, buf BufferID, offset, stride int) {
	a := d.array(vao, "VertexArrayVertexBuffer")
	bind := a.Bindings[slot]
	bind.Buffer, bind.Offset, bind.Stride = buf, offset, stride
	a.Bindings[slot] = bind
}

func (d *wgpuDeviceImpl) VertexArrayAttribFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, normalized bool, relOffset int) {
	a := d.array(vao, "VertexArrayAttribFormat")
	at := a.Attribs[attrib]
	at.Count, at.Type, at.Integer, at.Normalized, at.RelOffset = count, typ, false, normalized, relOffset
	a.Attribs[attrib] = at
}

func (d *wgpuDeviceImpl) VertexArrayAttribIFormat(vao VertexArrayID, attrib uint32, count int, typ ScalarType, relOffset int) {
	a := d.array(vao, "VertexArrayAttribIFormat")
	at := a.Attribs[attrib]
	at.Count, at.Type, at.Integer, at.Normalized, at.RelOffset = count, typ, true, false, relOffset
	a.Attribs[attrib] = at
}

func (d *wgpuDeviceImpl) VertexArrayAttribBinding(vao VertexArrayID, attrib, slot uint32) {
	a := d.array(vao, "VertexArrayAttribBinding")
	at := a.Attribs[attrib]
	at.Slot = slot
	a.Attribs[attrib] = at
}

func (d *wgpuDeviceImpl) VertexArrayBindingDivisor(vao VertexArrayID, slot, divisor uint32) {
	a := d.array(vao, "VertexArrayBindingDivisor")
	if divisor > 1 {
		common.Logger().Warn("gpu: WebGPU steps instance data every instance; divisor treated as 1", "slot", slot, "divisor", divisor)
	}
	bind := a.Bindings[slot]
	bind.Divisor = divisor
	a.Bindings[slot] = bind
}

func (d *wgpuDeviceImpl) EnableVertexArrayAttrib(vao VertexArrayID, attrib uint32) {
	a := d.array(vao, "EnableVertexArrayAttrib")
	at := a.Attribs[attrib]
	at.Enabled = true
	a.Attribs[attrib] = at
}

func (d *wgpuDeviceImpl) BindVertexArray(vao VertexArrayID) { d.vao = vao }

func (d *wgpuDeviceImpl) DeleteVertexArray(vao VertexArrayID) {
	if !d.arrays.remove(vao) {
		d.fail(fmt.Errorf("DeleteVertexArray: vertex array %d: %w", vao, ErrInvalidHandle))
	}
	if d.vao == vao {
		d.vao = 0
	}
}

func (d *wgpuDeviceImpl) BindElementBuffer(buf BufferID) { d.element = buf }

func (d *wgpuDeviceImpl) BindIndirectBuffer(buf BufferID) { d.indirect = buf }

func (d *wgpuDeviceImpl) UseProgram(p ProgramID) {
	d.program = p
	if p == 0 || d.framePass == nil {
		return
	}
	pl, ok := d.pipelines.get(p)
	if !ok {
		panic(fmt.Sprintf("gpu: UseProgram on unknown program %d", p))
	}
	d.framePass.SetPipeline(pl)
}

// BindProgramPipeline is UseProgram: WebGPU only has monolithic render pipelines.
func (d *wgpuDeviceImpl) BindProgramPipeline(p ProgramID) { d.UseProgram(p) }

// prepareDraw replays the recorded vertex array onto the open render pass.
func (d *wgpuDeviceImpl) prepareDraw(op string) {
	if d.framePass == nil {
		panic(fmt.Sprintf("gpu: %s outside BeginFrame/EndFrame", op))
	}
	if d.program == 0 {
		panic(fmt.Sprintf("gpu: %s with no program in use", op))
	}
	if d.vao == 0 {
		return
	}
	state := d.array(d.vao, op)
	for i, slot := range state.Slots() {
		bind := state.Bindings[slot]
		if bind.Buffer == 0 {
			continue
		}
		b := d.buffer(bind.Buffer, op)
		d.framePass.SetVertexBuffer(uint32(i), b.buf, uint64(bind.Offset), wgpu.WholeSize)
	}
}

func (d *wgpuDeviceImpl) bindIndices(op string, typ IndexType) {
	if d.element == 0 {
		panic(fmt.Sprintf("gpu: %s with no element buffer bound", op))
	}
	format := wgpu.IndexFormatUint32
	switch typ {
	case IndexUint16:
		format = wgpu.IndexFormatUint16
	case IndexUint8:
		panic(fmt.Sprintf("gpu: %s: WebGPU has no 8-bit indices", op))
	}
	d.framePass.SetIndexBuffer(d.buffer(d.element, op).buf, format, 0, wgpu.WholeSize)
}

func (d *wgpuDeviceImpl) DrawArrays(mode Topology, first, count, instances int, baseInstance uint32) {
	d.prepareDraw("DrawArrays")
	d.framePass.Draw(uint32(count), uint32(instances), uint32(first), baseInstance)
}

func (d *wgpuDeviceImpl) DrawElements(mode Topology, count int, typ IndexType, byteOffset, instances, baseVertex int, baseInstance uint32) {
	d.prepareDraw("DrawElements")
	d.bindIndices("DrawElements", typ)
	d.framePass.DrawIndexed(uint32(count), uint32(instances), uint32(byteOffset/typ.Size()), int32(baseVertex), baseInstance)
}

func (d *wgpuDeviceImpl) DrawArraysIndirect(mode Topology, byteOffset, drawCount, stride int) {
	d.prepareDraw("DrawArraysIndirect")
	if stride == 0 {
		stride = DrawArraysCommandSize
	}
	cmds := d.buffer(d.indirect, "DrawArraysIndirect")
	for i := 0; i < drawCount; i++ {
		d.framePass.DrawIndirect(cmds.buf, uint64(byteOffset+i*stride))
	}
}

func (d *wgpuDeviceImpl) DrawElementsIndirect(mode Topology, typ IndexType, byteOffset, drawCount, stride int) {
	d.prepareDraw("DrawElementsIndirect")
	d.bindIndices("DrawElementsIndirect", typ)
	if stride == 0 {
		stride = DrawElementsCommandSize
	}
	cmds := d.buffer(d.indirect, "DrawElementsIndirect")
	for i := 0; i < drawCount; i++ {
		d.framePass.DrawIndexedIndirect(cmds.buf, uint64(byteOffset+i*stride))
	}
}

func (d *wgpuDeviceImpl) BeginFrame() error {
	if d.surface == nil {
		return fmt.Errorf("BeginFrame on a headless device: %w", ErrUnsupported)
	}
	if d.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	d.renderPassDescriptor.ColorAttachments[0].View = view
	d.framePass = encoder.BeginRenderPass(d.renderPassDescriptor)
	d.frameEncoder = encoder
	d.frameSurface = surfaceTexture
	d.frameView = view

	if d.program != 0 {
		d.UseProgram(d.program)
	}
	return nil
}

func (d *wgpuDeviceImpl) EndFrame() {
	if d.framePass == nil {
		return
	}
	d.framePass.End()
	d.framePass = nil

	commandBuffer, err := d.frameEncoder.Finish(nil)
	if err != nil {
		d.fail(fmt.Errorf("EndFrame: %w", err))
	} else {
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
		d.surface.Present()
	}
	d.frameEncoder.Release()
	d.frameEncoder = nil
	d.frameView.Release()
	d.frameView = nil
	d.frameSurface.Release()
	d.frameSurface = nil
}

func (d *wgpuDeviceImpl) Resize(width, height int) {
	if d.surface == nil {
		return
	}
	if err := d.configureSurface(width, height); err != nil {
		d.fail(err)
	}
}

func (d *wgpuDeviceImpl) CheckError() error {
	if len(d.errs) == 0 {
		return nil
	}
	err := d.errs[0]
	d.errs = d.errs[1:]
	return err
}

func (d *wgpuDeviceImpl) Release() {
	d.buffers.each(func(_ BufferID, b *wgpuBuffer) {
		if b.buf != nil {
			b.buf.Release()
		}
	})
	d.buffers = newHandleTable[BufferID, *wgpuBuffer]()
	d.pipelines.each(func(_ ProgramID, p *wgpu.RenderPipeline) {
		p.Release()
	})
	d.pipelines = newHandleTable[ProgramID, *wgpu.RenderPipeline]()
	d.arrays = newHandleTable[VertexArrayID, *VertexArrayState]()
	if d.depthTextureView != nil {
		d.depthTextureView.Release()
		d.depthTextureView = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

func (d *wgpuDeviceImpl) CompileProgram(src ProgramSource) (ProgramID, error) {
	if src.Vertex == "" || src.Fragment == "" {
		return 0, errors.New("both vertex and fragment sources must be set to create a render pipeline")
	}
	layouts, err := d.vertexLayouts(src.Layout)
	if err != nil {
		return 0, fmt.Errorf("program %q: %w", src.Label, err)
	}

	vs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Label + " vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Vertex},
	})
	if err != nil {
		return 0, fmt.Errorf("program %q vertex stage: %w", src.Label, err)
	}
	defer vs.Release()
	fs, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Label + " fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Fragment},
	})
	if err != nil {
		return 0, fmt.Errorf("program %q fragment stage: %w", src.Label, err)
	}
	defer fs.Release()

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: src.Label,
	})
	if err != nil {
		return 0, fmt.Errorf("program %q layout: %w", src.Label, err)
	}

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  src.Label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: "vs_main",
			Buffers:    layouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    d.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpuTopology(src.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("program %q failed to link: %w", src.Label, err)
	}
	id := d.pipelines.add(created)
	common.Logger().Debug("gpu: render pipeline created", "label", src.Label, "id", id, "buffers", len(layouts))
	return id, nil
}

func (d *wgpuDeviceImpl) DeleteProgram(p ProgramID) {
	pl, ok := d.pipelines.get(p)
	if !ok {
		return
	}
	pl.Release()
	d.pipelines.remove(p)
}

// vertexLayouts converts a recorded vertex array into pipeline vertex buffer layouts.
// Layout i describes the i-th binding slot in ascending slot order, matching prepareDraw.
func (d *wgpuDeviceImpl) vertexLayouts(vao VertexArrayID) ([]wgpu.VertexBufferLayout, error) {
	if vao == 0 {
		return nil, nil
	}
	state := d.array(vao, "CompileProgram")
	var layouts []wgpu.VertexBufferLayout
	for _, slot := range state.Slots() {
		bind := state.Bindings[slot]
		step := wgpu.VertexStepModeVertex
		if bind.Divisor > 0 {
			step = wgpu.VertexStepModeInstance
		}
		layout := wgpu.VertexBufferLayout{
			ArrayStride: uint64(bind.Stride),
			StepMode:    step,
		}
		for _, idx := range state.AttribsForSlot(slot) {
			at := state.Attribs[idx]
			format, err := wgpuVertexFormat(at)
			if err != nil {
				return nil, fmt.Errorf("attribute %d: %w", idx, err)
			}
			layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
				Format:         format,
				Offset:         uint64(at.RelOffset),
				ShaderLocation: idx,
			})
		}
		layouts = append(layouts, layout)
	}
	return layouts, nil
}

func wgpuVertexFormat(at VertexAttrib) (wgpu.VertexFormat, error) {
	switch {
	case at.Type == Float32:
		return [...]wgpu.VertexFormat{wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4}[at.Count-1], nil
	case at.Type == Uint32 && at.Integer:
		return [...]wgpu.VertexFormat{wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4}[at.Count-1], nil
	case at.Type == Int32 && at.Integer:
		return [...]wgpu.VertexFormat{wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4}[at.Count-1], nil
	case at.Type == Uint8 && at.Normalized && at.Count == 4:
		return wgpu.VertexFormatUnorm8x4, nil
	}
	return wgpu.VertexFormatUndefined, fmt.Errorf("%d x %s (integer=%t, normalized=%t): %w", at.Count, at.Type, at.Integer, at.Normalized, ErrUnsupported)
}

func wgpuTopology(t Topology) wgpu.PrimitiveTopology {
	switch t {
	case TriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case Lines:
		return wgpu.PrimitiveTopologyLineList
	case LineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case Points:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}
