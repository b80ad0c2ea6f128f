package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/camera"
	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderable"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderlist"
	"github.com/go-gl/mathgl/mgl32"
)

// ── Scene Configuration ────────────────────────────────────────────
const (
	cameraFov      = float32(45.0 * math.Pi / 180.0)
	cameraNear     = 0.1
	cameraFar      = 100.0
	cameraDistance = 14.0
	cameraMinDist  = 2.0
	cameraMaxDist  = 60.0
	cubeExtent     = 5.0
	cubeScale      = 0.3
)

var (
	starBias  = mgl32.Vec3{1, 1, 1}
	starScale = float32(buffer.QuantizeMax) / 2
)

// wgpuClip maps OpenGL clip depth [-w, w] to the WebGPU range [0, w].
var wgpuClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// cube corners, indexed by cubeIndices.
var (
	cubeCorners = []mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	cubeIndices = []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 7, 6, 3, 6, 2, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
)

type cube struct {
	pos  mgl32.Vec3
	spin mgl32.Vec3
}

// scene is the viewer content: a quantized star field, an instanced cube field fed
// through a separate per-instance buffer, and an indirect triangle batch.
type scene struct {
	device  gpu.Device
	list    renderlist.RenderList
	backend string
	camera  camera.Camera

	stars *renderable.Mesh
	cubes *renderable.Mesh
	batch *renderable.Mesh

	batchEntries int

	instances  buffer.Buffer
	cubeState  []cube
	transforms []mgl32.Mat4
	reduced    bool

	compiled    []gpu.ProgramID
	nextProgram gpu.ProgramID

	elapsed float32
	paused  bool
}

// newScene builds every mesh and program and adds them to list.
//
// Parameters:
//   - device: the device to create resources on
//   - list: the render list the scene draws through
//   - cfg: scene sizes and seed
//   - mode: alignment mode of the per-instance buffer
//   - aspect: initial viewport aspect ratio
//
// Returns:
//   - *scene: the built scene
//   - error: error if a program fails to compile
func newScene(device gpu.Device, list renderlist.RenderList, cfg config.SceneConfig, mode layout.Mode, aspect float32) (*scene, error) {
	s := &scene{
		device:  device,
		list:    list,
		backend: device.Name(),
		camera: camera.NewCamera(
			camera.WithPerspective(cameraFov, aspect, cameraNear, cameraFar),
			camera.WithRadius(cameraDistance),
			camera.WithRadiusBounds(cameraMinDist, cameraMaxDist),
		),
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	// ── Star Field ─────────────────────────────────────────────────
	if cfg.Stars > 0 {
		points := make([]mgl32.Vec3, cfg.Stars)
		for i := range points {
			points[i] = mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
		}
		s.stars = renderable.NewQuantizedPoints(device, "stars", points, starBias, starScale)
		err := s.add("stars", s.stars, func() (shaderSet, error) {
			return starShaders(s.backend, starBias.X(), starScale)
		})
		if err != nil {
			return nil, err
		}
	}

	// ── Cube Field ─────────────────────────────────────────────────
	if cfg.Cubes > 0 {
		s.cubeState = make([]cube, cfg.Cubes)
		for i := range s.cubeState {
			s.cubeState[i] = cube{
				pos:  mgl32.Vec3{randRange(rng, cubeExtent), randRange(rng, cubeExtent), randRange(rng, cubeExtent)},
				spin: mgl32.Vec3{randRange(rng, 1), randRange(rng, 1), randRange(rng, 1)},
			}
		}
		s.transforms = make([]mgl32.Mat4, cfg.Cubes)

		s.instances = buffer.New(device,
			buffer.WithLabel("cube instances"),
			buffer.WithMode(mode),
			buffer.WithSize(cfg.Cubes*mode.ArrayStride(layout.KindMat4)),
		)
		s.cubes = renderable.NewSeparateBuffers(device, "cubes", gpu.Triangles, cubeCorners, s.instances,
			renderable.WithElements(cubeIndices),
			renderable.WithInstances(cfg.Cubes, 0),
		)
		if err := s.add("cubes", s.cubes, func() (shaderSet, error) { return cubeShaders(s.backend) }); err != nil {
			return nil, err
		}
	}

	// ── Indirect Batch ─────────────────────────────────────────────
	if cfg.Batches > 0 {
		positions, cmds := batchTriangles(cfg.Batches)
		s.batch = renderable.NewVertices(device, "batch", gpu.Triangles, positions,
			renderable.WithIndirectArrays(cmds))
		s.batchEntries = len(cmds)
		if err := s.add("batch", s.batch, func() (shaderSet, error) { return batchShaders(s.backend) }); err != nil {
			return nil, err
		}
	}

	common.Logger().Info("scene ready",
		"stars", cfg.Stars, "cubes", cfg.Cubes, "batches", cfg.Batches, "layout", mode.String())
	return s, nil
}

func randRange(rng *rand.Rand, extent float32) float32 {
	return (rng.Float32()*2 - 1) * extent
}

// batchTriangles lays n triangles along the bottom of the screen, one indirect entry each.
func batchTriangles(n int) ([]mgl32.Vec3, []renderable.DrawArraysCommand) {
	positions := make([]mgl32.Vec3, 0, 3*n)
	cmds := make([]renderable.DrawArraysCommand, n)
	width := float32(1.8) / float32(n)
	for i := range n {
		cx := -0.9 + (float32(i)+0.5)*width
		half := width * 0.4
		positions = append(positions,
			mgl32.Vec3{cx - half, -0.95, 0.1},
			mgl32.Vec3{cx + half, -0.95, 0.1},
			mgl32.Vec3{cx, -0.95 + 2*half, 0.1},
		)
		cmds[i] = renderable.DrawArraysCommand{Count: 3, InstanceCount: 1, First: uint32(3 * i)}
	}
	return positions, cmds
}

// add compiles the program for mesh and adds the mesh to the render list under its own
// program. On failure everything built so far is released.
func (s *scene) add(name string, mesh *renderable.Mesh, shaders func() (shaderSet, error)) error {
	id, err := s.program(name, mesh, shaders)
	if err != nil {
		mesh.Dispose()
		s.list.Dispose()
		s.dispose()
		return err
	}
	s.list.Add(renderlist.Program{ID: id, Name: name}, name, mesh)
	return nil
}

// program compiles the shaders for one mesh. Devices without a compiler get placeholder
// identifiers so the draw order can still be traced.
func (s *scene) program(label string, mesh *renderable.Mesh, shaders func() (shaderSet, error)) (gpu.ProgramID, error) {
	compiler, ok := s.device.(gpu.ProgramCompiler)
	if !ok {
		s.nextProgram++
		return s.nextProgram, nil
	}
	src, err := shaders()
	if err != nil {
		return 0, err
	}
	id, err := compiler.CompileProgram(gpu.ProgramSource{
		Label:    label,
		Vertex:   src.vertex,
		Fragment: src.fragment,
		Topology: mesh.Topology(),
		Layout:   mesh.Array.ID(),
	})
	if err != nil {
		return 0, fmt.Errorf("compiling %s program: %w", label, err)
	}
	s.compiled = append(s.compiled, id)
	return id, nil
}

// tick advances the animation clock.
func (s *scene) tick(deltaTime float32) {
	if s.paused {
		return
	}
	s.elapsed += deltaTime
}

// update writes this frame's cube transforms into the mapped instance buffer.
func (s *scene) update(frame renderable.Frame) {
	if s.cubes == nil {
		return
	}
	matrices := s.camera.Matrices()
	if m, ok := frame.Matrices.(*common.MatrixCalc); ok {
		matrices = m
	}
	vp := matrices.ViewProjection()
	if s.backend == "wgpu" {
		vp = wgpuClip.Mul4(vp)
	}

	visible := len(s.cubeState)
	if s.reduced {
		visible = max(1, visible/2)
	}
	for i, c := range s.cubeState[:visible] {
		s.transforms[i] = vp.Mul4(common.ModelMatrix(c.pos, c.spin.Mul(s.elapsed), mgl32.Vec3{cubeScale, cubeScale, cubeScale}))
	}

	stride := s.instances.Mode().ArrayStride(layout.KindMat4)
	cache := s.instances.Map(0, visible*stride)
	cache.WriteMat4s(s.transforms[:visible])
	s.instances.UnMap()
	s.cubes.SetInstanceCount(visible)
}

// resize rebuilds the projection for the new viewport.
func (s *scene) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.camera.SetAspect(float32(width) / float32(height))
}

// handleKey applies the viewer controls. It reports whether the key was used.
//
//   - Space pauses the animation
//   - R halves the number of drawn cubes
//   - 1 to 9 limit the indirect batch to that many entries
//   - the arrow keys orbit the camera
func (s *scene) handleKey(keyCode uint32) bool {
	switch keyCode {
	case common.KeyLeft:
		s.camera.OrbitLeft()
		return true
	case common.KeyRight:
		s.camera.OrbitRight()
		return true
	case common.KeyUp:
		s.camera.OrbitUp()
		return true
	case common.KeyDown:
		s.camera.OrbitDown()
		return true
	case common.KeySpace:
		s.paused = !s.paused
		return true
	case common.KeyR:
		s.reduced = !s.reduced
		return true
	}
	if n, ok := common.DigitKey(keyCode); ok && s.batch != nil {
		s.batch.SetDrawCount(min(n, s.batchEntries))
		return true
	}
	return false
}

// dispose releases what the render list does not own: the shared instance buffer and
// compiled programs.
func (s *scene) dispose() {
	if s.instances != nil {
		s.instances.Dispose()
	}
	if compiler, ok := s.device.(gpu.ProgramCompiler); ok {
		for _, id := range s.compiled {
			compiler.DeleteProgram(id)
		}
	}
	s.compiled = nil
}
