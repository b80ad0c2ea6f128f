package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
)

// shaderSet is the source pair for one program on one backend.
type shaderSet struct {
	vertex   string
	fragment string
}

// wgslModule uses one WGSL source holding vs_main and fs_main for both stages.
func wgslModule(src string) shaderSet {
	return shaderSet{vertex: src, fragment: src}
}

// starShaders unpacks the 21-bit star positions packed with bias and scale.
func starShaders(backend string, bias, scale float32) (shaderSet, error) {
	switch backend {
	case "gl":
		return shaderSet{
			vertex: fmt.Sprintf(`#version 460 core
layout(location = 0) in uvec2 packed;

const float bias = %.1f;
const float scale = %.1f;

void main() {
	uint x = packed.x & 0x1FFFFFu;
	uint y = packed.y & 0x1FFFFFu;
	uint z = (packed.x >> 21) | ((packed.y >> 21) << 11);
	vec3 p = vec3(x, y, z) / scale - vec3(bias);
	gl_Position = vec4(p.xy, p.z * 0.5 + 0.5, 1.0);
}
`, bias, scale),
			fragment: `#version 460 core
out vec4 fragColor;

void main() {
	fragColor = vec4(1.0, 1.0, 0.9, 1.0);
}
`,
		}, nil
	case "wgpu":
		return wgslModule(fmt.Sprintf(`const BIAS: f32 = %.1f;
const SCALE: f32 = %.1f;

@vertex
fn vs_main(@location(0) packed: vec2<u32>) -> @builtin(position) vec4<f32> {
	let x = packed.x & 0x1FFFFFu;
	let y = packed.y & 0x1FFFFFu;
	let z = (packed.x >> 21u) | ((packed.y >> 21u) << 11u);
	let p = vec3<f32>(f32(x), f32(y), f32(z)) / SCALE - vec3<f32>(BIAS);
	return vec4<f32>(p.xy, p.z * 0.5 + 0.5, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
	return vec4<f32>(1.0, 1.0, 0.9, 1.0);
}
`, bias, scale)), nil
	}
	return shaderSet{}, fmt.Errorf("no star shaders for backend %q: %w", backend, gpu.ErrUnsupported)
}

// cubeShaders reads one clip-space transform per instance at locations 1 to 4.
func cubeShaders(backend string) (shaderSet, error) {
	switch backend {
	case "gl":
		return shaderSet{
			vertex: `#version 460 core
layout(location = 0) in vec3 position;
layout(location = 1) in mat4 transform;

out vec3 color;

void main() {
	gl_Position = transform * vec4(position, 1.0);
	color = position * 0.5 + 0.5;
}
`,
			fragment: `#version 460 core
in vec3 color;
out vec4 fragColor;

void main() {
	fragColor = vec4(color, 1.0);
}
`,
		}, nil
	case "wgpu":
		return wgslModule(`struct VertexOut {
	@builtin(position) position: vec4<f32>,
	@location(0) color: vec3<f32>,
};

@vertex
fn vs_main(
	@location(0) position: vec3<f32>,
	@location(1) c0: vec4<f32>,
	@location(2) c1: vec4<f32>,
	@location(3) c2: vec4<f32>,
	@location(4) c3: vec4<f32>,
) -> VertexOut {
	var out: VertexOut;
	out.position = mat4x4<f32>(c0, c1, c2, c3) * vec4<f32>(position, 1.0);
	out.color = position * 0.5 + vec3<f32>(0.5);
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	return vec4<f32>(in.color, 1.0);
}
`), nil
	}
	return shaderSet{}, fmt.Errorf("no cube shaders for backend %q: %w", backend, gpu.ErrUnsupported)
}

// batchShaders draws clip-space triangles in a flat color.
func batchShaders(backend string) (shaderSet, error) {
	switch backend {
	case "gl":
		return shaderSet{
			vertex: `#version 460 core
layout(location = 0) in vec3 position;

void main() {
	gl_Position = vec4(position, 1.0);
}
`,
			fragment: `#version 460 core
out vec4 fragColor;

void main() {
	fragColor = vec4(1.0, 0.55, 0.1, 1.0);
}
`,
		}, nil
	case "wgpu":
		return wgslModule(`@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
	return vec4<f32>(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
	return vec4<f32>(1.0, 0.55, 0.1, 1.0);
}
`), nil
	}
	return shaderSet{}, fmt.Errorf("no batch shaders for backend %q: %w", backend, gpu.ErrUnsupported)
}
