package renderable

// RenderableBuilderOption is a functional option for configuring a Renderable.
type RenderableBuilderOption func(*renderableImpl)

// WithLabel sets the debug label, also used to name the owned buffers.
func WithLabel(label string) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.label = label
	}
}

// WithCount sets the number of vertices, or indices for indexed draws.
// Indexed items default to the length of the element list. Items built by the mesh
// helpers default to their vertex count, and other items to zero.
//
// Parameters:
//   - count: vertices or indices per instance
//
// Returns:
//   - RenderableBuilderOption: option function to apply
func WithCount(count int) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.count = count
	}
}

// withVertexCount sets the count used when neither WithCount nor WithElements decides it.
func withVertexCount(n int) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.vertices = n
	}
}

// WithInstances sets the instance count and the first instance index.
//
// Parameters:
//   - count: number of instances, default 1
//   - baseInstance: index of the first instance fed to per-instance attributes
//
// Returns:
//   - RenderableBuilderOption: option function to apply
func WithInstances(count int, baseInstance uint32) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.instances = count
		r.baseInstance = baseInstance
	}
}

// WithElements attaches an owned element buffer built from indices.
// The index width is the narrowest that holds the largest index.
//
// Parameters:
//   - indices: vertex indices, must not be empty
//
// Returns:
//   - RenderableBuilderOption: option function to apply
func WithElements(indices []uint32) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.indices = indices
		r.hasIndex = true
	}
}

// WithBaseVertex sets the value added to every index of an indexed draw. For array draws
// it is the first vertex.
func WithBaseVertex(base int) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.baseVertex = base
	}
}

// WithBaseIndex sets the first element read by an indexed draw.
func WithBaseIndex(base int) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.baseIndex = base
	}
}

// WithIndirectArrays attaches an owned indirect buffer holding array draw entries.
//
// Parameters:
//   - cmds: the batch, one entry per draw
//
// Returns:
//   - RenderableBuilderOption: option function to apply
func WithIndirectArrays(cmds []DrawArraysCommand) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.arrayCmds = cmds
	}
}

// WithIndirectElements attaches an owned indirect buffer holding indexed draw entries.
// It requires WithElements.
//
// Parameters:
//   - cmds: the batch, one entry per draw
//
// Returns:
//   - RenderableBuilderOption: option function to apply
func WithIndirectElements(cmds []DrawElementsCommand) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.elementCmds = cmds
	}
}

// WithIndirectOffset places the indirect batch at a byte offset inside its buffer.
// The offset must be a multiple of 4.
func WithIndirectOffset(offset int) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.indirectOff = offset
	}
}

// WithBindCallback sets the function run during Bind.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - RenderableBuilderOption: option function to apply
func WithBindCallback(fn BindCallback) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.onBind = fn
	}
}

// WithTexture binds a texture to a unit during Bind, after the bind callback.
func WithTexture(slot uint32, texture TextureBinder) RenderableBuilderOption {
	return func(r *renderableImpl) {
		r.textures = append(r.textures, textureBinding{slot: slot, texture: texture})
	}
}
