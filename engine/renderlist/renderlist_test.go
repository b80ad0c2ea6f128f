package renderlist

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ events []string }

func (r *recorder) add(e string) { r.events = append(r.events, e) }

func (r *recorder) program(id gpu.ProgramID, name string) Program {
	return Program{
		ID:       id,
		Name:     name,
		OnStart:  func(renderable.Frame) { r.add("start " + name) },
		OnFinish: func(renderable.Frame) { r.add("finish " + name) },
	}
}

func (r *recorder) item(d gpu.Device, name string) renderable.Renderable {
	return renderable.New(d, nil, gpu.Points,
		renderable.WithLabel(name),
		renderable.WithCount(1),
		renderable.WithBindCallback(func(item renderable.Renderable, _ renderable.Frame) {
			r.add("bind " + item.Label())
		}),
	)
}

func TestRenderGroupsByProgram(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	rec := &recorder{}
	p1 := rec.program(1, "p1")
	p2 := rec.program(2, "p2")

	l := New(d)
	l.Add(p1, "a", rec.item(d, "a"))
	l.Add(p2, "c", rec.item(d, "c"))
	l.Add(p1, "b", rec.item(d, "b"))
	require.Equal(t, 3, l.Len())

	l.Render(renderable.Frame{})

	assert.Equal(t, []string{
		"start p1", "bind a", "bind b", "finish p1",
		"start p2", "bind c", "finish p2",
	}, rec.events)
	assert.Equal(t, []string{gpu.OpUseProgram, gpu.OpUseProgram, gpu.OpUseProgram}, d.Ops(gpu.OpUseProgram))
	last := d.Trace()[len(d.Trace())-1]
	assert.Equal(t, gpu.Call{Op: gpu.OpUseProgram, Args: []int{0}}, last)
	assert.Equal(t, 3, d.Stats().DrawCalls)
}

func TestStartHookOncePerRender(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	rec := &recorder{}
	p := rec.program(5, "p")
	l := New(d)
	for i := 0; i < 3; i++ {
		l.Add(p, "", rec.item(d, "x"))
	}

	l.Render(renderable.Frame{})
	l.Render(renderable.Frame{})

	starts := 0
	for _, e := range rec.events {
		if e == "start p" {
			starts++
		}
	}
	assert.Equal(t, 2, starts)
}

func TestPipelineIsUnbound(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	l := New(d)
	l.Add(Program{ID: 9, Pipeline: true}, "pipe", renderable.New(d, nil, gpu.Points, renderable.WithCount(1)))

	l.Render(renderable.Frame{})
	assert.Equal(t, []string{gpu.OpBindProgramPipeline, gpu.OpBindProgramPipeline, gpu.OpUseProgram},
		d.Ops(gpu.OpBindProgramPipeline, gpu.OpUseProgram))
	p, pipeline := d.CurrentProgram()
	assert.Zero(t, p)
	assert.False(t, pipeline)
}

func TestAddNamesAndLookup(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	p1 := Program{ID: 1}
	p2 := Program{ID: 2}
	l := New(d)

	first := renderable.New(d, nil, gpu.Points)
	second := renderable.New(d, nil, gpu.Points)
	other := renderable.New(d, nil, gpu.Lines)

	assert.Equal(t, "item-1", l.Add(p1, "", first))
	assert.Equal(t, "stars", l.Add(p1, "stars", first))
	assert.Equal(t, "stars", l.Add(p1, "stars", second))
	l.Add(p2, "stars", other)

	assert.Equal(t, 3, l.Len())
	got, ok := l.ItemFor(p1, "stars")
	require.True(t, ok)
	assert.Same(t, second, got)
	got, ok = l.ItemFor(p2, "stars")
	require.True(t, ok)
	assert.Same(t, other, got)
	got, ok = l.Item("stars")
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = l.Item("missing")
	assert.False(t, ok)
	assert.Equal(t, []gpu.ProgramID{1, 2}, []gpu.ProgramID{l.Programs()[0].ID, l.Programs()[1].ID})
}

func TestInstanceCountChangedThroughLookup(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	l := New(d)
	l.Add(Program{ID: 1}, "crowd", renderable.New(d, nil, gpu.Triangles, renderable.WithCount(3)))

	item, _ := l.Item("crowd")
	item.SetInstanceCount(4)
	l.Render(renderable.Frame{})
	assert.Equal(t, 12, d.Stats().Vertices)
}

func TestRemoveAndDispose(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	p := Program{ID: 1}
	l := New(d)
	kept := renderable.New(d, nil, gpu.Triangles, renderable.WithElements([]uint32{0, 1, 2}))
	removed := renderable.New(d, nil, gpu.Triangles, renderable.WithElements([]uint32{0, 1, 2}))
	l.Add(p, "kept", kept)
	l.Add(p, "removed", removed)

	assert.Same(t, removed, l.Remove(p, "removed"))
	assert.Nil(t, l.Remove(p, "removed"))
	assert.Equal(t, 2, d.LiveBuffers())

	l.Dispose()
	assert.Zero(t, l.Len())
	assert.Empty(t, l.Programs())
	assert.Equal(t, 1, d.LiveBuffers())

	assert.NotPanics(t, func() { l.Render(renderable.Frame{}) })
	removed.Dispose()
	assert.Zero(t, d.LiveBuffers())
}
