package renderlist

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderable"
)

// Program identifies the shader program a group of items is drawn with.
// Two Programs are the same group when their ID and Pipeline match.
type Program struct {
	// ID is the linked program, or the program pipeline when Pipeline is set.
	ID gpu.ProgramID

	// Pipeline binds ID as a program pipeline instead of a program.
	Pipeline bool

	// Name is used in log records only.
	Name string

	// OnStart runs once per Render after the program is activated and before its items.
	OnStart func(frame renderable.Frame)

	// OnFinish runs once per Render after the program's last item.
	OnFinish func(frame renderable.Frame)
}

type programKey struct {
	id       gpu.ProgramID
	pipeline bool
}

func (p Program) key() programKey { return programKey{p.ID, p.Pipeline} }

type group struct {
	program Program
	names   []string
	items   map[string]renderable.Renderable
}

// RenderList groups renderable items by shader program and draws each group while its
// program is active. Programs are visited in the order they were first added.
type RenderList interface {
	// Add stores an item under a program. An empty name is replaced by a generated one.
	// Adding a name that already exists under the same program replaces that item.
	//
	// Parameters:
	//   - program: the program the item is drawn with
	//   - name: lookup name, unique per program
	//   - item: the item to draw
	//
	// Returns:
	//   - string: the name the item was stored under
	Add(program Program, name string, item renderable.Renderable) string

	// Item returns the first item stored under name in any program.
	Item(name string) (renderable.Renderable, bool)

	// ItemFor returns the item stored under name for one program.
	ItemFor(program Program, name string) (renderable.Renderable, bool)

	// Remove drops an item without disposing it.
	//
	// Returns:
	//   - renderable.Renderable: the removed item, or nil if the name was unknown
	Remove(program Program, name string) renderable.Renderable

	// Len returns the number of stored items.
	Len() int

	// Programs returns the programs in visiting order.
	Programs() []Program

	// Render draws every group: activate the program, OnStart, Bind and Render per item,
	// OnFinish. Afterwards no program or pipeline is left active.
	//
	// Parameters:
	//   - frame: the frame context handed to hooks and bind callbacks
	Render(frame renderable.Frame)

	// Dispose disposes every item and empties the list.
	Dispose()
}

type renderListImpl struct {
	device gpu.Device
	order  []programKey
	groups map[programKey]*group
	serial int
}

var _ RenderList = &renderListImpl{}

// New creates an empty render list that issues program changes on device.
//
// Parameters:
//   - device: the device programs are activated on
//
// Returns:
//   - RenderList: the new list
func New(device gpu.Device) RenderList {
	return &renderListImpl{
		device: device,
		groups: make(map[programKey]*group),
	}
}

func (l *renderListImpl) Add(program Program, name string, item renderable.Renderable) string {
	if item == nil {
		panic("renderlist: Add with nil item")
	}
	k := program.key()
	g, ok := l.groups[k]
	if !ok {
		g = &group{program: program, items: make(map[string]renderable.Renderable)}
		l.groups[k] = g
		l.order = append(l.order, k)
	}
	if name == "" {
		l.serial++
		name = fmt.Sprintf("item-%d", l.serial)
	}
	if _, exists := g.items[name]; !exists {
		g.names = append(g.names, name)
	}
	g.items[name] = item
	return name
}

func (l *renderListImpl) Item(name string) (renderable.Renderable, bool) {
	for _, k := range l.order {
		if item, ok := l.groups[k].items[name]; ok {
			return item, true
		}
	}
	return nil, false
}

func (l *renderListImpl) ItemFor(program Program, name string) (renderable.Renderable, bool) {
	g, ok := l.groups[program.key()]
	if !ok {
		return nil, false
	}
	item, ok := g.items[name]
	return item, ok
}

func (l *renderListImpl) Remove(program Program, name string) renderable.Renderable {
	k := program.key()
	g, ok := l.groups[k]
	if !ok {
		return nil
	}
	item, ok := g.items[name]
	if !ok {
		return nil
	}
	delete(g.items, name)
	for i, n := range g.names {
		if n == name {
			g.names = append(g.names[:i], g.names[i+1:]...)
			break
		}
	}
	if len(g.items) == 0 {
		delete(l.groups, k)
		for i, o := range l.order {
			if o == k {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	return item
}

func (l *renderListImpl) Len() int {
	n := 0
	for _, g := range l.groups {
		n += len(g.items)
	}
	return n
}

func (l *renderListImpl) Programs() []Program {
	out := make([]Program, len(l.order))
	for i, k := range l.order {
		out[i] = l.groups[k].program
	}
	return out
}

func (l *renderListImpl) activate(p Program) {
	if p.Pipeline {
		l.device.BindProgramPipeline(p.ID)
		return
	}
	l.device.UseProgram(p.ID)
}

func (l *renderListImpl) Render(frame renderable.Frame) {
	usedPipeline := false
	for _, k := range l.order {
		g := l.groups[k]
		l.activate(g.program)
		usedPipeline = usedPipeline || g.program.Pipeline
		if g.program.OnStart != nil {
			g.program.OnStart(frame)
		}
		for _, name := range g.names {
			item := g.items[name]
			item.Bind(frame)
			item.Render()
		}
		if g.program.OnFinish != nil {
			g.program.OnFinish(frame)
		}
	}
	if usedPipeline {
		l.device.BindProgramPipeline(0)
	}
	l.device.UseProgram(0)
}

func (l *renderListImpl) Dispose() {
	n := 0
	for _, k := range l.order {
		for _, item := range l.groups[k].items {
			item.Dispose()
			n++
		}
	}
	l.order = nil
	l.groups = make(map[programKey]*group)
	common.Logger().Debug("renderlist: disposed", "items", n)
}
