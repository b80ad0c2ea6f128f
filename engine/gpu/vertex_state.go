package gpu

import "sort"

// VertexBinding is the recorded state of one binding slot.
type VertexBinding struct {
	Buffer  BufferID
	Offset  int
	Stride  int
	Divisor uint32
}

// VertexAttrib is the recorded state of one attribute index.
type VertexAttrib struct {
	Slot       uint32
	Count      int
	Type       ScalarType
	Integer    bool
	Normalized bool
	RelOffset  int
	Enabled    bool
}

// VertexArrayState is a snapshot of a vertex array's bindings and attributes.
type VertexArrayState struct {
	Label    string
	Bindings map[uint32]VertexBinding
	Attribs  map[uint32]VertexAttrib
}

func newVertexArrayState(label string) *VertexArrayState {
	return &VertexArrayState{
		Label:    label,
		Bindings: make(map[uint32]VertexBinding),
		Attribs:  make(map[uint32]VertexAttrib),
	}
}

func (s *VertexArrayState) clone() VertexArrayState {
	out := VertexArrayState{
		Label:    s.Label,
		Bindings: make(map[uint32]VertexBinding, len(s.Bindings)),
		Attribs:  make(map[uint32]VertexAttrib, len(s.Attribs)),
	}
	for k, v := range s.Bindings {
		out.Bindings[k] = v
	}
	for k, v := range s.Attribs {
		out.Attribs[k] = v
	}
	return out
}

// Slots returns the binding slots in ascending order.
func (s VertexArrayState) Slots() []uint32 {
	slots := make([]uint32, 0, len(s.Bindings))
	for k := range s.Bindings {
		slots = append(slots, k)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// AttribsForSlot returns the enabled attribute indices reading from slot, ascending.
func (s VertexArrayState) AttribsForSlot(slot uint32) []uint32 {
	var out []uint32
	for idx, a := range s.Attribs {
		if a.Enabled && a.Slot == slot {
			out = append(out, idx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// handleTable hands out sequential non-zero identifiers.
type handleTable[K ~uint32, V any] struct {
	next  K
	items map[K]V
}

func newHandleTable[K ~uint32, V any]() *handleTable[K, V] {
	return &handleTable[K, V]{items: make(map[K]V)}
}

func (t *handleTable[K, V]) add(v V) K {
	t.next++
	t.items[t.next] = v
	return t.next
}

func (t *handleTable[K, V]) get(k K) (V, bool) {
	v, ok := t.items[k]
	return v, ok
}

func (t *handleTable[K, V]) remove(k K) bool {
	if _, ok := t.items[k]; !ok {
		return false
	}
	delete(t.items, k)
	return true
}

func (t *handleTable[K, V]) len() int {
	return len(t.items)
}

func (t *handleTable[K, V]) each(fn func(K, V)) {
	for k, v := range t.items {
		fn(k, v)
	}
}
