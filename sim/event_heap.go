package sim

import "container/heap"

// modelEntry is the coordinator's view of one registered atomic model.
type modelEntry struct {
	id        string
	index     int // registration order
	model     Atomic
	tLast     Time
	tNext     Time
	heapIndex int
}

// eventHeap orders models by next event time with deterministic ordering.
// Ordering: tNext → registration index.
type eventHeap struct {
	entries []*modelEntry
}

func newEventHeap() *eventHeap {
	h := &eventHeap{entries: make([]*modelEntry, 0)}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *eventHeap) Len() int { return len(h.entries) }

// Less implements heap.Interface with deterministic ordering
func (h *eventHeap) Less(i, j int) bool {
	ei, ej := h.entries[i], h.entries[j]
	if ei.tNext != ej.tNext {
		return ei.tNext < ej.tNext
	}
	return ei.index < ej.index
}

// Swap implements heap.Interface
func (h *eventHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].heapIndex = i
	h.entries[j].heapIndex = j
}

// Push implements heap.Interface
func (h *eventHeap) Push(x any) {
	e := x.(*modelEntry)
	e.heapIndex = len(h.entries)
	h.entries = append(h.entries, e)
}

// Pop implements heap.Interface
func (h *eventHeap) Pop() any {
	old := h.entries
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	item.heapIndex = -1
	return item
}

func (h *eventHeap) schedule(e *modelEntry) {
	heap.Push(h, e)
}

// reschedule restores heap order after e.tNext changed.
func (h *eventHeap) reschedule(e *modelEntry) {
	heap.Fix(h, e.heapIndex)
}

// popNext removes and returns the model with the earliest next event.
func (h *eventHeap) popNext() *modelEntry {
	return heap.Pop(h).(*modelEntry)
}

// peek returns the model with the earliest next event, or nil.
func (h *eventHeap) peek() *modelEntry {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0]
}
