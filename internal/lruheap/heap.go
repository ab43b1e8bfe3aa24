// Package lruheap implements the admission-control priority queue: a
// max-heap over connections keyed by negative last-activity timestamp, so
// the top of the heap is always the least-recently-active connection (the
// eviction candidate). Unlike a remove+push
// "touch", this keeps an id->index indirection table so touching an entry
// is an O(log n) decrease-key instead of a linear scan.
package lruheap

// ID identifies an entry in the heap — a connection id, not an OS fd,
// per the design note about decoupling identity from file descriptors.
type ID uint64

type node struct {
	id       ID
	priority int64 // negated last-activity: the maximum is the least recently active
}

// Heap is a max-heap over node.priority with O(log n) push/pop/touch/remove.
type Heap struct {
	nodes []node
	index map[ID]int
}

// New creates an empty heap.
func New() *Heap {
	return &Heap{index: make(map[ID]int)}
}

// Len returns the number of entries currently tracked.
func (h *Heap) Len() int { return len(h.nodes) }

// Push inserts id with the given priority (typically -lastActivityMs).
func (h *Heap) Push(id ID, priority int64) {
	if _, exists := h.index[id]; exists {
		h.updatePriority(id, priority)
		return
	}
	h.nodes = append(h.nodes, node{id: id, priority: priority})
	i := len(h.nodes) - 1
	h.index[id] = i
	h.siftUp(i)
}

// PeekMax returns the id with the greatest priority (least-recently-active)
// without removing it.
func (h *Heap) PeekMax() (ID, bool) {
	if len(h.nodes) == 0 {
		return 0, false
	}
	return h.nodes[0].id, true
}

// PopMax removes and returns the id with the greatest priority.
func (h *Heap) PopMax() (ID, bool) {
	if len(h.nodes) == 0 {
		return 0, false
	}
	top := h.nodes[0]
	h.removeAt(0)
	return top.id, true
}

// Touch updates id's priority (e.g. to -now on activity) and re-heapifies.
// No-op if id isn't tracked.
func (h *Heap) Touch(id ID, priority int64) {
	if _, ok := h.index[id]; !ok {
		return
	}
	h.updatePriority(id, priority)
}

// Remove drops id from the heap entirely. No-op if id isn't tracked.
func (h *Heap) Remove(id ID) {
	i, ok := h.index[id]
	if !ok {
		return
	}
	h.removeAt(i)
}

func (h *Heap) updatePriority(id ID, priority int64) {
	i := h.index[id]
	old := h.nodes[i].priority
	h.nodes[i].priority = priority
	if priority > old {
		h.siftUp(i)
	} else if priority < old {
		h.siftDown(i)
	}
}

func (h *Heap) removeAt(i int) {
	last := len(h.nodes) - 1
	h.swap(i, last)
	removed := h.nodes[last]
	h.nodes = h.nodes[:last]
	delete(h.index, removed.id)
	if i < len(h.nodes) {
		h.siftDown(i)
		h.siftUp(i)
	}
}

func (h *Heap) swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
	h.index[h.nodes[i].id] = i
	h.index[h.nodes[j].id] = j
}

func (h *Heap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.nodes[i].priority <= h.nodes[parent].priority {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

func (h *Heap) siftDown(i int) {
	n := len(h.nodes)
	for {
		left, right := i*2+1, i*2+2
		largest := i
		if left < n && h.nodes[left].priority > h.nodes[largest].priority {
			largest = left
		}
		if right < n && h.nodes[right].priority > h.nodes[largest].priority {
			largest = right
		}
		if largest == i {
			return
		}
		h.swap(i, largest)
		i = largest
	}
}
