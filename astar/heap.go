package astar

import (
	"container/heap"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

// openSet is an indexed binary min-heap over nodes ordered by f cost, with
// h cost and then insertion sequence as tie-breaks. The key-to-position
// index gives membership lookup and true decrease-key support without
// linear scans.
type openSet struct {
	nodes []*node
	index map[gridmap.Key]int
}

func newOpenSet() *openSet {
	return &openSet{index: map[gridmap.Key]int{}}
}

func (s *openSet) Len() int { return len(s.nodes) }

func (s *openSet) Less(i, j int) bool {
	a, b := s.nodes[i], s.nodes[j]
	if a.fCost != b.fCost {
		return a.fCost < b.fCost
	}
	if a.hCost != b.hCost {
		return a.hCost < b.hCost
	}
	return a.seq < b.seq
}

func (s *openSet) Swap(i, j int) {
	s.nodes[i], s.nodes[j] = s.nodes[j], s.nodes[i]
	s.index[s.nodes[i].key] = i
	s.index[s.nodes[j].key] = j
}

func (s *openSet) Push(x interface{}) {
	n := x.(*node)
	s.index[n.key] = len(s.nodes)
	s.nodes = append(s.nodes, n)
}

func (s *openSet) Pop() interface{} {
	last := len(s.nodes) - 1
	n := s.nodes[last]
	s.nodes[last] = nil
	s.nodes = s.nodes[:last]
	delete(s.index, n.key)
	return n
}

// pushNode inserts a node into the open set.
func (s *openSet) pushNode(n *node) {
	heap.Push(s, n)
}

// popMin removes and returns the node with the lowest f cost.
func (s *openSet) popMin() *node {
	if len(s.nodes) == 0 {
		return nil
	}
	return heap.Pop(s).(*node)
}

// get returns the open-set node for a key, if present.
func (s *openSet) get(k gridmap.Key) (*node, bool) {
	i, ok := s.index[k]
	if !ok {
		return nil, false
	}
	return s.nodes[i], true
}

// decreaseKey restores heap order after a node's costs were lowered in
// place.
func (s *openSet) decreaseKey(n *node) {
	heap.Fix(s, s.index[n.key])
}
