package astar

import (
	"github.com/golang/geo/r3"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

// node carries the per-search cost state attached to one voxel. Node
// identity is the key alone; everything else is mutable bookkeeping for the
// duration of a single search run. The parent is a back-reference by key
// into the search arena, never a pointer.
type node struct {
	key    gridmap.Key
	parent gridmap.Key
	pose   r3.Vector

	gCost float64 // accumulated path cost from the start
	hCost float64 // heuristic estimate to the goal
	fCost float64 // gCost + hCost

	// auxiliary costs, for diagnostics only
	obsCost  float64 // accumulated obstacle-proximity penalty
	pathCost float64 // raw path length from the start
	nNodes   int     // number of expansions from the start

	seq uint64 // insertion sequence, the final ordering tie-break
}

// extractKeyPath reconstructs the start-to-terminal key path by following
// parent links through the arena. Parent links form an acyclic tree rooted
// at the start node, whose parent is itself.
func extractKeyPath(arena map[gridmap.Key]*node, terminal gridmap.Key) []gridmap.Key {
	path := make([]gridmap.Key, 0)
	cur := terminal
	for {
		n, ok := arena[cur]
		if !ok {
			break
		}
		path = append(path, cur)
		if n.parent == cur {
			break
		}
		cur = n.parent
	}

	// reverse the slice
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
