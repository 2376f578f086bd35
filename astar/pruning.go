package astar

import (
	"github.com/kestrel-robotics/gridplan/gridmap"
)

// Classification of a neighbor offset by how many coordinates change.
const (
	moveAxial = moveClass(iota)
	moveFaceDiagonal
	moveCornerDiagonal
)

type moveClass uint8

// move is one neighbor transition of the active connectivity model. For
// diagonal moves, guards holds the axial offsets the move cuts past; the
// move is legal only if every guard cell is free and within bounds.
type move struct {
	offset gridmap.Key
	class  moveClass
	guards []gridmap.Key
}

// pruningTables is the immutable, connectivity-dependent move table built
// once at configuration time and shared by reference with every search.
// Guarding diagonal moves with their adjacent axial cells keeps the search
// from routing through the corner gap between two diagonally-adjacent
// occupied cells.
type pruningTables struct {
	connectivity int
	moves        []move
}

// newPruningTables builds the move table for 6- or 26-connectivity. The
// 6-connected model has axial moves only and needs no guards.
func newPruningTables(connectivity int) *pruningTables {
	t := &pruningTables{connectivity: connectivity}
	for di := int64(-1); di <= 1; di++ {
		for dj := int64(-1); dj <= 1; dj++ {
			for dk := int64(-1); dk <= 1; dk++ {
				offset := gridmap.Key{I: di, J: dj, K: dk}
				changed := countNonZero(offset)
				if changed == 0 {
					continue
				}
				if connectivity == 6 && changed > 1 {
					continue
				}
				m := move{offset: offset, class: classOf(changed)}
				if changed > 1 {
					m.guards = axialGuards(offset)
				}
				t.moves = append(t.moves, m)
			}
		}
	}
	return t
}

func countNonZero(k gridmap.Key) int {
	n := 0
	for _, v := range []int64{k.I, k.J, k.K} {
		if v != 0 {
			n++
		}
	}
	return n
}

func classOf(changed int) moveClass {
	switch changed {
	case 1:
		return moveAxial
	case 2:
		return moveFaceDiagonal
	default:
		return moveCornerDiagonal
	}
}

// axialGuards returns the axial offsets lying between the source cell and
// the diagonal cell: two for a face diagonal, three for a corner diagonal.
func axialGuards(offset gridmap.Key) []gridmap.Key {
	guards := make([]gridmap.Key, 0, 3)
	if offset.I != 0 {
		guards = append(guards, gridmap.Key{I: offset.I})
	}
	if offset.J != 0 {
		guards = append(guards, gridmap.Key{J: offset.J})
	}
	if offset.K != 0 {
		guards = append(guards, gridmap.Key{K: offset.K})
	}
	return guards
}

// guardsFor returns the guard offsets for an arbitrary single-step offset,
// nil for axial steps. Used by post-processing when it re-validates
// transitions that did not come out of the move table.
func guardsFor(offset gridmap.Key) []gridmap.Key {
	if countNonZero(offset) < 2 {
		return nil
	}
	return axialGuards(offset)
}
