package gridmap

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// floatEpsilon absorbs accumulated rounding error in octant bounds checks.
const floatEpsilon = 1e-9

// Node types of the octree. Each node either links to eight child octants,
// holds the state of a single voxel, or holds nothing.
const (
	internalNode = nodeType(iota)
	leafNodeEmpty
	leafNodeFilled
)

type nodeType uint8

type octreeNode struct {
	nodeType nodeType
	children []*Octree
	point    r3.Vector
	state    VoxelState
}

// Octree is a sparse voxel octree implementation of Map. Space is
// recursively partitioned into octants; a voxel state is recorded at the
// voxel's centroid and voxels with no recorded state report the tree's
// default state while inside bounds, Unknown outside.
type Octree struct {
	logger       golog.Logger
	node         octreeNode
	center       r3.Vector
	sideLength   float64
	size         int
	resolution   float64
	defaultState VoxelState
	min          r3.Vector
}

// NewOctree creates an empty occupancy octree covering the cube of the given
// side length around center, discretized at the given voxel resolution.
func NewOctree(center r3.Vector, sideLength, resolution float64, defaultState VoxelState, logger golog.Logger) (*Octree, error) {
	if sideLength <= 0 {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", sideLength)
	}
	if resolution <= 0 || resolution > sideLength {
		return nil, errors.Errorf("invalid resolution (%.2f) for octree of side %.2f", resolution, sideLength)
	}

	half := sideLength / 2.
	return &Octree{
		logger:       logger,
		node:         newLeafNodeEmpty(),
		center:       center,
		sideLength:   sideLength,
		resolution:   resolution,
		defaultState: defaultState,
		min:          r3.Vector{X: center.X - half, Y: center.Y - half, Z: center.Z - half},
	}, nil
}

func newLeafNodeEmpty() octreeNode {
	return octreeNode{nodeType: leafNodeEmpty}
}

func newLeafNodeFilled(p r3.Vector, s VoxelState) octreeNode {
	return octreeNode{nodeType: leafNodeFilled, point: p, state: s}
}

func newInternalNode(children []*Octree) octreeNode {
	return octreeNode{nodeType: internalNode, children: children}
}

// Set records the state of the voxel containing p. Setting the same voxel
// again overwrites its previous state.
func (tree *Octree) Set(p r3.Vector, s VoxelState) error {
	centroid := PointForKey(KeyForPoint(p, tree.min, tree.resolution), tree.min, tree.resolution)
	if !tree.checkPointPlacement(centroid) {
		return errors.New("error point is outside the bounds of this octree")
	}
	added, err := tree.set(centroid, s)
	if err != nil {
		return err
	}
	if added {
		tree.size++
	}
	return nil
}

// set places a voxel centroid in the subtree, returning whether a new voxel
// was recorded (as opposed to an existing one being overwritten).
func (tree *Octree) set(centroid r3.Vector, s VoxelState) (bool, error) {
	switch tree.node.nodeType {
	case internalNode:
		for _, child := range tree.node.children {
			if child.checkPointPlacement(centroid) {
				return child.set(centroid, s)
			}
		}
		return false, errors.New("error invalid internal node detected, please check your tree")

	case leafNodeFilled:
		if tree.node.point.ApproxEqual(centroid) {
			tree.node.state = s
			return false, nil
		}
		if tree.sideLength <= tree.resolution {
			// A leaf at voxel scale holds exactly one centroid; a mismatch
			// here is rounding noise, not a second voxel.
			tree.node.state = s
			return false, nil
		}
		if err := tree.splitIntoOctants(); err != nil {
			return false, errors.Wrap(err, "error in splitting octree into new octants")
		}
		return tree.set(centroid, s)

	case leafNodeEmpty:
		tree.node = newLeafNodeFilled(centroid, s)
		return true, nil
	}
	return false, errors.New("error unknown octree node type")
}

// splitIntoOctants turns a filled leaf into an internal node with eight
// child octants and pushes the stored voxel down into the matching octant.
func (tree *Octree) splitIntoOctants() error {
	if tree.node.nodeType != leafNodeFilled {
		return errors.New("error attempted to split a non-filled node")
	}

	children := make([]*Octree, 0, 8)
	newSide := tree.sideLength / 2.
	for _, x := range []float64{-newSide / 2., newSide / 2.} {
		for _, y := range []float64{-newSide / 2., newSide / 2.} {
			for _, z := range []float64{-newSide / 2., newSide / 2.} {
				children = append(children, &Octree{
					logger:       tree.logger,
					node:         newLeafNodeEmpty(),
					center:       tree.center.Add(r3.Vector{X: x, Y: y, Z: z}),
					sideLength:   newSide,
					resolution:   tree.resolution,
					defaultState: tree.defaultState,
					min:          tree.min,
				})
			}
		}
	}

	p, s := tree.node.point, tree.node.state
	tree.node = newInternalNode(children)
	_, err := tree.set(p, s)
	return err
}

// checkPointPlacement reports whether p falls inside this node's cube.
func (tree *Octree) checkPointPlacement(p r3.Vector) bool {
	half := tree.sideLength/2. + floatEpsilon
	return math.Abs(p.X-tree.center.X) <= half &&
		math.Abs(p.Y-tree.center.Y) <= half &&
		math.Abs(p.Z-tree.center.Z) <= half
}

// StateAt reports the occupancy state of the voxel containing p.
func (tree *Octree) StateAt(p r3.Vector) VoxelState {
	centroid := PointForKey(KeyForPoint(p, tree.min, tree.resolution), tree.min, tree.resolution)
	if !tree.checkPointPlacement(centroid) {
		return Unknown
	}
	return tree.stateAt(centroid)
}

func (tree *Octree) stateAt(centroid r3.Vector) VoxelState {
	switch tree.node.nodeType {
	case internalNode:
		for _, child := range tree.node.children {
			if child.checkPointPlacement(centroid) {
				return child.stateAt(centroid)
			}
		}
	case leafNodeFilled:
		if tree.node.point.ApproxEqual(centroid) {
			return tree.node.state
		}
	case leafNodeEmpty:
	}
	return tree.defaultState
}

// Size returns the number of voxels with a recorded state.
func (tree *Octree) Size() int {
	return tree.size
}

// Resolution returns the voxel edge length.
func (tree *Octree) Resolution() float64 {
	return tree.resolution
}

// Bounds returns the extent of the cube covered by the octree.
func (tree *Octree) Bounds() (r3.Vector, r3.Vector) {
	half := tree.sideLength / 2.
	return tree.min, r3.Vector{X: tree.center.X + half, Y: tree.center.Y + half, Z: tree.center.Z + half}
}

// IterateOccupied visits the centroid of every occupied voxel inside the
// window, pruning subtrees whose cube is disjoint from it.
func (tree *Octree) IterateOccupied(min, max r3.Vector, fn func(p r3.Vector) bool) {
	tree.iterateOccupied(min, max, fn)
}

func (tree *Octree) iterateOccupied(min, max r3.Vector, fn func(p r3.Vector) bool) bool {
	half := tree.sideLength/2. + floatEpsilon
	if tree.center.X+half < min.X || tree.center.X-half > max.X ||
		tree.center.Y+half < min.Y || tree.center.Y-half > max.Y ||
		tree.center.Z+half < min.Z || tree.center.Z-half > max.Z {
		return true
	}

	switch tree.node.nodeType {
	case internalNode:
		for _, child := range tree.node.children {
			if !child.iterateOccupied(min, max, fn) {
				return false
			}
		}
	case leafNodeFilled:
		p := tree.node.point
		if tree.node.state == Occupied &&
			p.X >= min.X && p.X <= max.X &&
			p.Y >= min.Y && p.Y <= max.Y &&
			p.Z >= min.Z && p.Z <= max.Z {
			return fn(p)
		}
	case leafNodeEmpty:
	}
	return true
}
