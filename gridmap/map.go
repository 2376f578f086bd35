// Package gridmap implements a sparse voxel occupancy volume and the fixed
// grid discretization shared by everything that plans against it.
package gridmap

import (
	"github.com/golang/geo/r3"
)

// Map is an occupancy volume over a bounded region of 3D space. A Map is
// read-only from the planner's point of view; providers build or update maps
// and swap them in wholesale through a Handle.
type Map interface {
	// StateAt reports the occupancy state of the voxel containing p.
	// Points outside the mapped bounds report Unknown.
	StateAt(p r3.Vector) VoxelState

	// Size returns the number of voxels with an explicitly recorded state.
	Size() int

	// Resolution returns the voxel edge length.
	Resolution() float64

	// Bounds returns the axis-aligned extent of the mapped region.
	Bounds() (min, max r3.Vector)

	// IterateOccupied calls fn with the centroid of every occupied voxel
	// whose centroid lies inside the given window, stopping early if fn
	// returns false.
	IterateOccupied(min, max r3.Vector, fn func(p r3.Vector) bool)
}
