package astar

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

// clearanceIndex answers nearest-obstacle queries against the set of
// occupied voxels known at build time. It is a snapshot: it must be rebuilt
// whenever the occupancy map or the bounding window changes, and gives no
// staleness notification. Restricting the build to a window around the
// planning corridor bounds the rebuild cost at the price of not seeing
// obstacles outside the window.
type clearanceIndex struct {
	tree *kdtree.Tree
	size int
}

// buildClearanceIndex indexes the occupied voxel centroids of m inside the
// given window.
func buildClearanceIndex(m gridmap.Map, min, max r3.Vector) *clearanceIndex {
	pts := make(kdtree.Points, 0)
	m.IterateOccupied(min, max, func(p r3.Vector) bool {
		pts = append(pts, kdtree.Point{p.X, p.Y, p.Z})
		return true
	})
	if len(pts) == 0 {
		return &clearanceIndex{}
	}
	return &clearanceIndex{tree: kdtree.New(pts, false), size: len(pts)}
}

// nearestObstacleDistance returns the Euclidean distance from p to the
// closest indexed obstacle, +Inf when the index is empty.
func (c *clearanceIndex) nearestObstacleDistance(p r3.Vector) float64 {
	_, dist := c.nearestObstacle(p)
	return dist
}

// nearestObstacle returns the closest indexed obstacle and its distance.
func (c *clearanceIndex) nearestObstacle(p r3.Vector) (r3.Vector, float64) {
	if c == nil || c.tree == nil {
		return r3.Vector{}, math.Inf(1)
	}
	got, dist2 := c.tree.Nearest(kdtree.Point{p.X, p.Y, p.Z})
	q := got.(kdtree.Point)
	// gonum's kd-tree reports squared Euclidean distances.
	return r3.Vector{X: q[0], Y: q[1], Z: q[2]}, math.Sqrt(dist2)
}
