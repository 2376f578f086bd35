package gridmap

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Index converts between real-world coordinates and voxel keys for one Map.
// Resolution and bounds are fixed at construction; every component that
// plans against the map goes through the same Index so that search-space
// and real-world units cannot drift apart.
type Index struct {
	m          Map
	resolution float64
	min, max   r3.Vector
	cells      Key
}

// NewIndex builds an index over the given occupancy map.
func NewIndex(m Map) (*Index, error) {
	if m == nil {
		return nil, errors.New("cannot index a nil map")
	}
	min, max := m.Bounds()
	res := m.Resolution()
	if res <= 0 {
		return nil, errors.Errorf("invalid map resolution %f", res)
	}
	return &Index{
		m:          m,
		resolution: res,
		min:        min,
		max:        max,
		cells: Key{
			I: int64(math.Round((max.X - min.X) / res)),
			J: int64(math.Round((max.Y - min.Y) / res)),
			K: int64(math.Round((max.Z - min.Z) / res)),
		},
	}, nil
}

// Resolution returns the voxel edge length.
func (idx *Index) Resolution() float64 {
	return idx.resolution
}

// Bounds returns the indexed extent.
func (idx *Index) Bounds() (r3.Vector, r3.Vector) {
	return idx.min, idx.max
}

// ToKey discretizes a real-world point into its voxel key.
func (idx *Index) ToKey(p r3.Vector) Key {
	return KeyForPoint(p, idx.min, idx.resolution)
}

// ToPoint returns the real-world centroid of a voxel.
func (idx *Index) ToPoint(k Key) r3.Vector {
	return PointForKey(k, idx.min, idx.resolution)
}

// WithinBounds reports whether the key addresses a voxel inside the volume.
func (idx *Index) WithinBounds(k Key) bool {
	return k.I >= 0 && k.I < idx.cells.I &&
		k.J >= 0 && k.J < idx.cells.J &&
		k.K >= 0 && k.K < idx.cells.K
}

// StateAt reports the occupancy state of a voxel. Out-of-bounds voxels are
// Unknown.
func (idx *Index) StateAt(k Key) VoxelState {
	if !idx.WithinBounds(k) {
		return Unknown
	}
	return idx.m.StateAt(idx.ToPoint(k))
}

// IsOccupied reports whether a voxel is known occupied.
func (idx *Index) IsOccupied(k Key) bool {
	return idx.StateAt(k) == Occupied
}

// IsFree reports whether a voxel is known free. Unknown voxels are not free.
func (idx *Index) IsFree(k Key) bool {
	return idx.StateAt(k) == Free
}

// EuclideanDist returns the real-world distance between two voxel centroids.
func (idx *Index) EuclideanDist(a, b Key) float64 {
	return idx.ToPoint(a).Distance(idx.ToPoint(b))
}
