package gridmap

import (
	"math"

	"github.com/golang/geo/r3"
)

// Key identifies a single voxel of the discretized volume. Keys are plain
// integer triples and are usable directly as map keys.
type Key struct {
	I, J, K int64
}

// Add returns the key offset by o.
func (k Key) Add(o Key) Key {
	return Key{k.I + o.I, k.J + o.J, k.K + o.K}
}

// Sub returns the componentwise difference k - o.
func (k Key) Sub(o Key) Key {
	return Key{k.I - o.I, k.J - o.J, k.K - o.K}
}

// Chebyshev returns the chessboard distance between two keys, i.e. the
// number of 26-connected steps between them.
func (k Key) Chebyshev(o Key) int64 {
	d := int64(0)
	for _, v := range []int64{k.I - o.I, k.J - o.J, k.K - o.K} {
		if v < 0 {
			v = -v
		}
		if v > d {
			d = v
		}
	}
	return d
}

// Manhattan returns the L1 distance between two keys in grid units.
func (k Key) Manhattan(o Key) int64 {
	d := int64(0)
	for _, v := range []int64{k.I - o.I, k.J - o.J, k.K - o.K} {
		if v < 0 {
			v = -v
		}
		d += v
	}
	return d
}

// VoxelState classifies a voxel of the occupancy volume.
type VoxelState uint8

// A voxel is either known free, known occupied, or unknown. Unknown voxels
// are never traversable, but are distinguished from occupied ones for
// diagnostics.
const (
	Free = VoxelState(iota)
	Occupied
	Unknown
)

func (s VoxelState) String() string {
	switch s {
	case Free:
		return "free"
	case Occupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// KeyForPoint discretizes a point into its voxel key, given the minimum
// corner of the volume and the voxel edge length.
func KeyForPoint(p, min r3.Vector, resolution float64) Key {
	return Key{
		I: int64(math.Floor((p.X - min.X) / resolution)),
		J: int64(math.Floor((p.Y - min.Y) / resolution)),
		K: int64(math.Floor((p.Z - min.Z) / resolution)),
	}
}

// PointForKey returns the centroid of the voxel identified by k.
func PointForKey(k Key, min r3.Vector, resolution float64) r3.Vector {
	return r3.Vector{
		X: min.X + (float64(k.I)+0.5)*resolution,
		Y: min.Y + (float64(k.J)+0.5)*resolution,
		Z: min.Z + (float64(k.K)+0.5)*resolution,
	}
}
