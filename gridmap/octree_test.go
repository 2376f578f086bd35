package gridmap

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewOctree(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("invalid side length", func(t *testing.T) {
		_, err := NewOctree(r3.Vector{}, 0, 1, Free, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("invalid resolution", func(t *testing.T) {
		_, err := NewOctree(r3.Vector{}, 10, 0, Free, logger)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewOctree(r3.Vector{}, 10, 20, Free, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("valid tree", func(t *testing.T) {
		tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Free, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tree.Size(), test.ShouldEqual, 0)
		test.That(t, tree.Resolution(), test.ShouldEqual, 1.0)

		min, max := tree.Bounds()
		test.That(t, min, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0})
		test.That(t, max, test.ShouldResemble, r3.Vector{X: 10, Y: 10, Z: 10})
	})
}

func TestOctreeSetAndState(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("default state inside bounds, unknown outside", func(t *testing.T) {
		tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Free, logger)
		test.That(t, err, test.ShouldBeNil)

		test.That(t, tree.StateAt(r3.Vector{X: 3.2, Y: 7.9, Z: 0.5}), test.ShouldEqual, Free)
		test.That(t, tree.StateAt(r3.Vector{X: -1, Y: 5, Z: 5}), test.ShouldEqual, Unknown)
		test.That(t, tree.StateAt(r3.Vector{X: 5, Y: 5, Z: 11}), test.ShouldEqual, Unknown)
	})

	t.Run("set and query a voxel", func(t *testing.T) {
		tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Free, logger)
		test.That(t, err, test.ShouldBeNil)

		test.That(t, tree.Set(r3.Vector{X: 2.3, Y: 4.8, Z: 6.1}, Occupied), test.ShouldBeNil)
		test.That(t, tree.Size(), test.ShouldEqual, 1)

		// any point of the same voxel reports the recorded state
		test.That(t, tree.StateAt(r3.Vector{X: 2.9, Y: 4.1, Z: 6.9}), test.ShouldEqual, Occupied)
		// the next voxel over is untouched
		test.That(t, tree.StateAt(r3.Vector{X: 3.5, Y: 4.5, Z: 6.5}), test.ShouldEqual, Free)
	})

	t.Run("overwriting does not grow the tree", func(t *testing.T) {
		tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Unknown, logger)
		test.That(t, err, test.ShouldBeNil)

		test.That(t, tree.Set(r3.Vector{X: 1.5, Y: 1.5, Z: 1.5}, Occupied), test.ShouldBeNil)
		test.That(t, tree.Set(r3.Vector{X: 1.5, Y: 1.5, Z: 1.5}, Free), test.ShouldBeNil)
		test.That(t, tree.Size(), test.ShouldEqual, 1)
		test.That(t, tree.StateAt(r3.Vector{X: 1.5, Y: 1.5, Z: 1.5}), test.ShouldEqual, Free)
	})

	t.Run("many voxels force octant splits", func(t *testing.T) {
		tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Free, logger)
		test.That(t, err, test.ShouldBeNil)

		count := 0
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				p := r3.Vector{X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: 2.5}
				test.That(t, tree.Set(p, Occupied), test.ShouldBeNil)
				count++
			}
		}
		test.That(t, tree.Size(), test.ShouldEqual, count)
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				p := r3.Vector{X: float64(x) + 0.5, Y: float64(y) + 0.5, Z: 2.5}
				test.That(t, tree.StateAt(p), test.ShouldEqual, Occupied)
			}
		}
	})

	t.Run("out of bounds set fails", func(t *testing.T) {
		tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Free, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tree.Set(r3.Vector{X: 20, Y: 5, Z: 5}, Occupied), test.ShouldNotBeNil)
	})
}

func TestOctreeIterateOccupied(t *testing.T) {
	logger := golog.NewTestLogger(t)
	tree, err := NewOctree(r3.Vector{X: 5, Y: 5, Z: 5}, 10, 1, Free, logger)
	test.That(t, err, test.ShouldBeNil)

	occupied := []r3.Vector{
		{X: 1.5, Y: 1.5, Z: 1.5},
		{X: 2.5, Y: 2.5, Z: 2.5},
		{X: 8.5, Y: 8.5, Z: 8.5},
	}
	for _, p := range occupied {
		test.That(t, tree.Set(p, Occupied), test.ShouldBeNil)
	}
	// unknown voxels must not show up as occupied
	test.That(t, tree.Set(r3.Vector{X: 4.5, Y: 4.5, Z: 4.5}, Unknown), test.ShouldBeNil)

	t.Run("full window", func(t *testing.T) {
		got := make([]r3.Vector, 0)
		tree.IterateOccupied(r3.Vector{}, r3.Vector{X: 10, Y: 10, Z: 10}, func(p r3.Vector) bool {
			got = append(got, p)
			return true
		})
		test.That(t, len(got), test.ShouldEqual, 3)
	})

	t.Run("restricted window", func(t *testing.T) {
		got := make([]r3.Vector, 0)
		tree.IterateOccupied(r3.Vector{}, r3.Vector{X: 4, Y: 4, Z: 4}, func(p r3.Vector) bool {
			got = append(got, p)
			return true
		})
		test.That(t, len(got), test.ShouldEqual, 2)
	})

	t.Run("early stop", func(t *testing.T) {
		got := 0
		tree.IterateOccupied(r3.Vector{}, r3.Vector{X: 10, Y: 10, Z: 10}, func(r3.Vector) bool {
			got++
			return false
		})
		test.That(t, got, test.ShouldEqual, 1)
	})
}
