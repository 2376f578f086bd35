package astar

import (
	"testing"

	"go.viam.com/test"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

func TestPruningTables26(t *testing.T) {
	tables := newPruningTables(26)
	test.That(t, tables.connectivity, test.ShouldEqual, 26)
	test.That(t, len(tables.moves), test.ShouldEqual, 26)

	counts := map[moveClass]int{}
	for _, m := range tables.moves {
		counts[m.class]++
		switch m.class {
		case moveAxial:
			test.That(t, len(m.guards), test.ShouldEqual, 0)
		case moveFaceDiagonal:
			test.That(t, len(m.guards), test.ShouldEqual, 2)
		case moveCornerDiagonal:
			test.That(t, len(m.guards), test.ShouldEqual, 3)
		}
	}
	test.That(t, counts[moveAxial], test.ShouldEqual, 6)
	test.That(t, counts[moveFaceDiagonal], test.ShouldEqual, 12)
	test.That(t, counts[moveCornerDiagonal], test.ShouldEqual, 8)
}

func TestPruningTables6(t *testing.T) {
	tables := newPruningTables(6)
	test.That(t, len(tables.moves), test.ShouldEqual, 6)
	for _, m := range tables.moves {
		test.That(t, m.class, test.ShouldEqual, moveAxial)
		test.That(t, len(m.guards), test.ShouldEqual, 0)
	}
}

func TestGuards(t *testing.T) {
	t.Run("face diagonal guards are its axial components", func(t *testing.T) {
		tables := newPruningTables(26)
		var found *move
		for i, m := range tables.moves {
			if m.offset == (gridmap.Key{I: 1, J: -1, K: 0}) {
				found = &tables.moves[i]
			}
		}
		test.That(t, found, test.ShouldNotBeNil)
		test.That(t, found.guards, test.ShouldResemble, []gridmap.Key{
			{I: 1},
			{J: -1},
		})
	})

	t.Run("guardsFor matches the move table", func(t *testing.T) {
		test.That(t, guardsFor(gridmap.Key{I: 1}), test.ShouldBeNil)
		test.That(t, guardsFor(gridmap.Key{K: -1}), test.ShouldBeNil)
		test.That(t, guardsFor(gridmap.Key{I: -1, J: 1, K: 1}), test.ShouldResemble, []gridmap.Key{
			{I: -1},
			{J: 1},
			{K: 1},
		})
	})
}
