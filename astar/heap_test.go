package astar

import (
	"testing"

	"go.viam.com/test"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

func TestOpenSetOrdering(t *testing.T) {
	s := newOpenSet()
	test.That(t, s.popMin(), test.ShouldBeNil)

	a := &node{key: gridmap.Key{I: 1}, fCost: 3, hCost: 1, seq: 0}
	b := &node{key: gridmap.Key{I: 2}, fCost: 1, hCost: 1, seq: 1}
	c := &node{key: gridmap.Key{I: 3}, fCost: 2, hCost: 2, seq: 2}
	for _, n := range []*node{a, b, c} {
		s.pushNode(n)
	}

	test.That(t, s.popMin(), test.ShouldEqual, b)
	test.That(t, s.popMin(), test.ShouldEqual, c)
	test.That(t, s.popMin(), test.ShouldEqual, a)
	test.That(t, s.Len(), test.ShouldEqual, 0)
}

func TestOpenSetTieBreaks(t *testing.T) {
	s := newOpenSet()
	// equal f costs break on h, then on insertion order
	lowH := &node{key: gridmap.Key{I: 1}, fCost: 5, hCost: 1, seq: 0}
	highH := &node{key: gridmap.Key{I: 2}, fCost: 5, hCost: 4, seq: 1}
	sameLate := &node{key: gridmap.Key{I: 3}, fCost: 5, hCost: 1, seq: 2}
	for _, n := range []*node{highH, sameLate, lowH} {
		s.pushNode(n)
	}

	test.That(t, s.popMin(), test.ShouldEqual, lowH)
	test.That(t, s.popMin(), test.ShouldEqual, sameLate)
	test.That(t, s.popMin(), test.ShouldEqual, highH)
}

func TestOpenSetMembership(t *testing.T) {
	s := newOpenSet()
	n := &node{key: gridmap.Key{I: 7, J: 8, K: 9}, fCost: 1}
	s.pushNode(n)

	got, ok := s.get(n.key)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, n)

	_, ok = s.get(gridmap.Key{I: 1})
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, s.popMin(), test.ShouldEqual, n)
	_, ok = s.get(n.key)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestOpenSetDecreaseKey(t *testing.T) {
	s := newOpenSet()
	a := &node{key: gridmap.Key{I: 1}, gCost: 9, fCost: 10, seq: 0}
	b := &node{key: gridmap.Key{I: 2}, gCost: 4, fCost: 5, seq: 1}
	s.pushNode(a)
	s.pushNode(b)

	// relax a below b, as neighbor expansion does
	a.gCost = 2
	a.fCost = 3
	s.decreaseKey(a)

	test.That(t, s.popMin(), test.ShouldEqual, a)
	test.That(t, s.popMin(), test.ShouldEqual, b)
}
