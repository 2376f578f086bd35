package astar

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

// substitutionRadius bounds the neighborhood scanned for a valid substitute
// when a start or goal voxel is invalid, in voxels.
const substitutionRadius = 3

// search holds the state of one planning call. It is created fresh per call
// and discarded when the call returns.
type search struct {
	opts    *Options
	logger  golog.Logger
	clk     clock.Clock
	planner *Planner

	index     *gridmap.Index
	clearance *clearanceIndex
	tables    *pruningTables

	open   *openSet
	closed map[gridmap.Key]*node
	arena  map[gridmap.Key]*node

	seq        uint64
	expansions int
	mapVersion uint64
}

// run executes the A* loop from start to goal, returning the key path, a
// flag marking timeout-truncated partial results, and an error on failure.
func (s *search) run(ctx context.Context, start, goal r3.Vector) ([]gridmap.Key, bool, error) {
	startKey, err := s.validateEndpoint(s.index.ToKey(start), ErrInvalidStart)
	if err != nil {
		return nil, false, err
	}
	goalKey, err := s.validateEndpoint(s.index.ToKey(goal), ErrInvalidGoal)
	if err != nil {
		return nil, false, err
	}
	goalPose := s.index.ToPoint(goalKey)
	s.planner.lastFoundGoal = goalPose
	s.planner.haveLastGoal = true

	startNode := &node{key: startKey, parent: startKey, pose: s.index.ToPoint(startKey)}
	startNode.hCost = s.heuristic(startNode.pose, goalPose)
	startNode.fCost = startNode.hCost
	startNode.seq = s.seq
	s.seq++
	s.arena[startKey] = startNode
	s.open.pushNode(startNode)

	began := s.clk.Now()
	budget := time.Duration(s.opts.PlanningTimeout * float64(time.Second))
	best := startNode

	for s.open.Len() > 0 {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}
		if s.clk.Since(began) > budget {
			if s.opts.BreakAtTimeout {
				if s.opts.Verbose {
					s.logger.Debugf("planning timed out after %d expansions, returning partial path to %v", s.expansions, best.key)
				}
				return extractKeyPath(s.arena, best.key), true, nil
			}
			return nil, false, ErrTimeout
		}

		n := s.open.popMin()
		s.closed[n.key] = n
		s.expansions++
		if s.betterPartial(n, best) {
			best = n
		}

		if n.key == goalKey {
			if s.opts.Verbose {
				s.logger.Debugf("path found after %d expansions, %d nodes on path, length %.3f",
					s.expansions, n.nNodes+1, n.gCost)
			}
			return extractKeyPath(s.arena, goalKey), false, nil
		}

		s.expandNeighbors(n, goalPose)
	}
	return nil, false, ErrNoPath
}

// expandNeighbors generates the legal neighbor transitions of n and relaxes
// them into the open set.
func (s *search) expandNeighbors(n *node, goalPose r3.Vector) {
	for _, mv := range s.tables.moves {
		nk := n.key.Add(mv.offset)
		if _, ok := s.closed[nk]; ok {
			continue
		}
		if !s.validCell(nk) {
			continue
		}
		if !s.guardsClear(n.key, mv.guards) {
			continue
		}

		pose := s.index.ToPoint(nk)
		tentative := n.gCost + n.pose.Distance(pose)

		if existing, ok := s.open.get(nk); ok {
			if tentative < existing.gCost {
				existing.gCost = tentative
				existing.fCost = tentative + existing.hCost
				existing.parent = n.key
				existing.obsCost = n.obsCost + s.proximityPenalty(pose)
				existing.pathCost = tentative
				existing.nNodes = n.nNodes + 1
				s.open.decreaseKey(existing)
			}
			continue
		}

		nb := &node{
			key:      nk,
			parent:   n.key,
			pose:     pose,
			gCost:    tentative,
			hCost:    s.heuristic(pose, goalPose),
			obsCost:  n.obsCost + s.proximityPenalty(pose),
			pathCost: tentative,
			nNodes:   n.nNodes + 1,
			seq:      s.seq,
		}
		s.seq++
		nb.fCost = nb.gCost + nb.hCost
		s.arena[nk] = nb
		s.open.pushNode(nb)
	}
}

// validCell reports whether a voxel is traversable: in bounds, known free,
// and clear of obstacles by at least the safety distance.
func (s *search) validCell(k gridmap.Key) bool {
	if !s.index.IsFree(k) {
		return false
	}
	return s.clearance.nearestObstacleDistance(s.index.ToPoint(k)) >= s.opts.SafeDist
}

// guardsClear reports whether every axial cell a diagonal move cuts past is
// free and within bounds.
func (s *search) guardsClear(base gridmap.Key, guards []gridmap.Key) bool {
	for _, g := range guards {
		if !s.index.IsFree(base.Add(g)) {
			return false
		}
	}
	return true
}

// proximityPenalty is the diagnostic obstacle-proximity cost of visiting a
// pose, zero once the pose is at least the clearing distance from anything.
func (s *search) proximityPenalty(pose r3.Vector) float64 {
	c := s.clearance.nearestObstacleDistance(pose)
	if c >= s.opts.ClearingDist {
		return 0
	}
	return s.opts.ClearingDist - c
}

// betterPartial reports whether n beats the current best partial-result
// candidate under the configured tie-break.
func (s *search) betterPartial(n, best *node) bool {
	if s.opts.TimeoutTiebreak == TiebreakFCost {
		return n.fCost < best.fCost
	}
	return n.hCost < best.hCost
}

// heuristic estimates the remaining cost between two poses.
func (s *search) heuristic(a, b r3.Vector) float64 {
	diff := []float64{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
	if s.opts.Heuristic == HeuristicManhattan {
		return floats.Norm(diff, 1)
	}
	return floats.Norm(diff, 2)
}

// validateEndpoint repairs an invalid start or goal voxel by substituting
// the nearest valid voxel in its local neighborhood when enabled, and fails
// with the given sentinel otherwise.
func (s *search) validateEndpoint(k gridmap.Key, invalid error) (gridmap.Key, error) {
	if s.validCell(k) {
		return k, nil
	}
	if !s.opts.EnablePlanningToUnreachableGoal {
		return k, invalid
	}
	sub, ok := s.nearestValidKey(k)
	if !ok {
		return k, errors.Wrap(invalid, "no valid substitute in the local neighborhood")
	}
	return sub, nil
}

// nearestValidKey scans expanding cube shells around k and returns the
// valid voxel closest to k's centroid. The scan order is fixed, so the
// substitution is deterministic.
func (s *search) nearestValidKey(k gridmap.Key) (gridmap.Key, bool) {
	for r := int64(1); r <= substitutionRadius; r++ {
		bestDist := math.Inf(1)
		var best gridmap.Key
		found := false
		for di := -r; di <= r; di++ {
			for dj := -r; dj <= r; dj++ {
				for dk := -r; dk <= r; dk++ {
					offset := gridmap.Key{I: di, J: dj, K: dk}
					if offset.Chebyshev(gridmap.Key{}) != r {
						continue
					}
					cand := k.Add(offset)
					if !s.validCell(cand) {
						continue
					}
					if d := s.index.EuclideanDist(cand, k); d < bestDist {
						bestDist = d
						best = cand
						found = true
					}
				}
			}
		}
		if found {
			return best, true
		}
	}
	return gridmap.Key{}, false
}

// newPath pairs a key path with its real-world waypoints.
func (s *search) newPath(keys []gridmap.Key, partial bool) *Path {
	wps := make([]r3.Vector, 0, len(keys))
	for _, k := range keys {
		wps = append(wps, s.index.ToPoint(k))
	}
	return &Path{keys: keys, waypoints: wps, partial: partial}
}

// openPoses returns the poses still on the open set, for diagnostics.
func (s *search) openPoses() []r3.Vector {
	poses := make([]r3.Vector, 0, len(s.open.nodes))
	for _, n := range s.open.nodes {
		poses = append(poses, n.pose)
	}
	return poses
}

// closedPoses returns the poses of all expanded nodes, for diagnostics.
func (s *search) closedPoses() []r3.Vector {
	poses := make([]r3.Vector, 0, len(s.closed))
	for _, n := range s.closed {
		poses = append(poses, n.pose)
	}
	return poses
}
