package astar

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

// Severity grades a clearance violation found along an in-flight path.
const (
	// SeverityOK means no violation ahead of the robot.
	SeverityOK = Severity(iota)
	// SeveritySoft is an advisory violation; replanning is recommended.
	SeveritySoft
	// SeverityCritical means the path must be replanned before the robot
	// reaches the offending waypoint.
	SeverityCritical
)

// Severity is the result grade of FirstUnfeasibleNode.
type Severity uint8

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeveritySoft:
		return "soft"
	default:
		return "critical"
	}
}

// PostProcessor turns raw voxel paths into safety-margin-respecting,
// simplified waypoint paths, and evaluates in-flight paths against the
// robot's live pose. Like a search, it snapshots the occupancy map at
// creation; create a fresh one after a map swap.
type PostProcessor struct {
	logger    golog.Logger
	index     *gridmap.Index
	clearance *clearanceIndex
	opts      *Options
}

// PostProcessor snapshots the planner's current map and returns a
// post-processor bound to it.
func (p *Planner) PostProcessor() (*PostProcessor, error) {
	if p.handle == nil {
		return nil, ErrMapNotSet
	}
	m, _ := p.handle.Snapshot()
	if m == nil {
		return nil, ErrMapNotSet
	}
	index, err := gridmap.NewIndex(m)
	if err != nil {
		return nil, err
	}
	min, max := m.Bounds()
	return &PostProcessor{
		logger:    p.logger,
		index:     index,
		clearance: buildClearanceIndex(m, min, max),
		opts:      p.opts,
	}, nil
}

// Process runs the full pipeline on a planned path: safety enforcement with
// pinned endpoints, then simplification. The partial flag of the input is
// preserved.
func (pp *PostProcessor) Process(pth *Path) (*Path, error) {
	keys, err := pp.SafePath(pth.Keys(), pp.opts.SafeDist, defaultSafePathIterations, -1, true)
	if err != nil {
		return nil, err
	}
	keys, err = pp.Simplify(keys)
	if err != nil {
		return nil, err
	}
	return &Path{keys: keys, waypoints: pp.Waypoints(keys), partial: pth.Partial()}, nil
}

// maxSimplifyPasses caps the fixpoint iteration of Simplify.
const maxSimplifyPasses = 10

// Simplify straightens zig-zag runs, collapses near-collinear waypoints and
// removes redundant interior points, preserving connectivity throughout.
// The pipeline is repeated until the path stops changing, so simplifying an
// already-simplified path returns it unchanged.
func (pp *PostProcessor) Simplify(keys []gridmap.Key) ([]gridmap.Key, error) {
	cur := make([]gridmap.Key, len(keys))
	copy(cur, keys)
	for pass := 0; pass < maxSimplifyPasses; pass++ {
		next, err := pp.simplifyOnce(cur)
		if err != nil {
			return nil, err
		}
		if keysEqual(next, cur) {
			break
		}
		cur = next
	}
	return cur, nil
}

func (pp *PostProcessor) simplifyOnce(keys []gridmap.Key) ([]gridmap.Key, error) {
	tolerance := defaultZigZagTolerance * pp.index.Resolution()
	out, err := pp.Straighten(keys)
	if err != nil {
		return nil, err
	}
	out, err = pp.FilterZigZag(out, tolerance)
	if err != nil {
		return nil, err
	}
	return pp.FilterWindow(out, defaultFilterWindow, tolerance, pp.opts.ClearingDist)
}

func keysEqual(a, b []gridmap.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Waypoints converts a key path to the real-world centroids of its voxels.
func (pp *PostProcessor) Waypoints(keys []gridmap.Key) []r3.Vector {
	wps := make([]r3.Vector, 0, len(keys))
	for _, k := range keys {
		wps = append(wps, pp.index.ToPoint(k))
	}
	return wps
}

// SafePath displaces every waypoint whose clearance is below safeDist along
// the away-from-nearest-obstacle direction, up to maxIter displacement
// steps per waypoint. zTolerance caps vertical displacement (negative
// disables the cap) and pinEndpoints keeps the first and last waypoints in
// place. Connectivity between consecutive waypoints is restored afterwards.
func (pp *PostProcessor) SafePath(
	keys []gridmap.Key,
	safeDist float64,
	maxIter int,
	zTolerance float64,
	pinEndpoints bool,
) ([]gridmap.Key, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPath
	}
	out := make([]gridmap.Key, len(keys))
	copy(out, keys)
	for i := range out {
		if pinEndpoints && (i == 0 || i == len(out)-1) {
			continue
		}
		out[i] = pp.pushAway(out[i], safeDist, maxIter, zTolerance)
	}
	return pp.repairConnectivity(out), nil
}

// pushAway nudges a waypoint away from its nearest obstacle in
// resolution-sized steps until the safety distance holds or the iteration
// budget runs out. The original voxel is kept when the displaced point does
// not land in a free voxel.
func (pp *PostProcessor) pushAway(k gridmap.Key, safeDist float64, maxIter int, zTolerance float64) gridmap.Key {
	orig := pp.index.ToPoint(k)
	pt := orig
	for iter := 0; iter < maxIter; iter++ {
		obs, dist := pp.clearance.nearestObstacle(pt)
		if math.IsInf(dist, 1) || dist >= safeDist {
			break
		}
		dir := pt.Sub(obs)
		if dir.Norm() < floatEpsilonDir {
			break
		}
		pt = pt.Add(dir.Normalize().Mul(pp.index.Resolution()))
		if zTolerance >= 0 && math.Abs(pt.Z-orig.Z) > zTolerance {
			pt.Z = orig.Z + math.Copysign(zTolerance, pt.Z-orig.Z)
		}
	}
	cand := pp.index.ToKey(pt)
	if cand != k && pp.index.IsFree(cand) {
		return cand
	}
	return k
}

const floatEpsilonDir = 1e-9

// Straighten replaces zig-zag runs with straight voxel runs wherever the
// straight run is fully legal: every implied cell free, clearance
// respected, and every diagonal sub-step permitted. The result is still a
// unit-step key path.
func (pp *PostProcessor) Straighten(keys []gridmap.Key) ([]gridmap.Key, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPath
	}
	out := []gridmap.Key{keys[0]}
	i := 0
	for i < len(keys)-1 {
		advanced := false
		for j := len(keys) - 1; j > i; j-- {
			line, ok := pp.segmentLegal(keys[i], keys[j])
			if ok {
				out = append(out, line[1:]...)
				i = j
				advanced = true
				break
			}
		}
		if !advanced {
			out = append(out, keys[i+1])
			i++
		}
	}
	return out, nil
}

// FilterZigZag drops interior waypoints that deviate from the line between
// their kept predecessor and their successor by less than the lateral
// tolerance, provided the two remaining waypoints stay directly
// connectable.
func (pp *PostProcessor) FilterZigZag(keys []gridmap.Key, tolerance float64) ([]gridmap.Key, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPath
	}
	if len(keys) < 3 {
		out := make([]gridmap.Key, len(keys))
		copy(out, keys)
		return out, nil
	}
	out := []gridmap.Key{keys[0]}
	for i := 1; i < len(keys)-1; i++ {
		prev := out[len(out)-1]
		next := keys[i+1]
		if pp.lateralDeviation(keys[i], prev, next) <= tolerance && pp.directlyConnectable(prev, next) {
			continue
		}
		out = append(out, keys[i])
	}
	out = append(out, keys[len(keys)-1])
	return pp.repairConnectivity(out), nil
}

// FilterWindow slides a window along the path and removes interior points
// that can be skipped: the skipped points must all have clearance above
// enabledDist (filtering only happens in open space), deviate from the
// kept chord by at most tolerance, and the two kept waypoints must remain
// directly connectable.
func (pp *PostProcessor) FilterWindow(keys []gridmap.Key, window int, tolerance, enabledDist float64) ([]gridmap.Key, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPath
	}
	if window < 2 || len(keys) < 3 {
		out := make([]gridmap.Key, len(keys))
		copy(out, keys)
		return out, nil
	}
	out := []gridmap.Key{keys[0]}
	i := 0
	for i < len(keys)-1 {
		limit := i + window
		if limit > len(keys)-1 {
			limit = len(keys) - 1
		}
		chosen := i + 1
		for j := limit; j > i+1; j-- {
			if pp.windowSkippable(keys, i, j, tolerance, enabledDist) {
				chosen = j
				break
			}
		}
		out = append(out, keys[chosen])
		i = chosen
	}
	return out, nil
}

func (pp *PostProcessor) windowSkippable(keys []gridmap.Key, i, j int, tolerance, enabledDist float64) bool {
	for t := i + 1; t < j; t++ {
		if pp.clearanceAt(keys[t]) <= enabledDist {
			return false
		}
		if pp.lateralDeviation(keys[t], keys[i], keys[j]) > tolerance {
			return false
		}
	}
	return pp.directlyConnectable(keys[i], keys[j])
}

// FirstUnfeasibleNode scans the path forward from the index nearest the
// live pose and reports the first future waypoint whose clearance violates
// a threshold. A critical violation anywhere ahead wins over an earlier
// soft one; predicted lookahead poses are checked the same way. nForward
// caps how many waypoints ahead are scanned (0 scans the whole remainder).
// The index -1 with SeverityOK means the path is feasible as far as it was
// scanned.
func (pp *PostProcessor) FirstUnfeasibleNode(
	keys []gridmap.Key,
	lookahead []r3.Vector,
	nForward int,
	pose r3.Vector,
	softDist, criticalDist float64,
) (int, Severity) {
	if len(keys) == 0 {
		return -1, SeverityOK
	}

	start := 0
	bestDist := math.Inf(1)
	for i, k := range keys {
		if d := pp.index.ToPoint(k).Distance(pose); d < bestDist {
			bestDist = d
			start = i
		}
	}

	end := len(keys)
	if nForward > 0 && start+nForward+1 < end {
		end = start + nForward + 1
	}

	softIdx := -1
	for i := start; i < end; i++ {
		c := pp.clearanceAt(keys[i])
		if c < criticalDist {
			return i, SeverityCritical
		}
		if c < softDist && softIdx < 0 {
			softIdx = i
		}
	}
	for _, lp := range lookahead {
		c := pp.clearance.nearestObstacleDistance(lp)
		if c < criticalDist {
			return start, SeverityCritical
		}
		if c < softDist && softIdx < 0 {
			softIdx = start
		}
	}
	if softIdx >= 0 {
		return softIdx, SeveritySoft
	}
	return -1, SeverityOK
}

// clearanceAt returns the clearance of a voxel centroid.
func (pp *PostProcessor) clearanceAt(k gridmap.Key) float64 {
	return pp.clearance.nearestObstacleDistance(pp.index.ToPoint(k))
}

// validKey reports whether a voxel is free and respects the safety margin.
func (pp *PostProcessor) validKey(k gridmap.Key) bool {
	return pp.index.IsFree(k) && pp.clearanceAt(k) >= pp.opts.SafeDist
}

// connected reports whether two voxels are neighbors under the 26-connected
// model with all diagonal guard cells free.
func (pp *PostProcessor) connected(a, b gridmap.Key) bool {
	if a.Chebyshev(b) != 1 {
		return false
	}
	for _, g := range guardsFor(b.Sub(a)) {
		if !pp.index.IsFree(a.Add(g)) {
			return false
		}
	}
	return true
}

// directlyConnectable reports whether a straight, fully legal run exists
// between two kept waypoints.
func (pp *PostProcessor) directlyConnectable(a, b gridmap.Key) bool {
	if a == b {
		return true
	}
	if a.Chebyshev(b) == 1 {
		return pp.connected(a, b)
	}
	_, ok := pp.segmentLegal(a, b)
	return ok
}

// segmentLegal walks the discrete straight line between two voxels and
// checks every implied transition for occupancy, clearance and diagonal
// legality. It returns the full cell chain when legal.
func (pp *PostProcessor) segmentLegal(a, b gridmap.Key) ([]gridmap.Key, bool) {
	line := discreteLine(a, b)
	for i := 1; i < len(line); i++ {
		prev, cur := line[i-1], line[i]
		if i < len(line)-1 {
			if !pp.validKey(cur) {
				return nil, false
			}
		} else if !pp.index.IsFree(cur) {
			return nil, false
		}
		for _, g := range guardsFor(cur.Sub(prev)) {
			if !pp.index.IsFree(prev.Add(g)) {
				return nil, false
			}
		}
	}
	return line, true
}

// discreteLine interpolates the straight voxel chain between two keys; each
// consecutive pair differs by at most one step per axis.
func discreteLine(a, b gridmap.Key) []gridmap.Key {
	d := b.Sub(a)
	n := a.Chebyshev(b)
	line := make([]gridmap.Key, 0, n+1)
	line = append(line, a)
	for t := int64(1); t <= n; t++ {
		f := float64(t) / float64(n)
		line = append(line, gridmap.Key{
			I: a.I + int64(math.Round(float64(d.I)*f)),
			J: a.J + int64(math.Round(float64(d.J)*f)),
			K: a.K + int64(math.Round(float64(d.K)*f)),
		})
	}
	return line
}

// lateralDeviation returns the distance from k's centroid to the segment
// between a's and b's centroids.
func (pp *PostProcessor) lateralDeviation(k, a, b gridmap.Key) float64 {
	p := pp.index.ToPoint(k)
	pa := pp.index.ToPoint(a)
	pb := pp.index.ToPoint(b)
	ab := pb.Sub(pa)
	denom := ab.Dot(ab)
	if denom < floatEpsilonDir {
		return p.Distance(pa)
	}
	t := p.Sub(pa).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.Distance(pa.Add(ab.Mul(t)))
}

// repairConnectivity walks consecutive waypoint pairs and, wherever the
// direct connection between them is no longer legal, inserts the minimal
// detour that restores a legal, clearance-respecting connection.
func (pp *PostProcessor) repairConnectivity(keys []gridmap.Key) []gridmap.Key {
	if len(keys) < 2 {
		return keys
	}
	out := make([]gridmap.Key, 0, len(keys))
	out = append(out, keys[0])
	for i := 1; i < len(keys); i++ {
		prev := out[len(out)-1]
		cur := keys[i]
		if cur == prev {
			continue
		}
		if pp.directlyConnectable(prev, cur) {
			out = append(out, cur)
			continue
		}
		conn, ok := pp.findConnection(prev, cur)
		if !ok {
			pp.logger.Debugf("could not restore connectivity between %v and %v", prev, cur)
			out = append(out, cur)
			continue
		}
		out = append(out, conn...)
		out = append(out, cur)
	}
	return out
}

// findConnection returns intermediate waypoints legally linking two
// disconnected waypoints. Candidate single-cell detours are ranked by their
// worst-case clearance; longer gaps fall back to a greedy walk toward the
// target.
func (pp *PostProcessor) findConnection(a, b gridmap.Key) ([]gridmap.Key, bool) {
	// one intermediate cell is enough for gaps of up to two steps
	if a.Chebyshev(b) <= 2 {
		if c, ok := pp.bestSingleConnection(a, b); ok {
			return []gridmap.Key{c}, true
		}
	}
	return pp.walkConnection(a, b)
}

// bestSingleConnection picks, among cells adjacent to both endpoints, the
// valid one with the best clearance.
func (pp *PostProcessor) bestSingleConnection(a, b gridmap.Key) (gridmap.Key, bool) {
	bestClearance := -1.0
	var best gridmap.Key
	for di := int64(-1); di <= 1; di++ {
		for dj := int64(-1); dj <= 1; dj++ {
			for dk := int64(-1); dk <= 1; dk++ {
				c := a.Add(gridmap.Key{I: di, J: dj, K: dk})
				if c == a || c == b {
					continue
				}
				if !pp.validKey(c) || !pp.connected(a, c) || !pp.connected(c, b) {
					continue
				}
				if cl := pp.clearanceAt(c); cl > bestClearance {
					bestClearance = cl
					best = c
				}
			}
		}
	}
	return best, bestClearance >= 0
}

// walkConnection greedily steps from a toward b through valid cells,
// preferring progress and breaking ties on clearance.
func (pp *PostProcessor) walkConnection(a, b gridmap.Key) ([]gridmap.Key, bool) {
	visited := map[gridmap.Key]bool{a: true, b: true}
	conn := make([]gridmap.Key, 0)
	cur := a
	for step := int64(0); step < 4*a.Chebyshev(b)+4; step++ {
		if pp.connected(cur, b) || pp.directlyConnectable(cur, b) {
			return conn, true
		}
		bestDist := int64(math.MaxInt64)
		bestClearance := -1.0
		var best gridmap.Key
		found := false
		for di := int64(-1); di <= 1; di++ {
			for dj := int64(-1); dj <= 1; dj++ {
				for dk := int64(-1); dk <= 1; dk++ {
					c := cur.Add(gridmap.Key{I: di, J: dj, K: dk})
					if c == cur || visited[c] || !pp.validKey(c) || !pp.connected(cur, c) {
						continue
					}
					d := c.Chebyshev(b)
					cl := pp.clearanceAt(c)
					if d < bestDist || (d == bestDist && cl > bestClearance) {
						bestDist = d
						bestClearance = cl
						best = c
						found = true
					}
				}
			}
		}
		if !found {
			return nil, false
		}
		visited[best] = true
		conn = append(conn, best)
		cur = best
	}
	return nil, false
}
