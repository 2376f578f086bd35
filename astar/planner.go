// Package astar plans collision-free, clearance-respecting paths through a
// voxel occupancy volume using grid-based A* search, and post-processes the
// raw voxel paths into simplified waypoint sequences.
package astar

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/kestrel-robotics/gridplan/gridmap"
)

// corridorReserveCells pads the clearance-index window around the planning
// corridor, in voxels.
const corridorReserveCells = 10

// Planner computes voxel paths between real-world points against a shared
// occupancy map. A Planner is configured once and reused across many
// planning calls; per-call search state is created fresh for every call. A
// single Planner is not safe for concurrent reentrant calls.
type Planner struct {
	logger golog.Logger
	opts   *Options
	clock  clock.Clock
	tables *pruningTables
	handle *gridmap.Handle
	sink   SnapshotSink

	lastFoundGoal r3.Vector
	haveLastGoal  bool
}

// NewPlanner creates a planner with the given options. A nil options
// pointer selects the defaults.
func NewPlanner(opts *Options, logger golog.Logger) (*Planner, error) {
	if opts == nil {
		opts = NewBasicOptions()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Planner{
		logger: logger,
		opts:   opts,
		clock:  clock.New(),
		tables: newPruningTables(opts.connectivity()),
	}, nil
}

// SetMap supplies the occupancy map handle to plan against. The map behind
// the handle is read-only for the planner; providers swap in new maps
// through the same handle.
func (p *Planner) SetMap(h *gridmap.Handle) {
	p.handle = h
}

// SetSnapshotSink installs a write-only receiver for diagnostic snapshots,
// emitted after each search when the debug option is set.
func (p *Planner) SetSnapshotSink(s SnapshotSink) {
	p.sink = s
}

// SetSafeDist adjusts the minimum clearance between calls, e.g. when the
// navigation layer degrades the margin to escape a tight spot.
func (p *Planner) SetSafeDist(d float64) {
	p.opts.SafeDist = d
}

// LastFoundGoal returns the goal the most recent successful search actually
// planned to, which differs from the requested goal when the nearest-valid
// substitution kicked in. The second return is false before any search.
func (p *Planner) LastFoundGoal() (r3.Vector, bool) {
	return p.lastFoundGoal, p.haveLastGoal
}

// Path is the result of one planning call: an ordered voxel key path and
// its real-world waypoint counterparts. Partial reports whether the path is
// a best-effort prefix returned on timeout rather than a path to the goal.
type Path struct {
	keys      []gridmap.Key
	waypoints []r3.Vector
	partial   bool
}

// Keys returns the ordered voxel keys from start to the terminal node.
func (pth *Path) Keys() []gridmap.Key {
	return pth.keys
}

// Waypoints returns the voxel centroids of the key path in order.
func (pth *Path) Waypoints() []r3.Vector {
	return pth.waypoints
}

// Partial reports whether the path was cut short by the planning timeout.
// Partial paths are not guaranteed to reach the goal and must be validated
// by the caller before being acted on.
func (pth *Path) Partial() bool {
	return pth.partial
}

// Len returns the number of waypoints in the path.
func (pth *Path) Len() int {
	return len(pth.keys)
}

// Plan searches for a minimal-cost voxel path between two real-world
// points. The context is polled cooperatively between node expansions, as
// is the wall-clock budget.
func (p *Planner) Plan(ctx context.Context, start, goal r3.Vector) (*Path, error) {
	s, err := p.newSearch(start, goal)
	if err != nil {
		return nil, err
	}
	keys, partial, err := s.run(ctx, start, goal)
	p.emitSnapshot(s)
	if err != nil {
		return nil, err
	}
	return s.newPath(keys, partial), nil
}

// PlanThrough plans a path visiting an ordered list of real-world waypoints
// leg by leg. If a leg is cut short by the timeout the concatenated path so
// far is returned with Partial set.
func (p *Planner) PlanThrough(ctx context.Context, waypoints []r3.Vector) (*Path, error) {
	if len(waypoints) < 2 {
		return nil, errors.New("need at least two waypoints to plan through")
	}
	var full *Path
	for i := 0; i < len(waypoints)-1; i++ {
		leg, err := p.Plan(ctx, waypoints[i], waypoints[i+1])
		if err != nil {
			return nil, errors.Wrapf(err, "planning leg %d", i)
		}
		if full == nil {
			full = leg
		} else {
			// drop the joint voxel shared with the previous leg
			skip := 0
			if leg.Len() > 0 && full.Len() > 0 && leg.keys[0] == full.keys[full.Len()-1] {
				skip = 1
			}
			full.keys = append(full.keys, leg.keys[skip:]...)
			full.waypoints = append(full.waypoints, leg.waypoints[skip:]...)
		}
		if leg.Partial() {
			full.partial = true
			break
		}
	}
	return full, nil
}

// newSearch snapshots the current map handle and builds the per-call search
// state: grid index, windowed clearance index, and empty open/closed sets.
func (p *Planner) newSearch(start, goal r3.Vector) (*search, error) {
	if p.handle == nil {
		return nil, ErrMapNotSet
	}
	m, version := p.handle.Snapshot()
	if m == nil {
		return nil, ErrMapNotSet
	}
	index, err := gridmap.NewIndex(m)
	if err != nil {
		return nil, err
	}

	reserve := float64(corridorReserveCells)*index.Resolution() + p.opts.ClearingDist
	winMin := r3.Vector{
		X: minf(start.X, goal.X) - reserve,
		Y: minf(start.Y, goal.Y) - reserve,
		Z: minf(start.Z, goal.Z) - reserve,
	}
	winMax := r3.Vector{
		X: maxf(start.X, goal.X) + reserve,
		Y: maxf(start.Y, goal.Y) + reserve,
		Z: maxf(start.Z, goal.Z) + reserve,
	}

	return &search{
		opts:       p.opts,
		logger:     p.logger,
		clk:        p.clock,
		planner:    p,
		index:      index,
		clearance:  buildClearanceIndex(m, winMin, winMax),
		tables:     p.tables,
		open:       newOpenSet(),
		closed:     map[gridmap.Key]*node{},
		arena:      map[gridmap.Key]*node{},
		mapVersion: version,
	}, nil
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
