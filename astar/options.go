package astar

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// default values for planning options.
const (
	// wall-clock budget for a single search call, in seconds.
	defaultPlanningTimeout = 1.0

	// minimum clearance for a voxel or waypoint to count as valid, in map units.
	defaultSafeDist = 0.8

	// distance used when actively pushing waypoints away from obstacles.
	defaultClearingDist = 1.2

	// per-waypoint iteration budget when enforcing the safety margin.
	defaultSafePathIterations = 5

	// window size for the sliding-window path filter.
	defaultFilterWindow = 4

	// lateral tolerance for collapsing near-collinear runs, in map units.
	defaultZigZagTolerance = 0.5
)

// Supported heuristics for estimating the cost-to-goal.
const (
	HeuristicEuclidean = "euclidean"
	HeuristicManhattan = "manhattan"
)

// Tie-break policies for choosing the best partial node on timeout.
const (
	TiebreakHCost = "h"
	TiebreakFCost = "f"
)

// Options configure a Planner. The zero value is not usable; start from
// NewBasicOptions or ParseOptions.
type Options struct {
	// Substitute the nearest valid voxel when the start or goal is invalid,
	// instead of failing.
	EnablePlanningToUnreachableGoal bool `json:"enable_planning_to_unreachable_goal"`

	// Wall-clock budget for one search call, in seconds.
	PlanningTimeout float64 `json:"planning_timeout"`

	// Minimum clearance required for a voxel or waypoint to be valid.
	SafeDist float64 `json:"safe_dist"`

	// Distance used when pushing waypoints away from obstacles.
	ClearingDist float64 `json:"clearing_dist"`

	// Emit diagnostic snapshots of the open and closed sets after a search.
	Debug bool `json:"debug"`

	// The supplied volume uses a finer discretization; neighbor generation
	// drops to the 6-connected model to compensate.
	ResolutionIncreased bool `json:"resolution_increased"`

	// Return the best partial path on timeout instead of failing.
	BreakAtTimeout bool `json:"break_at_timeout"`

	// Force the 6-connected (axial only) neighbor model.
	UseNeighborhood6 bool `json:"use_neighborhood_6"`

	// Heuristic selects the cost-to-goal estimate, HeuristicEuclidean by
	// default.
	Heuristic string `json:"heuristic"`

	// TimeoutTiebreak selects whether the partial-result node is the one
	// with the lowest h cost or the lowest f cost expanded so far.
	TimeoutTiebreak string `json:"timeout_tiebreak"`

	// Log per-search statistics at Debug level.
	Verbose bool `json:"verbose"`
}

// NewBasicOptions returns the default planning options.
func NewBasicOptions() *Options {
	return &Options{
		PlanningTimeout: defaultPlanningTimeout,
		SafeDist:        defaultSafeDist,
		ClearingDist:    defaultClearingDist,
		Heuristic:       HeuristicEuclidean,
		TimeoutTiebreak: TiebreakHCost,
	}
}

// ParseOptions overlays the recognized fields of a raw attribute map onto
// the defaults. Unrecognized fields are ignored.
func ParseOptions(attrs map[string]interface{}) (*Options, error) {
	opt := NewBasicOptions()
	if attrs == nil {
		return opt, nil
	}
	// convert map to json, then to a struct, overwriting present defaults
	jsonString, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(jsonString, opt); err != nil {
		return nil, err
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

func (o *Options) validate() error {
	if o.PlanningTimeout <= 0 {
		return errors.Errorf("planning_timeout must be positive, got %f", o.PlanningTimeout)
	}
	if o.SafeDist < 0 || o.ClearingDist < 0 {
		return errors.New("safe_dist and clearing_dist cannot be negative")
	}
	switch o.Heuristic {
	case HeuristicEuclidean, HeuristicManhattan:
	default:
		return errors.Errorf("unsupported heuristic %q", o.Heuristic)
	}
	switch o.TimeoutTiebreak {
	case TiebreakHCost, TiebreakFCost:
	default:
		return errors.Errorf("unsupported timeout_tiebreak %q", o.TimeoutTiebreak)
	}
	return nil
}

// connectivity returns the active neighbor model, 6 or 26.
func (o *Options) connectivity() int {
	if o.UseNeighborhood6 || o.ResolutionIncreased {
		return 6
	}
	return 26
}
