package astar

import (
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func TestParseOptions(t *testing.T) {
	t.Run("nil attributes select the defaults", func(t *testing.T) {
		opts, err := ParseOptions(nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, opts, test.ShouldResemble, NewBasicOptions())
	})

	t.Run("present fields overwrite the defaults", func(t *testing.T) {
		opts, err := ParseOptions(map[string]interface{}{
			"planning_timeout":   2.5,
			"break_at_timeout":   true,
			"use_neighborhood_6": true,
			"heuristic":          "manhattan",
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, opts.PlanningTimeout, test.ShouldEqual, 2.5)
		test.That(t, opts.BreakAtTimeout, test.ShouldBeTrue)
		test.That(t, opts.UseNeighborhood6, test.ShouldBeTrue)
		test.That(t, opts.Heuristic, test.ShouldEqual, HeuristicManhattan)
		// untouched fields keep their defaults
		test.That(t, opts.SafeDist, test.ShouldEqual, defaultSafeDist)
		test.That(t, opts.ClearingDist, test.ShouldEqual, defaultClearingDist)
	})

	t.Run("unrecognized fields are ignored", func(t *testing.T) {
		opts, err := ParseOptions(map[string]interface{}{"no_such_option": 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, opts, test.ShouldResemble, NewBasicOptions())
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		for _, attrs := range []map[string]interface{}{
			{"planning_timeout": -1.0},
			{"safe_dist": -0.1},
			{"heuristic": "chebyshev"},
			{"timeout_tiebreak": "g"},
		} {
			_, err := ParseOptions(attrs)
			test.That(t, err, test.ShouldNotBeNil)
		}
	})
}

func TestConnectivity(t *testing.T) {
	opts := NewBasicOptions()
	test.That(t, opts.connectivity(), test.ShouldEqual, 26)

	opts.UseNeighborhood6 = true
	test.That(t, opts.connectivity(), test.ShouldEqual, 6)

	opts = NewBasicOptions()
	opts.ResolutionIncreased = true
	test.That(t, opts.connectivity(), test.ShouldEqual, 6)
}

func TestNewPlannerValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)

	p, err := NewPlanner(nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldNotBeNil)

	bad := NewBasicOptions()
	bad.PlanningTimeout = 0
	_, err = NewPlanner(bad, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
