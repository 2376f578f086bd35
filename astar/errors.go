package astar

import "github.com/pkg/errors"

var (
	// ErrMapNotSet is returned when planning is attempted before an
	// occupancy map has been supplied.
	ErrMapNotSet = errors.New("no occupancy map has been set")

	// ErrNoPath is returned when start and goal are disconnected, or the
	// search exhausted the open set without reaching the goal.
	ErrNoPath = errors.New("no path exists between start and goal")

	// ErrInvalidStart is returned when the start voxel is occupied, out of
	// bounds, or too close to an obstacle and substitution is disabled.
	ErrInvalidStart = errors.New("start is not a valid planning cell")

	// ErrInvalidGoal is the goal-side equivalent of ErrInvalidStart.
	ErrInvalidGoal = errors.New("goal is not a valid planning cell")

	// ErrTimeout is returned when the wall-clock budget ran out before the
	// goal was reached and partial results are disabled.
	ErrTimeout = errors.New("planning timed out before reaching the goal")

	// ErrEmptyPath is returned by post-processing operations handed a path
	// with no waypoints.
	ErrEmptyPath = errors.New("path contains no waypoints")
)
