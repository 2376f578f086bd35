package astar

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.uber.org/zap/zapcore"
	goutils "go.viam.com/utils"
)

// DebugSnapshot is a read-only view of one search's internal state, taken
// after the search terminated. It has no effect on search behavior.
type DebugSnapshot struct {
	// Open holds the poses still on the open set when the search stopped.
	Open []r3.Vector
	// Closed holds the poses of every expanded node.
	Closed []r3.Vector
	// Candidates holds detour candidates considered by post-processing.
	Candidates []r3.Vector
	// MapVersion is the occupancy handle version the search ran against.
	MapVersion uint64
	// Expansions is the number of nodes expanded.
	Expansions int
}

// SnapshotSink receives diagnostic snapshots. Sinks are write-only
// collaborators, typically a visualization bridge; nothing they do feeds
// back into planning.
type SnapshotSink interface {
	PublishSnapshot(DebugSnapshot)
}

// emitSnapshot dispatches a snapshot of the finished search to the
// configured sink, off the calling goroutine.
func (p *Planner) emitSnapshot(s *search) {
	if s == nil || p.sink == nil || !p.opts.Debug {
		return
	}
	snap := DebugSnapshot{
		Open:       s.openPoses(),
		Closed:     s.closedPoses(),
		MapVersion: s.mapVersion,
		Expansions: s.expansions,
	}
	sink := p.sink
	goutils.PanicCapturingGo(func() {
		sink.PublishSnapshot(snap)
	})
}

// LogSink is a SnapshotSink that summarizes snapshots to a logger.
type LogSink struct {
	Logger golog.Logger
}

// PublishSnapshot implements SnapshotSink.
func (l *LogSink) PublishSnapshot(snap DebugSnapshot) {
	if !l.Logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		return
	}
	l.Logger.Debugf("search snapshot: %d open, %d closed, %d expansions (map v%d)",
		len(snap.Open), len(snap.Closed), snap.Expansions, snap.MapVersion)
}
