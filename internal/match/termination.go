// Per-agent termination classification
//
// This file is part of eval-arena.
//
// eval-arena is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// eval-arena is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with eval-arena. If not, see
// <http://www.gnu.org/licenses/>

package match

import (
	"time"

	"eval-arena/internal/cgroup"
	"eval-arena/internal/engine"
)

// Outcome is the per-match result handed back to the tournament
// strategy: a game-defined score per actor, a termination reason per
// agent, and the match's wall time. Runner.Run never populates Trace;
// it is nil in every Outcome, whether or not Constraints.LogDir is set.
// Scores and Reasons are keyed by agent.Descriptor.EffectiveName()
// rather than by Descriptor itself: Descriptor carries a []string Args
// field, which is not a valid (comparable) map key.
type Outcome struct {
	MatchID string
	Scores  map[string]float64
	Reasons map[string]engine.TerminationReason
	Elapsed time.Duration
	Trace   []TraceEvent
}

// TraceEvent describes one state/action exchange; Runner.Run does not
// record any.
type TraceEvent struct {
	Actor   engine.Actor
	State   []byte
	Action  []byte
	Latency time.Duration
}

// classify derives a TerminationReason for one agent slot given how
// its process ended and its resource-group snapshot, per spec.md
// §4.3's failure taxonomy.
func classify(waitErr error, timedOut, budgetExhausted bool, stats cgroup.Stats, memCap uint64) engine.TerminationReason {
	switch {
	case timedOut:
		return engine.TimedOut
	case budgetExhausted:
		return engine.BudgetExhausted
	case stats.OOMKills > 0, memCap > 0 && stats.MemoryPeak >= memCap:
		return engine.MemoryExceeded
	case waitErr != nil:
		return engine.Crashed
	default:
		return engine.Normal
	}
}
