// Tournament strategy interface
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

// Package tourney implements C4: the pluggable tournament strategies
// that decide which agents play which matches and fold outcomes into
// a final score map. Grounded on
// original_source/ai-tournament/src/tournament_strategy.rs's
// TournamentStrategy trait, translated trait-to-interface, with the
// Go-idiomatic state-holding pattern taken from sched/sched.go's
// scheduler struct (games slice + score map + mutex).
package tourney

import (
	"eval-arena/internal/agent"
	"eval-arena/internal/match"
)

// Pairing is one scheduled match: the ordered set of agents that will
// play it together.
type Pairing struct {
	Agents []agent.Descriptor
}

// ScoreMap maps each registered agent's effective name to its final
// strategy-defined score. Every registered agent appears exactly
// once, per spec.md §3's invariant.
type ScoreMap map[string]float64

// Strategy is the trait spec.md §4.4 describes. Implementations must
// be deterministic given the same sequence of outcomes and the same
// initial agent order.
type Strategy interface {
	// NextBatch returns the next set of matches to run and whether the
	// tournament is exhausted. Called repeatedly by the Evaluator; a
	// static strategy (round-robin, single-player) may return its
	// entire schedule on the first call with done=true, while an
	// adaptive strategy (Swiss) returns one round at a time.
	NextBatch() (batch []Pairing, done bool)

	// Record folds one match's outcome into the strategy's internal
	// state. Called once per completed match, in completion order —
	// strategies must tolerate arbitrary order across matches within a
	// batch (spec.md §5).
	Record(p Pairing, o match.Outcome)

	// Finalize produces the final score map once NextBatch has
	// reported done.
	Finalize() ScoreMap
}

// AggregationMode selects how a single-player strategy folds repeated
// per-match scores into one final score, resolving spec.md §9's open
// aggregation question.
type AggregationMode int

const (
	AggregateSum AggregationMode = iota
	AggregateMean
	AggregateMin
	AggregateMax
)
