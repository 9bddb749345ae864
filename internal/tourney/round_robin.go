// Round-robin strategy
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

package tourney

import (
	"sync"

	"eval-arena/internal/agent"
	"eval-arena/internal/match"
)

// tally holds one agent's win/loss/draw counts, the minimal per-agent
// bookkeeping round-robin needs for the final tally.
type tally struct {
	wins, losses, draws uint
}

// RoundRobin schedules every unordered pair M times and reports a
// win/draw/loss based final score. Grounded on both
// tournament_strategy.rs::RoundRobinTournament and
// sched/round-robin.go's "all ordered pairs, a != b" generation,
// generalized to an explicit Repetitions count instead of hardcoding
// "both colors once".
type RoundRobin struct {
	Repetitions int
	Symmetric   bool // stored only; Record scores both agents the same way regardless of order

	mu       sync.Mutex
	agents   []agent.Descriptor
	schedule []Pairing
	next     int
	results  map[string]*tally
}

// NewRoundRobin builds the full schedule up front: every unordered
// pair among agents, repeated `repetitions` times.
func NewRoundRobin(agents []agent.Descriptor, repetitions int, symmetric bool) *RoundRobin {
	rr := &RoundRobin{
		Repetitions: repetitions,
		Symmetric:   symmetric,
		agents:      agents,
		results:     make(map[string]*tally, len(agents)),
	}
	for _, a := range agents {
		rr.results[a.EffectiveName()] = &tally{}
	}
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			for r := 0; r < repetitions; r++ {
				rr.schedule = append(rr.schedule, Pairing{Agents: []agent.Descriptor{agents[i], agents[j]}})
			}
		}
	}
	return rr
}

func (rr *RoundRobin) NextBatch() ([]Pairing, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rr.next >= len(rr.schedule) {
		return nil, true
	}
	batch := rr.schedule[rr.next:]
	rr.next = len(rr.schedule)
	return batch, true
}

func (rr *RoundRobin) Record(p Pairing, o match.Outcome) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	a, b := p.Agents[0], p.Agents[1]
	sa, sb := o.Scores[a.EffectiveName()], o.Scores[b.EffectiveName()]

	ta, tb := rr.results[a.EffectiveName()], rr.results[b.EffectiveName()]
	switch {
	case sa > sb:
		ta.wins++
		tb.losses++
	case sa < sb:
		ta.losses++
		tb.wins++
	default:
		ta.draws++
		tb.draws++
	}
}

func (rr *RoundRobin) Finalize() ScoreMap {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	out := make(ScoreMap, len(rr.agents))
	for _, a := range rr.agents {
		t := rr.results[a.EffectiveName()]
		// win = 1, draw = 0.5, loss = 0, summed — the conventional
		// tournament-table score used by round-robin.go's score tracking.
		out[a.EffectiveName()] = float64(t.wins) + 0.5*float64(t.draws)
	}
	return out
}
