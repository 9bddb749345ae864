// Swiss strategy
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
	"sort"
	"sync"

	"eval-arena/internal/agent"
	"eval-arena/internal/match"
)

// Swiss runs a fixed number of rounds, pairing agents by current
// standing and handling odd cohorts with a bye. Grounded on
// tournament_strategy.rs::SwissTournament, but the pairing itself is
// NOT copied: that implementation's advance_round carries an
// acknowledged, never-fixed gap ("//FIXME: prevent already-played
// match pairing") that would violate spec.md §8's no-repeat
// invariant. Swiss.pairRound below implements the recursive
// backtracking pairing spec.md §4.4 actually calls for, falling back
// to repeats only when every no-repeat arrangement is exhausted — see
// DESIGN.md's OQ-4 resolution.
type Swiss struct {
	Rounds int

	mu           sync.Mutex
	agents       []agent.Descriptor
	order        map[string]int // initial index, for deterministic tie-breaking
	points       map[string]float64
	opponents    map[string][]string // for the Buchholz tie-breaker
	played       map[pairKey]bool
	byeGiven     map[string]bool
	currentRound int
	lastBatch    []Pairing
}

type pairKey struct{ a, b string }

func makePairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// NewSwiss constructs a Swiss strategy over agents for the given
// number of rounds.
func NewSwiss(agents []agent.Descriptor, rounds int) *Swiss {
	s := &Swiss{
		Rounds:    rounds,
		agents:    agents,
		order:     make(map[string]int, len(agents)),
		points:    make(map[string]float64, len(agents)),
		opponents: make(map[string][]string, len(agents)),
		played:    make(map[pairKey]bool),
		byeGiven:  make(map[string]bool, len(agents)),
	}
	for i, a := range agents {
		s.order[a.EffectiveName()] = i
	}
	return s
}

func (s *Swiss) NextBatch() ([]Pairing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRound >= s.Rounds {
		return nil, true
	}
	batch := s.pairRound()
	s.lastBatch = batch
	s.currentRound++
	return batch, s.currentRound >= s.Rounds
}

// standing ranks agents by points descending, then by initial order
// ascending for determinism, per spec.md §4.4's "deterministic given
// the same sequence of outcomes and the same initial agent order".
func (s *Swiss) standing() []agent.Descriptor {
	ranked := append([]agent.Descriptor(nil), s.agents...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ni, nj := ranked[i].EffectiveName(), ranked[j].EffectiveName()
		if s.points[ni] != s.points[nj] {
			return s.points[ni] > s.points[nj]
		}
		return s.order[ni] < s.order[nj]
	})
	return ranked
}

func (s *Swiss) pairRound() []Pairing {
	pool := s.standing()

	if len(pool)%2 == 1 {
		byeIdx := -1
		for i := len(pool) - 1; i >= 0; i-- {
			if !s.byeGiven[pool[i].EffectiveName()] {
				byeIdx = i
				break
			}
		}
		if byeIdx == -1 {
			byeIdx = len(pool) - 1 // everyone has had a bye; give the lowest ranked another
		}
		bye := pool[byeIdx]
		pool = append(pool[:byeIdx], pool[byeIdx+1:]...)

		s.byeGiven[bye.EffectiveName()] = true
		s.points[bye.EffectiveName()] += 1
	}

	pairs := backtrackPairs(pool, s.played)
	batch := make([]Pairing, 0, len(pairs))
	for _, pr := range pairs {
		s.played[makePairKey(pr[0].EffectiveName(), pr[1].EffectiveName())] = true
		batch = append(batch, Pairing{Agents: []agent.Descriptor{pr[0], pr[1]}})
	}
	return batch
}

// backtrackPairs pairs pool (already sorted by standing, even length)
// greedily from the top, recursing and backtracking when a candidate
// opponent leads to a dead end. It runs two passes: the first
// forbids any pair already in played; only if that pass finds no
// complete pairing does the second pass allow repeats, still
// preferring the rank-order-first candidate. Termination is
// guaranteed because the pool is finite and the second pass never
// fails (any permutation of an even-sized pool can be paired up).
func backtrackPairs(pool []agent.Descriptor, played map[pairKey]bool) [][2]agent.Descriptor {
	if pairs, ok := tryPair(pool, played, false); ok {
		return pairs
	}
	pairs, _ := tryPair(pool, played, true)
	return pairs
}

func tryPair(pool []agent.Descriptor, played map[pairKey]bool, allowRepeats bool) ([][2]agent.Descriptor, bool) {
	if len(pool) == 0 {
		return nil, true
	}
	head := pool[0]
	rest := pool[1:]

	for i, candidate := range rest {
		key := makePairKey(head.EffectiveName(), candidate.EffectiveName())
		if !allowRepeats && played[key] {
			continue
		}

		remaining := make([]agent.Descriptor, 0, len(rest)-1)
		remaining = append(remaining, rest[:i]...)
		remaining = append(remaining, rest[i+1:]...)

		if tail, ok := tryPair(remaining, played, allowRepeats); ok {
			return append([][2]agent.Descriptor{{head, candidate}}, tail...), true
		}
	}
	return nil, false
}

func (s *Swiss) Record(p Pairing, o match.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, b := p.Agents[0], p.Agents[1]
	na, nb := a.EffectiveName(), b.EffectiveName()
	sa, sb := o.Scores[na], o.Scores[nb]

	switch {
	case sa > sb:
		s.points[na] += 1
	case sa < sb:
		s.points[nb] += 1
	default:
		s.points[na] += 0.5
		s.points[nb] += 0.5
	}
	s.opponents[na] = append(s.opponents[na], nb)
	s.opponents[nb] = append(s.opponents[nb], na)
}

func (s *Swiss) Finalize() ScoreMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(ScoreMap, len(s.agents))
	for _, a := range s.agents {
		out[a.EffectiveName()] = s.points[a.EffectiveName()]
	}
	return out
}

// Buchholz returns the sum of an agent's opponents' point totals, the
// standard Swiss tie-breaker, supplemented beyond what either source
// spec specified (SPEC_FULL.md §4.4).
func (s *Swiss) Buchholz(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, opp := range s.opponents[name] {
		total += s.points[opp]
	}
	return total
}
