// Single-player / N-repetitions strategy
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

// SinglePlayer runs each agent alone for N independent matches and
// aggregates its per-match scores per Mode. Grounded on
// tournament_strategy.rs::SinglePlayerTournament.
type SinglePlayer struct {
	Repetitions int
	Mode        AggregationMode

	mu      sync.Mutex
	agents  []agent.Descriptor
	scores  map[string][]float64
	emitted bool
}

// NewSinglePlayer constructs a single-player strategy over agents,
// running each one `repetitions` times and aggregating with mode.
func NewSinglePlayer(agents []agent.Descriptor, repetitions int, mode AggregationMode) *SinglePlayer {
	return &SinglePlayer{
		Repetitions: repetitions,
		Mode:        mode,
		agents:      agents,
		scores:      make(map[string][]float64, len(agents)),
	}
}

func (s *SinglePlayer) NextBatch() ([]Pairing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitted {
		return nil, true
	}
	s.emitted = true

	var batch []Pairing
	for _, a := range s.agents {
		for i := 0; i < s.Repetitions; i++ {
			batch = append(batch, Pairing{Agents: []agent.Descriptor{a}})
		}
	}
	return batch, true
}

func (s *SinglePlayer) Record(p Pairing, o match.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := p.Agents[0]
	s.scores[a.EffectiveName()] = append(s.scores[a.EffectiveName()], o.Scores[a.EffectiveName()])
}

func (s *SinglePlayer) Finalize() ScoreMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(ScoreMap, len(s.agents))
	for _, a := range s.agents {
		out[a.EffectiveName()] = aggregate(s.scores[a.EffectiveName()], s.Mode)
	}
	return out
}

func aggregate(values []float64, mode AggregationMode) float64 {
	if len(values) == 0 {
		return 0
	}
	switch mode {
	case AggregateMean:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case AggregateMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case AggregateMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	default: // AggregateSum
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	}
}
