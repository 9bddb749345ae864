// Game capability surface
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

// Package engine defines the small, closed capability interface the
// match runtime drives a game through. The runtime never knows
// anything about a particular game's rules; it only ever calls these
// methods.
package engine

// TerminationReason classifies how an agent's participation in a
// match ended. Exactly one of these is attached to every agent slot
// of a Match outcome.
type TerminationReason string

const (
	Normal          TerminationReason = "normal"
	TimedOut        TerminationReason = "timed_out"
	BudgetExhausted TerminationReason = "budget_exhausted"
	MemoryExceeded  TerminationReason = "memory_exceeded"
	Crashed         TerminationReason = "crashed"
	Disqualified    TerminationReason = "disqualified"
)

// Actor identifies a participant slot within a match (0-indexed, in
// spawn order), not an agent identity — the same Actor value means
// "whoever is playing this seat", which is how Game.CurrentActor and
// Game.Apply address players.
type Actor int

// State is an opaque, game-defined snapshot serialised to the wire
// as UTF-8 bytes. The engine never inspects it.
type State interface {
	// Serialise renders the state as the UTF-8 payload sent to the
	// agent whose turn it is.
	Serialise() []byte
}

// Game is produced once per match by a GameFactory and driven to
// completion by the match runtime. Implementations need not be safe
// for concurrent use — the runtime only ever calls into one Game
// from one goroutine at a time.
type Game interface {
	// CurrentState returns the state to present to the current actor.
	CurrentState() State

	// CurrentActor returns which participant slot must move next.
	CurrentActor() Actor

	// ParseAction turns a raw UTF-8 payload received from the current
	// actor into a game-defined action. The runtime classifies a parse
	// failure by its type: a DisqualifyError (see Disqualify) marks the
	// actor Disqualified, any other error marks it Crashed.
	ParseAction(payload []byte) (action any, err error)

	// Apply advances the state given the action taken by the current
	// actor. A non-nil err disqualifies that actor for the remainder
	// of the match.
	Apply(action any) error

	// IsTerminal reports whether the match has concluded.
	IsTerminal() bool

	// Score returns the game-defined score for the given actor once
	// IsTerminal is true. Calling Score before IsTerminal is a
	// programmer error.
	Score(a Actor) float64

	// Actors returns the number of participant slots this match
	// instance was constructed for.
	Actors() int
}

// GameFactory constructs a fresh Game instance for one match, given
// the number of participants the match descriptor specifies.
type GameFactory interface {
	NewGame(actors int) (Game, error)
}

// DisqualifyError marks an action (or the inability to produce one)
// as a rule violation rather than a malformed-bytes crash, per
// spec.md's "disqualified" termination reason surfaced by Apply.
type DisqualifyError struct {
	Reason string
}

func (e *DisqualifyError) Error() string { return "disqualified: " + e.Reason }

// Disqualify constructs a DisqualifyError with the given reason.
func Disqualify(reason string) error { return &DisqualifyError{Reason: reason} }
