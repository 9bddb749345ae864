// Match runtime
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

// Package match implements C3, the isolated match runtime: it spawns
// one process per agent, pins and resource-groups each, mediates the
// per-turn game loop over a length-prefixed TCP protocol, and returns
// a scored Outcome. Grounded on tourn.go's connect/launch sequencing
// and game/game.go's Play loop, generalized from Kalah-specific types
// to the engine.Game capability.
package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"eval-arena/internal/agent"
	"eval-arena/internal/cgroup"
	"eval-arena/internal/cpuset"
	"eval-arena/internal/engine"
)

// handshakeTimeout bounds how long the runtime waits for every agent
// to connect after being spawned, per spec.md §4.3 step 3. Grounded
// on original_source/server/src/client_handler.rs's post-spawn sleep
// + nonblocking-then-accept retry, collapsed here into a single
// deadline-bound Accept.
const handshakeTimeout = 2 * time.Second

// forfeitWinScore and forfeitLossScore score a match that ends before
// the game itself reaches a terminal state — a crash, timeout, budget
// exhaustion, or disqualification. The surviving seat(s) are awarded
// the win and the failed seat the loss, per spec.md §9's forfeit
// resolution, rather than leaving Outcome.Scores empty and letting a
// downstream Strategy silently default it to a 0-0 draw.
const (
	forfeitWinScore  = 1.0
	forfeitLossScore = 0.0
)

// Runner runs one match to completion.
type Runner struct {
	Log *log.Logger
}

// seat holds the per-agent runtime state for the duration of one
// match: its connection, process handle, and cumulative think-time.
type seat struct {
	actor     engine.Actor
	desc      agent.Descriptor
	conn      net.Conn
	proc      *spawnedAgent
	thinkTime time.Duration
	done      bool
	reason    engine.TerminationReason
}

// Run executes one match: spawn, handshake, game loop, teardown.
// descs is ordered by spawn order (== engine.Actor index). cpus and
// grp may be nil under uncontained fallback.
func (r *Runner) Run(ctx context.Context, descs []agent.Descriptor, c Constraints, factory engine.GameFactory, cpus *cpuset.Set, grp *cgroup.Handle, mgr cgroup.Manager) (Outcome, error) {
	matchID := uuid.NewString()
	start := time.Now()

	game, err := factory.NewGame(len(descs))
	if err != nil {
		return Outcome{}, fmt.Errorf("constructing game: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return Outcome{}, fmt.Errorf("binding match listener: %w", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	seats := make([]*seat, len(descs))
	for i, d := range descs {
		seats[i] = &seat{actor: engine.Actor(i), desc: d}
	}

	memCap := c.RAMPerAgent * uint64(len(descs))
	tornDown := false
	defer func() {
		if !tornDown {
			r.teardown(seats, grp, mgr, memCap)
		}
	}()

	if err := r.spawnAll(matchID, seats, port, c, cpus, grp, mgr); err != nil {
		return r.outcomeOnSpawnFailure(matchID, seats, start), nil
	}

	if err := r.acceptAll(ln, seats); err != nil {
		r.logf("match %s: handshake incomplete: %v", matchID, err)
	}

	r.playLoop(game, seats, c)

	// Tear down before scoring so the reasons teardown classifies are
	// part of the returned Outcome.
	r.teardown(seats, grp, mgr, memCap)
	tornDown = true
	return r.buildOutcome(matchID, game, seats, start), nil
}

// buildOutcome scores a finished match. When the game itself reached
// a terminal state, every seat's score comes from Game.Score. Otherwise
// the match ended on a forfeit — some seat crashed, timed out,
// exhausted its budget, or was disqualified before the game concluded
// — and every seat still in play is awarded forfeitWinScore while
// every failed seat is awarded forfeitLossScore.
func (r *Runner) buildOutcome(matchID string, game engine.Game, seats []*seat, start time.Time) Outcome {
	outcome := Outcome{
		MatchID: matchID,
		Scores:  map[string]float64{},
		Reasons: map[string]engine.TerminationReason{},
		Elapsed: time.Since(start),
	}

	terminal := game.IsTerminal()
	for _, s := range seats {
		reason := s.reason
		if reason == "" {
			reason = engine.Normal
		}
		outcome.Reasons[s.desc.EffectiveName()] = reason

		switch {
		case terminal:
			outcome.Scores[s.desc.EffectiveName()] = game.Score(s.actor)
		case s.done:
			outcome.Scores[s.desc.EffectiveName()] = forfeitLossScore
		default:
			outcome.Scores[s.desc.EffectiveName()] = forfeitWinScore
		}
	}
	return outcome
}

func (r *Runner) spawnAll(matchID string, seats []*seat, port int, c Constraints, cpus *cpuset.Set, grp *cgroup.Handle, mgr cgroup.Manager) error {
	for _, s := range seats {
		stdout, stderr, err := captureFiles(c.LogDir, matchID, s.desc)
		if err != nil {
			r.logf("match %s: opening log files for %s: %v", matchID, s.desc, err)
		}
		var stdoutW, stderrW io.WriteCloser
		if stdout != nil {
			stdoutW = stdout
		}
		if c.DebugStderr {
			if stderr != nil {
				stderr.Close()
			}
			stderrW = nopCloser{Writer: stderrWriter()}
		} else if stderr != nil {
			stderrW = stderr
		}

		proc, err := spawn(s.desc, port, c.totalBudgetMicros(), c.actionTimeoutMicros(), cpus, grp, mgr, stdoutW, stderrW)
		if err != nil {
			s.reason = engine.Crashed
			return err
		}
		s.proc = proc
	}
	return nil
}

// acceptAll accepts exactly len(seats) inbound connections, tagging
// each by spawn order via a one-line handshake: the client's very
// first frame must echo its own port-argv value would be unwieldy, so
// instead the runtime accepts connections strictly in listener order
// and relies on agents connecting promptly — acceptable because each
// match has its own dedicated listener and no other process targets
// this port.
func (r *Runner) acceptAll(ln net.Listener, seats []*seat) error {
	tcpLn := ln.(*net.TCPListener)
	deadline := time.Now().Add(handshakeTimeout)

	remaining := map[int]*seat{}
	for i, s := range seats {
		remaining[i] = s
	}

	for len(remaining) > 0 {
		tcpLn.SetDeadline(deadline)
		conn, err := tcpLn.Accept()
		if err != nil {
			for _, s := range remaining {
				s.reason = engine.Crashed
			}
			return err
		}
		// First seat without a connection claims this one; spawn
		// order determines turn order, not accept order, but since
		// agents are expected to connect immediately after exec we
		// assign in ascending seat index for determinism.
		for i := 0; i < len(seats); i++ {
			if _, ok := remaining[i]; ok {
				seats[i].conn = conn
				delete(remaining, i)
				break
			}
		}
	}
	return nil
}

func (r *Runner) playLoop(game engine.Game, seats []*seat, c Constraints) {
	for !game.IsTerminal() {
		actor := game.CurrentActor()
		s := seats[actor]
		if s.done {
			// The game chose an already-failed seat — end the turn
			// loop; buildOutcome awards the forfeit once play stops
			// here, since the game itself never reaches IsTerminal.
			return
		}
		if s.conn == nil {
			s.done, s.reason = true, engine.Crashed
			continue
		}

		payload := game.CurrentState().Serialise()
		if err := writeFrame(s.conn, payload); err != nil {
			s.done, s.reason = true, engine.Crashed
			s.proc.kill()
			continue
		}

		timeout := c.ActionTimeout
		if remaining := c.TotalTimeBudget - s.thinkTime; c.TotalTimeBudget > 0 && remaining < timeout {
			timeout = remaining
		}
		if timeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(timeout))
		}

		reqStart := time.Now()
		action, err := readFrame(s.conn)
		latency := time.Since(reqStart)
		s.thinkTime += latency

		if err != nil {
			s.done = true
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if c.TotalTimeBudget > 0 && s.thinkTime >= c.TotalTimeBudget {
					s.reason = engine.BudgetExhausted
				} else {
					s.reason = engine.TimedOut
				}
			}
			// Any other error (closed connection, EOF) is left
			// unclassified here: teardown's classify() inspects the
			// process exit state and cgroup snapshot, so an OOM kill
			// is reported as MemoryExceeded rather than hardcoded to
			// Crashed before that evidence is available.
			s.proc.kill()
			continue
		}

		if c.TotalTimeBudget > 0 && s.thinkTime > c.TotalTimeBudget {
			s.done, s.reason = true, engine.BudgetExhausted
			s.proc.kill()
			continue
		}

		parsed, err := game.ParseAction(action)
		if err != nil {
			s.done = true
			var dq *engine.DisqualifyError
			if errors.As(err, &dq) {
				s.reason = engine.Disqualified
			} else {
				s.reason = engine.Crashed
			}
			s.proc.kill()
			continue
		}

		if err := game.Apply(parsed); err != nil {
			s.done, s.reason = true, engine.Disqualified
			continue
		}
	}
}

func (r *Runner) teardown(seats []*seat, grp *cgroup.Handle, mgr cgroup.Manager, memCap uint64) {
	for _, s := range seats {
		if s.proc == nil {
			continue
		}
		s.proc.kill()
		waitErr := s.proc.wait()

		if s.done && s.reason == "" {
			// A seat that dropped out of play without a recorded reason
			// disconnected unexpectedly: MemoryExceeded when the cgroup
			// snapshot shows it, Crashed otherwise.
			var stats cgroup.Stats
			if mgr != nil && grp != nil {
				stats, _ = mgr.Snapshot(grp)
			}
			s.reason = classify(waitErr, false, false, stats, memCap)
			if s.reason == engine.Normal {
				s.reason = engine.Crashed
			}
		}
		if s.conn != nil {
			s.conn.Close()
		}
		s.proc.close()
	}
	if mgr != nil && grp != nil {
		if err := mgr.Destroy(grp); err != nil {
			r.logf("destroying resource group %s: %v", grp.Name, err)
		}
	}
}

// outcomeOnSpawnFailure scores a match that never reached the game
// loop because spawnAll failed partway through. The seat(s) spawnAll
// never got to (no reason set yet) were never at fault, but the game
// never started for anyone, so every seat is scored a forfeit loss
// rather than leaving Outcome.Scores empty — the same empty-map gap
// buildOutcome closes for mid-match failures.
func (r *Runner) outcomeOnSpawnFailure(matchID string, seats []*seat, start time.Time) Outcome {
	o := Outcome{
		MatchID: matchID,
		Scores:  map[string]float64{},
		Reasons: map[string]engine.TerminationReason{},
		Elapsed: time.Since(start),
	}
	for _, s := range seats {
		reason := s.reason
		if reason == "" {
			reason = engine.Crashed
		}
		o.Reasons[s.desc.EffectiveName()] = reason
		o.Scores[s.desc.EffectiveName()] = forfeitLossScore
	}
	return o
}

// stderrWriter returns the evaluator process's own stderr, used by
// the debug_stderr configuration knob to pipe agent stderr directly
// to the operator's terminal instead of a log_dir capture file.
func stderrWriter() io.Writer { return os.Stderr }

func (r *Runner) logf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Printf(format, args...)
	}
}
