// End-to-end scenario tests against real agent subprocesses
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

// These tests compile tiny fixture agents at test time (mirroring
// internal/selftest's EnsureExampleAgentBuilt) and drive them through
// the real match.Runner and tourney strategies, rather than asserting
// against fakes — the scenarios exercised here are spec.md §8's
// testable end-to-end properties. The fixture agents speak the same
// length-prefixed framing as internal/wire, duplicated by hand rather
// than imported, since they are built as single standalone files
// outside this module's source tree.
package evaluator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"eval-arena/internal/agent"
	"eval-arena/internal/engine"
	"eval-arena/internal/match"
	"eval-arena/internal/tourney"
)

// countToTenState is the sole State CountToTen ever produces; its
// content is irrelevant, since the fixture agents never look at it.
type countToTenState struct{}

func (countToTenState) Serialise() []byte { return []byte("go") }

// countToTenGame terminates after ten turns with a fixed score for
// every actor, used to drive spec.md §8's end-to-end scenarios
// without depending on examplegame's Kalah rules. Turns rotate
// through every actor in order, so a multi-agent match (round-robin)
// exercises every seat rather than leaving later seats idle.
type countToTenGame struct {
	actors  int
	turns   int
	current engine.Actor
}

func (g *countToTenGame) CurrentState() engine.State { return countToTenState{} }
func (g *countToTenGame) CurrentActor() engine.Actor { return g.current }
func (g *countToTenGame) Actors() int                { return g.actors }
func (g *countToTenGame) ParseAction([]byte) (any, error) {
	return nil, nil
}
func (g *countToTenGame) Apply(any) error {
	g.turns++
	g.current = engine.Actor((int(g.current) + 1) % g.actors)
	return nil
}
func (g *countToTenGame) IsTerminal() bool { return g.turns >= 10 }
func (g *countToTenGame) Score(engine.Actor) float64 {
	if g.turns >= 10 {
		return 10
	}
	return 0
}

type countToTenFactory struct{}

func (countToTenFactory) NewGame(actors int) (engine.Game, error) {
	return &countToTenGame{actors: actors}, nil
}

// buildFixture compiles a standalone Go source file into a binary
// under t.TempDir(), skipping the test when no go toolchain is
// available to build it with.
func buildFixture(t *testing.T, name, source string) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, name+".go")
	if err := os.WriteFile(src, []byte(source), 0o644); err != nil {
		t.Fatalf("writing fixture source: %v", err)
	}
	exe := filepath.Join(dir, name)
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}
	cmd := exec.Command("go", "build", "-o", exe, src)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Skipf("no usable go toolchain to build fixture agent %s: %v\n%s", name, err, out)
	}
	return exe
}

// echoFixtureSrc is an agent that reads a length-prefixed frame and
// replies with an arbitrary fixed frame, forever, regardless of what
// it is asked to parse — sufficient for any game whose ParseAction
// ignores the payload, such as countToTenGame.
const echoFixtureSrc = `package main

import (
	"encoding/binary"
	"io"
	"net"
	"os"
)

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

func main() {
	port := os.Args[1]
	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		os.Exit(1)
	}
	defer conn.Close()
	for {
		if _, err := readFrame(conn); err != nil {
			return
		}
		if err := writeFrame(conn, []byte("ok")); err != nil {
			return
		}
	}
}
`

// sleepyFixtureSrc is an agent that sleeps far longer than any
// reasonable per-action timeout before ever replying, used to drive
// scenario 2 ("timeout").
const sleepyFixtureSrc = `package main

import (
	"encoding/binary"
	"io"
	"net"
	"os"
	"time"
)

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

func main() {
	port := os.Args[1]
	conn, err := net.Dial("tcp", "127.0.0.1:"+port)
	if err != nil {
		os.Exit(1)
	}
	defer conn.Close()
	for {
		if _, err := readFrame(conn); err != nil {
			return
		}
		time.Sleep(2 * time.Second)
		if err := writeFrame(conn, []byte("late")); err != nil {
			return
		}
	}
}
`

// TestSinglePlayerSanityAgainstCountToTen is spec.md §8 scenario 1: a
// single agent plays CountToTen to completion and is scored 10, with
// no errors collected by the evaluator.
func TestSinglePlayerSanityAgainstCountToTen(t *testing.T) {
	exe := buildFixture(t, "echo", echoFixtureSrc)
	agents := []agent.Descriptor{{Name: "echo", Path: exe}}
	strategy := tourney.NewSinglePlayer(agents, 1, tourney.AggregateSum)

	e := &Evaluator{
		Factory: countToTenFactory{},
		Constraints: match.Constraints{
			ActionTimeout:   time.Second,
			TotalTimeBudget: 5 * time.Second,
		},
		Strategy: strategy,
		Agents:   agents,
		Workers:  1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scores, collected, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned a fatal error: %v", err)
	}
	if len(collected) != 0 {
		t.Fatalf("unexpected per-match errors: %v", collected)
	}
	if got := scores["echo"]; got != 10 {
		t.Fatalf("echo score = %v, want 10", got)
	}
}

// TestTimeoutAgainstSleepyAgent is spec.md §8 scenario 2: an agent
// that never replies within the per-action timeout is scored as
// timed_out on its very first turn.
func TestTimeoutAgainstSleepyAgent(t *testing.T) {
	exe := buildFixture(t, "sleepy", sleepyFixtureSrc)
	agents := []agent.Descriptor{{Name: "sleepy", Path: exe}}
	strategy := tourney.NewSinglePlayer(agents, 1, tourney.AggregateSum)

	runner := match.Runner{}
	outcome, err := runner.Run(context.Background(), agents, match.Constraints{
		ActionTimeout:   100 * time.Millisecond,
		TotalTimeBudget: 5 * time.Second,
	}, countToTenFactory{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Run returned a fatal error: %v", err)
	}
	if got := outcome.Reasons["sleepy"]; got != engine.TimedOut {
		t.Fatalf("sleepy reason = %v, want %v", got, engine.TimedOut)
	}
	if got := outcome.Scores["sleepy"]; got != 0 {
		t.Fatalf("sleepy score = %v, want 0 (a forfeit loss, the match never reached IsTerminal)", got)
	}

	// strategy is unused directly by Runner.Run above; exercised here
	// only to confirm NewSinglePlayer accepts a single-agent roster
	// without panicking, matching how cmd/arena wires the two together.
	if _, done := strategy.NextBatch(); !done {
		t.Fatal("single-player strategy should report its whole batch done on the first call")
	}
}

// TestRoundRobinProducesExactMatchCount is spec.md §8 scenario 4:
// three agents playing a two-repetition round-robin produce exactly
// six matches and a score entry for every agent.
func TestRoundRobinProducesExactMatchCount(t *testing.T) {
	exe := buildFixture(t, "echo", echoFixtureSrc)
	agents := []agent.Descriptor{
		{Name: "a", Path: exe},
		{Name: "b", Path: exe},
		{Name: "c", Path: exe},
	}
	strategy := tourney.NewRoundRobin(agents, 2, true)

	var matchCount int
	e := &Evaluator{
		Factory: countToTenFactory{},
		Constraints: match.Constraints{
			ActionTimeout:   time.Second,
			TotalTimeBudget: 5 * time.Second,
		},
		Strategy: strategy,
		Agents:   agents,
		Workers:  3,
	}
	e.Hooks.MatchFinished = func(match.Outcome) { matchCount++ }

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scores, collected, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run returned a fatal error: %v", err)
	}
	if len(collected) != 0 {
		t.Fatalf("unexpected per-match errors: %v", collected)
	}
	if matchCount != 6 {
		t.Fatalf("ran %d matches, want 6 (3 pairs * 2 repetitions)", matchCount)
	}
	if len(scores) != 3 {
		t.Fatalf("got %d score entries, want 3", len(scores))
	}
}
