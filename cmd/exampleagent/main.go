// Reference Kalah agent
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

// exampleagent is the bundled reference Kalah player used by
// internal/selftest and as a demonstration of the agent argv/wire
// contract from spec.md §6: argv[1] is the TCP port to connect to on
// 127.0.0.1, argv[2] the total time budget in microseconds, argv[3]
// the per-action timeout in microseconds, argv[4:] user configuration
// (here, optionally "-depth N" to pick a minimax search depth; with
// no -depth flag it plays uniformly random legal moves, adapted from
// bot/rand.go and bot/minmax.go).
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net"
	"os"
	"strconv"
	"time"

	"eval-arena/internal/examplegame"
	"eval-arena/internal/wire"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: exampleagent <port> <total-budget-us> <action-timeout-us> [-depth N]")
		os.Exit(1)
	}
	port, err := strconv.Atoi(os.Args[1])
	if err != nil {
		log.Fatalf("invalid port %q: %v", os.Args[1], err)
	}
	// argv[2]/argv[3] (total budget / action timeout) are informational
	// for this agent: it has no internal clock-driven move cancellation
	// and simply always answers immediately, so the runtime's own
	// enforcement is the only budget that matters.

	fs := flag.NewFlagSet("exampleagent", flag.ExitOnError)
	depth := fs.Int("depth", 0, "minimax search depth; 0 plays uniformly random moves")
	fs.Parse(os.Args[4:])

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		log.Fatalf("connecting to runtime: %v", err)
	}
	defer conn.Close()

	rand.Seed(time.Now().UnixNano())

	for {
		raw, err := wire.ReadFrame(conn)
		if err != nil {
			return // match over, or the runtime hung up
		}
		b, err := examplegame.ParseBoard(string(raw))
		if err != nil {
			log.Printf("unparseable state %q: %v", raw, err)
			return
		}

		side := sideToMove(b)
		var move uint
		if *depth > 0 {
			move, _ = minimax(b, side, uint(*depth))
		} else {
			move = b.Random(side)
		}

		if err := wire.WriteFrame(conn, []byte(strconv.FormatUint(uint64(move), 10))); err != nil {
			return
		}
	}
}

// sideToMove infers whose turn it is from which side still has legal
// moves; exampleagent is always handed a state where exactly one side
// can move (the match runtime only asks the agent whose turn it is).
func sideToMove(b *examplegame.Board) examplegame.Side {
	if len(b.Moves(examplegame.South)) > 0 {
		return examplegame.South
	}
	return examplegame.North
}

// minimax is bot/minmax.go's alpha-beta search, adapted to
// examplegame.Board's exported API and a two-argument
// (move, evaluation) return instead of a *kgp.Move.
func minimax(root *examplegame.Board, self examplegame.Side, depth uint) (uint, int64) {
	var search func(b *examplegame.Board, turn examplegame.Side, d uint, alpha, beta int64) (uint, int64)

	search = func(b *examplegame.Board, turn examplegame.Side, d uint, alpha, beta int64) (uint, int64) {
		var (
			best int64
			move uint
		)
		maximising := turn == self
		if maximising {
			best = math.MinInt64
		} else {
			best = math.MaxInt64
		}

		for _, m := range b.Moves(turn) {
			n := b.Copy()
			again := n.Sow(turn, m)

			var val int64
			if over := n.Over(); d == 0 || over {
				if over {
					n.Collect()
				}
				val = int64(n.Store(self)) - int64(n.Store(!self))
			} else {
				next := turn
				if !again {
					next = !turn
				}
				_, val = search(n, next, d-1, alpha, beta)
			}

			if maximising {
				if val > best {
					best, move = val, m
				}
				if best > alpha {
					alpha = best
				}
				if best >= beta {
					break
				}
			} else {
				if val < best {
					best, move = val, m
				}
				if best < beta {
					beta = best
				}
				if best <= alpha {
					break
				}
			}
		}
		return move, best
	}

	return search(root, self, depth, math.MinInt64, math.MaxInt64)
}
