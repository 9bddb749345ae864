// Tests for the reference agent's search
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

package main

import (
	"testing"

	"eval-arena/internal/examplegame"
)

// TestMinimax adapts bot/minmax_test.go's TestSearch fixtures to
// examplegame.ParseBoard/minimax: each state has one obviously best
// move, and alpha-beta should always find it regardless of the
// direction in which it walks the move list.
func TestMinimax(t *testing.T) {
	for i, test := range []struct {
		state    string
		side     examplegame.Side
		depth    uint
		expected uint
	}{
		{"<2, 0,0, 0,1, 0,0>", examplegame.South, 5, 1},
		{"<2, 0,1, 2,0, 0,0>", examplegame.South, 5, 0},
		{"<2, 0,1, 2,0, 1,0>", examplegame.South, 5, 0},
		{"<3, 0,0, 0,0,1, 0,0,0>", examplegame.South, 5, 2},
		{"<3, 0,0, 3,0,0, 1,1,1>", examplegame.South, 10, 0},
		{"<3, 0,0, 0,2,0, 1,1,1>", examplegame.South, 10, 1},
		{"<3, 0,0, 3,1,0, 1,1,1>", examplegame.South, 10, 0},
		{"<4, 0,0, 0,3,1,0, 1,1,1,1>", examplegame.South, 10, 2},
	} {
		b, err := examplegame.ParseBoard(test.state)
		if err != nil {
			t.Fatalf("[%d] ParseBoard(%q): %v", i, test.state, err)
		}

		move, ev := minimax(b, test.side, test.depth)
		if !b.Legal(test.side, move) {
			t.Errorf("[%d] proposed illegal move %d given %s (%d)", i, move, b, ev)
		} else if move != test.expected {
			t.Errorf("[%d] expected move %d, got %d (%d)", i, test.expected, move, ev)
		}
	}
}

func TestSideToMove(t *testing.T) {
	b, err := examplegame.ParseBoard("<2, 0,0, 0,1, 1,0>")
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	if got := sideToMove(b); got != examplegame.South {
		t.Errorf("sideToMove = %s, want south", got)
	}
}
