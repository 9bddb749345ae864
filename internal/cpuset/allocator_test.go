// Tests for the CPU-set allocator
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

package cpuset

import "testing"

func TestReserveDisjoint(t *testing.T) {
	a := New(8)

	s1, err := a.Reserve(2)
	if err != nil {
		t.Fatalf("Reserve(2): %v", err)
	}
	s2, err := a.Reserve(2)
	if err != nil {
		t.Fatalf("Reserve(2): %v", err)
	}

	seen := map[int]bool{}
	for _, c := range append(append([]int{}, s1.CPUs...), s2.CPUs...) {
		if seen[c] {
			t.Fatalf("cpu %d reserved twice", c)
		}
		seen[c] = true
	}
}

func TestReserveContiguousPreferred(t *testing.T) {
	a := New(4)
	s, err := a.Reserve(3)
	if err != nil {
		t.Fatalf("Reserve(3): %v", err)
	}
	want := []int{0, 1, 2}
	for i, c := range want {
		if s.CPUs[i] != c {
			t.Fatalf("CPUs = %v, want prefix %v", s.CPUs, want)
		}
	}
}

func TestReleaseThenReReserve(t *testing.T) {
	a := New(2)
	s, err := a.Reserve(2)
	if err != nil {
		t.Fatalf("Reserve(2): %v", err)
	}
	a.Release(s)

	if _, err := a.Reserve(2); err != nil {
		t.Fatalf("Reserve after release: %v", err)
	}
}

func TestOutOfCPUs(t *testing.T) {
	a := New(1)
	if _, err := a.Reserve(2); err != ErrOutOfCPUs {
		t.Fatalf("Reserve(2) over 1 cpu: got %v, want ErrOutOfCPUs", err)
	}
}
