// CPU-set allocator
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

// Package cpuset partitions the host's logical CPUs among
// concurrently running matches. No two reservations ever overlap.
package cpuset

import (
	"fmt"
	"sync"
)

// Set is a disjoint collection of logical CPU indices pinned to one
// match.
type Set struct {
	CPUs []int
}

// ErrOutOfCPUs is returned by Reserve when no contiguous-or-not block
// of the requested size is currently free.
var ErrOutOfCPUs = fmt.Errorf("cpuset: no free cpus of the requested size")

// Allocator hands out disjoint CPU sets from a fixed-size pool. The
// zero value is not usable; construct with New. Thread-safe —
// reservations are serialised through a mutex, matching spec.md
// §4.2's "concurrent reservations are serialised" requirement.
type Allocator struct {
	mu   sync.Mutex
	free []bool // free[i] == true means CPU i is available
	n    int
}

// New builds an allocator over CPU indices [0, total).
func New(total int) *Allocator {
	free := make([]bool, total)
	for i := range free {
		free[i] = true
	}
	return &Allocator{free: free, n: total}
}

// Total returns the number of CPUs under management.
func (a *Allocator) Total() int {
	return a.n
}

// Reserve claims k CPUs, preferring the lowest-indexed contiguous
// block to minimise cross-NUMA thrash, falling back to any k free
// indices when no contiguous block exists.
func (a *Allocator) Reserve(k int) (*Set, error) {
	if k <= 0 {
		return &Set{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if start, ok := a.contiguousBlock(k); ok {
		return a.claim(start, k), nil
	}
	if idx, ok := a.scatteredBlock(k); ok {
		return a.claimIndices(idx), nil
	}
	return nil, ErrOutOfCPUs
}

// Release returns a previously reserved set to the pool. Releasing
// an empty or already-released set is a no-op.
func (a *Allocator) Release(s *Set) {
	if s == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range s.CPUs {
		if c >= 0 && c < a.n {
			a.free[c] = true
		}
	}
}

func (a *Allocator) contiguousBlock(k int) (start int, ok bool) {
	run := 0
	for i := 0; i < a.n; i++ {
		if a.free[i] {
			run++
			if run == k {
				return i - k + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

func (a *Allocator) scatteredBlock(k int) ([]int, bool) {
	idx := make([]int, 0, k)
	for i := 0; i < a.n && len(idx) < k; i++ {
		if a.free[i] {
			idx = append(idx, i)
		}
	}
	if len(idx) < k {
		return nil, false
	}
	return idx, true
}

func (a *Allocator) claim(start, k int) *Set {
	cpus := make([]int, 0, k)
	for i := start; i < a.n && len(cpus) < k; i++ {
		a.free[i] = false
		cpus = append(cpus, i)
	}
	return &Set{CPUs: cpus}
}

func (a *Allocator) claimIndices(idx []int) *Set {
	for _, i := range idx {
		a.free[i] = false
	}
	return &Set{CPUs: idx}
}
