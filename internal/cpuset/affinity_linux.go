// CPU pinning via sched_setaffinity
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

//go:build linux

package cpuset

import "golang.org/x/sys/unix"

// Pin restricts pid to the CPUs in s via sched_setaffinity. Called by
// the match runtime immediately after starting an agent; the child
// may already be running when the mask is applied.
func (s *Set) Pin(pid int) error {
	if s == nil || len(s.CPUs) == 0 {
		return nil
	}

	var mask unix.CPUSet
	mask.Zero()
	for _, c := range s.CPUs {
		mask.Set(c)
	}
	return unix.SchedSetaffinity(pid, &mask)
}
