// CPU pinning fallback for non-Linux hosts
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

//go:build !linux

package cpuset

// Pin is a no-op outside Linux; sched_setaffinity has no portable
// equivalent, and callers are expected to treat CPU pinning as
// best-effort (Constraints.AllowUncontained covers this case).
func (s *Set) Pin(pid int) error {
	return nil
}
