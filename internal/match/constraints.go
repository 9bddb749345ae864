// Match constraints
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

package match

import "time"

// Constraints is the value object spec.md §3 describes: optional
// per-agent caps plus the allow_uncontained degradation flag. Zero
// values mean "no cap" for the optional fields.
type Constraints struct {
	RAMPerAgent      uint64        // bytes; 0 = uncapped
	CoresPerAgent    int           // 0 = unconstrained affinity
	ActionTimeout    time.Duration // 0 = no per-action timeout
	TotalTimeBudget  time.Duration // 0 = no cumulative budget
	AllowUncontained bool
	LogDir           string
	DebugStderr      bool
	Verbose          bool
}

// Descriptor argv values are in microseconds; zero constraints map to
// zero, which agents should treat as "no limit" by convention.
func (c Constraints) totalBudgetMicros() int64 {
	return c.TotalTimeBudget.Microseconds()
}

func (c Constraints) actionTimeoutMicros() int64 {
	return c.ActionTimeout.Microseconds()
}
