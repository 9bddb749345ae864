// Agent descriptors
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

// Package agent holds the immutable descriptor the loader hands to
// the evaluator; nothing here knows how agents are discovered or
// compiled, only how they are referenced once found.
package agent

import "fmt"

// Descriptor names a runnable agent: a unique name, a path to its
// executable, and the user-defined argv tail appended after the
// runtime's own port/budget/timeout arguments. Immutable after the
// loader constructs it.
type Descriptor struct {
	Name string
	Path string
	Args []string

	// Config is the named configuration this descriptor was expanded
	// from under test_all_configs (empty in single-config mode).
	Config string
}

// EffectiveName is the name under which this descriptor appears in
// the final score map: "{agent}/{config}" when Config is set, else
// Name, per spec.md §6's test_all_configs rule.
func (d Descriptor) EffectiveName() string {
	if d.Config == "" {
		return d.Name
	}
	return fmt.Sprintf("%s/%s", d.Name, d.Config)
}

// String implements fmt.Stringer for log messages.
func (d Descriptor) String() string { return d.EffectiveName() }
