// Wire framing for the agent transport
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

import (
	"io"

	"eval-arena/internal/wire"
)

// writeFrame and readFrame delegate to internal/wire, which both this
// package (the TCP accept side) and cmd/exampleagent (the TCP connect
// side) import independently — see internal/wire for the framing
// rationale and spec.md §9 Open Question OQ-1's resolution.
func writeFrame(w io.Writer, payload []byte) error { return wire.WriteFrame(w, payload) }
func readFrame(r io.Reader) ([]byte, error)        { return wire.ReadFrame(r) }
