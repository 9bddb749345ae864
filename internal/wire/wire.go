// Wire framing shared by the match runtime and agent processes
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

// Package wire is the length-prefixed framing spec.md §9's Open
// Question OQ-1 left unresolved: each payload is a 4-byte big-endian
// byte count followed by that many bytes, written as a single Write
// call (mirroring the teacher's client.go habit of building one
// buffer and issuing one Write per message). It is its own package,
// rather than living inside internal/match, because both the runtime
// (the TCP accept side) and cmd/exampleagent (the TCP connect side)
// need to speak it without either importing the other.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrame bounds a single payload to 64MiB, generous for any game
// state/action representation while still refusing to let a runaway
// peer exhaust the reader's memory.
const MaxFrame = 64 << 20

// WriteFrame sends one payload as a 4-byte big-endian length prefix
// followed by the payload bytes, as a single io.Writer.Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrame {
		return fmt.Errorf("wire: frame of %d bytes exceeds %d byte limit", len(payload), MaxFrame)
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed payload. Any error (including a
// partial length prefix, a size header past MaxFrame, or an EOF
// mid-payload) should be treated as a crash by the caller.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrame {
		return nil, fmt.Errorf("wire: peer announced a %d byte frame, exceeding %d byte limit", n, MaxFrame)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
