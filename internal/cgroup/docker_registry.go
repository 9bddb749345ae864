// Handle-to-container-ID registry for the Docker backend
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

package cgroup

import "sync"

// dockerRegistry maps the opaque Handle the rest of the engine holds
// onto the docker-specific state dockerBackend needs, keeping Handle
// itself backend-agnostic.
type dockerRegistry struct {
	mu    sync.Mutex
	state map[*Handle]dockerHandleState
}

var dockerHandles = &dockerRegistry{state: make(map[*Handle]dockerHandleState)}

func (r *dockerRegistry) store(h *Handle, s dockerHandleState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[h] = s
}

func (r *dockerRegistry) load(h *Handle) (dockerHandleState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.state[h]
	return s, ok
}

func (r *dockerRegistry) delete(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, h)
}
