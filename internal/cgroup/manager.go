// Resource-group manager interface
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

// Package cgroup manages the lifecycle of kernel resource groups
// (cgroups v2) that cap memory and CPU for one match's processes.
package cgroup

import "errors"

// Sentinel errors propagated by Create, matching spec.md §4.1's
// failure semantics.
var (
	ErrUnsupported = errors.New("cgroup: v2 hierarchy is not mounted or not delegated")
	ErrPermission  = errors.New("cgroup: insufficient permission to write hierarchy")
	ErrExists      = errors.New("cgroup: name collision")
)

// Handle is an opaque reference to a created resource group.
type Handle struct {
	Name    string
	backend Manager
	path    string // only meaningful to the native backend
}

// Stats is a post-mortem snapshot used to classify termination.
type Stats struct {
	MemoryPeak uint64
	OOMKills   uint64
}

// Manager is the scoped-acquisition abstraction spec.md §4.1
// describes: Create/Attach/Snapshot/Destroy over one hierarchy.
// Two implementations exist: nativeCgroup (direct cgroups v2 writes)
// and dockerBackend (a container as the enforcement boundary, used
// only as a degradation tier — see DESIGN.md OQ-5).
type Manager interface {
	// Create allocates a fresh resource group named name, with an
	// optional memory cap in bytes and an optional CPU quota
	// expressed as a core count (fractional allowed). Either cap may
	// be zero to mean "unconstrained".
	Create(name string, memoryBytes uint64, cpuCores float64) (*Handle, error)

	// Attach moves pid into the group referenced by h.
	Attach(h *Handle, pid int) error

	// Snapshot reads current memory/OOM statistics for h.
	Snapshot(h *Handle) (Stats, error)

	// Destroy kills any residual processes, waits for the group to
	// empty, and removes it. Idempotent: destroying an
	// already-destroyed handle returns nil.
	Destroy(h *Handle) error
}
