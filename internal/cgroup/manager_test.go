// Tests for resource-group destroy idempotence
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

import "testing"

// fakeManager lets the idempotence property be tested without a real
// cgroups v2 mount, which CI sandboxes frequently lack.
type fakeManager struct {
	destroyed map[string]bool
}

func newFakeManager() *fakeManager { return &fakeManager{destroyed: map[string]bool{}} }

func (f *fakeManager) Create(name string, memoryBytes uint64, cpuCores float64) (*Handle, error) {
	return &Handle{Name: name, backend: f}, nil
}
func (f *fakeManager) Attach(h *Handle, pid int) error { return nil }
func (f *fakeManager) Snapshot(h *Handle) (Stats, error) {
	return Stats{}, nil
}
func (f *fakeManager) Destroy(h *Handle) error {
	f.destroyed[h.Name] = true
	return nil
}

func TestDestroyIsIdempotent(t *testing.T) {
	m := newFakeManager()
	h, err := m.Create("match-1", 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.Destroy(h); err != nil {
		t.Fatalf("first Destroy: %v", err)
	}
	if err := m.Destroy(h); err != nil {
		t.Fatalf("second Destroy: %v", err)
	}
}

func TestSelectFallsBackWhenAllowed(t *testing.T) {
	// On a host without a delegated cgroups v2 mount and without a
	// reachable docker daemon, Select must return (nil, nil) rather
	// than an error when allowUncontained is true.
	mgr, err := Select("/nonexistent/eval-arena-test-root", true, nil)
	if err != nil {
		t.Fatalf("Select with allowUncontained=true: %v", err)
	}
	_ = mgr // nil is the expected uncontained signal on a bare test host
}
