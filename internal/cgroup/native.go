// Native cgroups v2 resource-group backend
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

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// defaultRoot is where NewNative mounts its delegated slice, mirroring
// original_source/cgroup_manager's get_cgroup_path: a per-user path
// under the systemd user slice, which is writable without root when
// systemd has delegated it.
func defaultRoot() string {
	uid := os.Getuid()
	return filepath.Join("/sys/fs/cgroup", "user.slice",
		fmt.Sprintf("user-%d.slice", uid),
		fmt.Sprintf("user@%d.service", uid),
		"eval-arena")
}

// nativeCgroup manipulates the cgroups v2 filesystem directly: one
// directory per match under root, with cgroup.procs/memory.max/cpu.max
// written at creation and memory.peak/memory.events read at Snapshot.
// Grounded on original_source/cgroup_manager/src/lib.rs's
// create_cgroup/create_process_in_cgroup/wait_for_process_cleanup,
// translated from the cgroups_rs crate into direct file I/O — no
// shelling out to an external sandbox binary.
type nativeCgroup struct {
	root string
}

// NewNative constructs a Manager backed directly by the cgroups v2
// filesystem. root defaults to a per-user delegated slice when empty.
func NewNative(root string) (Manager, error) {
	if root == "" {
		root = defaultRoot()
	}
	if err := probeV2(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(ErrPermission, "creating root %s: %v", root, err)
	}
	return &nativeCgroup{root: root}, nil
}

func probeV2() error {
	fi, err := os.Stat("/sys/fs/cgroup/cgroup.controllers")
	if err != nil || fi.IsDir() {
		return ErrUnsupported
	}
	return nil
}

func (n *nativeCgroup) Create(name string, memoryBytes uint64, cpuCores float64) (*Handle, error) {
	path := filepath.Join(n.root, name)
	if _, err := os.Stat(path); err == nil {
		return nil, ErrExists
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		if os.IsPermission(err) {
			return nil, errors.Wrapf(ErrPermission, "mkdir %s", path)
		}
		return nil, errors.Wrapf(err, "mkdir %s", path)
	}

	if memoryBytes > 0 {
		if err := writeFile(filepath.Join(path, "memory.max"), strconv.FormatUint(memoryBytes, 10)); err != nil {
			os.Remove(path)
			return nil, errors.Wrapf(err, "writing memory.max for %s", name)
		}
	}
	if cpuCores > 0 {
		// cpu.max is "$MAX $PERIOD" in microseconds; a 100ms period is
		// the common default used by systemd-managed slices.
		const period = 100000
		quota := int64(cpuCores * period)
		if err := writeFile(filepath.Join(path, "cpu.max"), fmt.Sprintf("%d %d", quota, period)); err != nil {
			os.Remove(path)
			return nil, errors.Wrapf(err, "writing cpu.max for %s", name)
		}
	}

	return &Handle{Name: name, backend: n, path: path}, nil
}

func (n *nativeCgroup) Attach(h *Handle, pid int) error {
	if h == nil {
		return nil
	}
	err := writeFile(filepath.Join(h.path, "cgroup.procs"), strconv.Itoa(pid))
	if err != nil {
		return errors.Wrapf(err, "attaching pid %d to %s", pid, h.Name)
	}
	return nil
}

func (n *nativeCgroup) Snapshot(h *Handle) (Stats, error) {
	if h == nil {
		return Stats{}, nil
	}

	var s Stats
	if peak, err := readUint(filepath.Join(h.path, "memory.peak")); err == nil {
		s.MemoryPeak = peak
	}
	if events, err := os.ReadFile(filepath.Join(h.path, "memory.events")); err == nil {
		s.OOMKills = parseOOMKill(string(events))
	}
	return s, nil
}

func (n *nativeCgroup) Destroy(h *Handle) error {
	if h == nil {
		return nil
	}
	if _, err := os.Stat(h.path); os.IsNotExist(err) {
		return nil // idempotent
	}

	// group-kill: ask the kernel to SIGKILL every task in the group.
	writeFile(filepath.Join(h.path, "cgroup.kill"), "1")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		empty, err := isEmpty(h.path)
		if err != nil || empty {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return nil // destruction errors are dropped, never propagated
	}
	return nil
}

func isEmpty(path string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(path, "cgroup.procs"))
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(string(data))) == 0, nil
}

func writeFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func readUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "max" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// parseOOMKill extracts the "oom_kill" counter out of a
// memory.events file (one "key value" pair per line).
func parseOOMKill(events string) uint64 {
	for _, line := range strings.Split(events, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "oom_kill" {
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			return v
		}
	}
	return 0
}
