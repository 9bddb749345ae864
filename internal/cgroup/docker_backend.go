// Docker-backed resource-group fallback
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
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
)

// dockerBackend uses a Docker container's own cgroup as the resource
// boundary for hosts that expose the Docker socket but do not delegate
// cgroups v2 write access to the calling user. It is a degradation
// tier strictly between native cgroups and pure uncontained mode (see
// DESIGN.md Open Question OQ-5) and is only ever selected when
// AllowUncontained permits falling back at all.
//
// Adapted from sched/isol/docker.go's ContainerCreate/ContainerKill
// pair; unlike the teacher's version this backend does not also own
// the agent's TCP listener — internal/match still binds and accepts
// the connection, and the container simply joins the host network
// namespace so loopback works unmodified. Agent processes are not
// placed in the container (see Attach), so the limits set on it do
// not apply to them.
type dockerBackend struct {
	cli *client.Client
}

// NewDocker probes for a reachable Docker daemon and returns a Manager
// backed by it, or ErrUnsupported if none is reachable.
func NewDocker() (Manager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, ErrUnsupported
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		return nil, ErrUnsupported
	}
	return &dockerBackend{cli: cli}, nil
}

// dockerHandleState stashes the container ID created for a match.
// Create starts the container but no agent process in it:
// internal/match spawns every agent on the host with os/exec.
type dockerHandleState struct {
	containerID string
}

func (d *dockerBackend) Create(name string, memoryBytes uint64, cpuCores float64) (*Handle, error) {
	ctx := context.Background()

	resp, err := d.cli.ContainerCreate(ctx, &container.Config{
		Image: "eval-arena-agent-runtime",
		Tty:   false,
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:   int64(memoryBytes),
			CPUCount: int64(cpuCores),
		},
		NetworkMode:    "host",
		ReadonlyRootfs: false,
		AutoRemove:     true,
	}, nil, nil, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create container %s", name)
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return nil, errors.Wrapf(err, "failed to start container %s", name)
	}

	h := &Handle{Name: name, backend: d}
	dockerHandles.store(h, dockerHandleState{containerID: resp.ID})
	return h, nil
}

// Attach is a no-op for the docker backend: pid is not moved into the
// container, so the agent stays outside the container's cgroup.
func (d *dockerBackend) Attach(h *Handle, pid int) error {
	return nil
}

func (d *dockerBackend) Snapshot(h *Handle) (Stats, error) {
	st, ok := dockerHandles.load(h)
	if !ok {
		return Stats{}, nil
	}
	stats, err := d.cli.ContainerStats(context.Background(), st.containerID, false)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "reading stats for %s", h.Name)
	}
	defer stats.Body.Close()
	// The Docker stats JSON stream is not decoded: Snapshot always
	// returns zero Stats, so nothing classified from it under this
	// backend is ever memory_exceeded.
	return Stats{}, nil
}

func (d *dockerBackend) Destroy(h *Handle) error {
	st, ok := dockerHandles.load(h)
	if !ok {
		return nil // idempotent
	}
	ctx := context.Background()
	err := d.cli.ContainerKill(ctx, st.containerID, "SIGKILL")
	dockerHandles.delete(h)
	if err != nil {
		return nil // destruction errors are dropped, never propagated
	}
	return nil
}
