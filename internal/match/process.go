// Agent process spawning
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
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"eval-arena/internal/agent"
	"eval-arena/internal/cgroup"
	"eval-arena/internal/cpuset"
)

// spawnedAgent bundles the running child process with the resources
// it was granted, generalizing tprocess.go's Process{run, dir} pair
// into the spec's direct argv-contract spawn (no build.sh/run.sh
// indirection — agent.Descriptor.Path is already the executable).
type spawnedAgent struct {
	desc agent.Descriptor
	cmd  *exec.Cmd
	out  io.WriteCloser // capture file for stdout, when log_dir is set
	err  io.WriteCloser // capture file for stderr, when log_dir is set
}

// spawn launches one agent per the argv contract of spec.md §6:
// argv[1] = port, argv[2] = total budget (microseconds), argv[3] =
// per-action timeout (microseconds), argv[4:] = the descriptor's own
// configured args. The child is immediately pinned to cpus and, when
// grp is non-nil, attached to the resource group.
func spawn(desc agent.Descriptor, port int, totalBudgetUS, actionTimeoutUS int64, cpus *cpuset.Set, grp *cgroup.Handle, mgr cgroup.Manager, stdout, stderr io.WriteCloser) (*spawnedAgent, error) {
	args := append([]string{
		strconv.Itoa(port),
		strconv.FormatInt(totalBudgetUS, 10),
		strconv.FormatInt(actionTimeoutUS, 10),
	}, desc.Args...)

	cmd := exec.Command(desc.Path, args...)
	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = io.Discard
	}
	if stderr != nil {
		cmd.Stderr = stderr
	} else {
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning %s: %w", desc.EffectiveName(), err)
	}

	pid := cmd.Process.Pid
	if cpus != nil {
		if err := cpus.Pin(pid); err != nil {
			// Best-effort: pinning failure does not abort the match —
			// it degrades to "unpinned but still resource-grouped",
			// consistent with allow_uncontained's spirit even though
			// this specific failure is not the Unsupported case
			// spec.md names explicitly.
		}
	}
	if grp != nil && mgr != nil {
		if err := mgr.Attach(grp, pid); err != nil {
			cmd.Process.Kill()
			return nil, fmt.Errorf("attaching %s to resource group: %w", desc.EffectiveName(), err)
		}
	}

	return &spawnedAgent{desc: desc, cmd: cmd, out: stdout, err: stderr}, nil
}

// kill unconditionally terminates the child, matching spec.md §4.3
// step 5's "SIGKILL equivalent".
func (s *spawnedAgent) kill() {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
}

// wait reaps the child and returns cmd.Wait's error; it does not
// distinguish an exit of the child's own accord from a runtime kill.
func (s *spawnedAgent) wait() error {
	return s.cmd.Wait()
}

func (s *spawnedAgent) close() {
	if s.out != nil {
		s.out.Close()
	}
	if s.err != nil {
		s.err.Close()
	}
}

// captureFiles opens the per-agent stdout/stderr capture files under
// logDir, named after the match ID and the agent's effective name, per
// spec.md §6's "one file per agent-match with stdio capture".
func captureFiles(logDir, matchID string, desc agent.Descriptor) (stdout, stderr *os.File, err error) {
	if logDir == "" {
		return nil, nil, nil
	}
	base := fmt.Sprintf("%s-%s", matchID, desc.EffectiveName())
	stdout, err = os.Create(logDir + "/" + base + ".stdout")
	if err != nil {
		return nil, nil, err
	}
	stderr, err = os.Create(logDir + "/" + base + ".stderr")
	if err != nil {
		stdout.Close()
		return nil, nil, err
	}
	return stdout, stderr, nil
}

// nopCloser wraps a shared writer (such as the evaluator's own
// os.Stderr, used under debug_stderr) so that per-agent teardown can
// call Close unconditionally without closing a stream other agents
// still write to.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
