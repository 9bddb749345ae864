// Self-test: every agent against the bundled reference bot
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

// Package selftest is the -selftest CLI flag's implementation,
// adapted from sched/sanity.go: every loaded agent plays exactly one
// match against the bundled random exampleagent on the standard
// (6,6) Kalah board. Since the agent moves first and (6,6) Kalah is a
// solved first-player win, failing to beat the random bot disqualifies
// the agent immediately rather than merely scoring it low.
package selftest

import (
	"context"
	"fmt"
	"os/exec"

	"eval-arena/internal/agent"
	"eval-arena/internal/examplegame"
	"eval-arena/internal/match"
)

// Verdict is one agent's sanity-check result.
type Verdict struct {
	Agent agent.Descriptor
	Won   bool
	Outcome match.Outcome
}

// exampleAgentPath resolves the bundled random agent binary;
// cmd/arena passes the path it built or located exampleagent at.
func Run(ctx context.Context, runner match.Runner, c match.Constraints, exampleAgentPath string, agents []agent.Descriptor) ([]Verdict, error) {
	adversary := agent.Descriptor{Name: "selftest-random", Path: exampleAgentPath}
	factory := examplegame.Factory{Size: 6, Init: 6}

	verdicts := make([]Verdict, 0, len(agents))
	for _, a := range agents {
		outcome, err := runner.Run(ctx, []agent.Descriptor{a, adversary}, c, factory, nil, nil, nil)
		if err != nil {
			return verdicts, fmt.Errorf("selftest match for %s: %w", a.EffectiveName(), err)
		}
		won := outcome.Scores[a.EffectiveName()] > outcome.Scores[adversary.EffectiveName()]
		verdicts = append(verdicts, Verdict{Agent: a, Won: won, Outcome: outcome})
	}
	return verdicts, nil
}

// EnsureExampleAgentBuilt is used by cmd/arena when no precompiled
// exampleagent binary is found at its os.TempDir() path:
// it builds the cmd/exampleagent package into outPath. Kept here, not
// in cmd/arena, so both the CLI and any future automated test harness
// can reuse the same fallback.
func EnsureExampleAgentBuilt(outPath string) error {
	cmd := exec.Command("go", "build", "-o", outPath, "eval-arena/cmd/exampleagent")
	return cmd.Run()
}
