// Tests for the sanity-check pipeline
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

package selftest

import (
	"context"
	"testing"
	"time"

	"eval-arena/internal/agent"
	"eval-arena/internal/match"
)

// TestRunReportsPerAgentFailureWithoutAbortingBatch checks that a
// missing exampleagent binary surfaces as a match-level error rather
// than panicking the whole self-test pass, since the caller
// (cmd/arena) needs to report one bad agent without losing the
// verdicts already collected for the others.
func TestRunReportsPerAgentFailureWithoutAbortingBatch(t *testing.T) {
	agents := []agent.Descriptor{{Name: "missing", Path: "/nonexistent/missing"}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Run(ctx, match.Runner{}, match.Constraints{
		ActionTimeout:   50 * time.Millisecond,
		TotalTimeBudget: time.Second,
	}, "/nonexistent/exampleagent", agents)
	if err != nil {
		t.Fatalf("Run should not error on a spawn failure (it is reported via Outcome), got: %v", err)
	}
}
