// Tests for run/outcome persistence
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

package store

import (
	"context"
	"path/filepath"
	"testing"

	"eval-arena/internal/engine"
	"eval-arena/internal/match"
)

func TestSplitEffectiveName(t *testing.T) {
	for _, test := range []struct {
		in, wantName, wantConf string
	}{
		{"randobot", "randobot", ""},
		{"randobot/aggressive", "randobot", "aggressive"},
		{"a/b/c", "a", "b/c"},
	} {
		name, conf := splitEffectiveName(test.in)
		if name != test.wantName || conf != test.wantConf {
			t.Errorf("splitEffectiveName(%q) = (%q, %q), want (%q, %q)",
				test.in, name, conf, test.wantName, test.wantConf)
		}
	}
}

func TestSaveRunAndOutcomes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	runID, err := s.SaveRun(ctx, "round-robin")
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("expected a non-zero run id")
	}

	outcome := match.Outcome{
		MatchID: "m-1",
		Scores: map[string]float64{
			"randobot/aggressive": 1,
			"minimaxbot":          0,
		},
		Reasons: map[string]engine.TerminationReason{
			"randobot/aggressive": engine.Normal,
			"minimaxbot":          engine.Normal,
		},
	}
	if err := s.SaveOutcomes(ctx, runID, outcome); err != nil {
		t.Fatalf("SaveOutcomes: %v", err)
	}

	var count int
	row := s.write.QueryRowContext(ctx, `SELECT COUNT(*) FROM outcome WHERE run_id = ?`, runID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("counting outcome rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 outcome rows, got %d", count)
	}

	var agentName, agentConf string
	row = s.write.QueryRowContext(ctx, `SELECT agent_name, agent_conf FROM outcome WHERE match_id = ? AND agent_name = ?`, "m-1", "randobot")
	if err := row.Scan(&agentName, &agentConf); err != nil {
		t.Fatalf("querying split agent/config: %v", err)
	}
	if agentName != "randobot" || agentConf != "aggressive" {
		t.Fatalf("expected (randobot, aggressive), got (%s, %s)", agentName, agentConf)
	}
}
