// Persistence for tournament runs and match outcomes
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

// Package store persists tournament runs and match outcomes to
// SQLite, adapting db/db.go's prepared-statement, single-writer-
// connection pattern (one *sql.DB opened with SetMaxOpenConns(1) for
// writes) away from Kalah's game/move/user schema and onto
// agent.Descriptor/match.Outcome.
package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"eval-arena/internal/match"
)

const schema = `
CREATE TABLE IF NOT EXISTS run (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy   TEXT NOT NULL,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS outcome (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES run(id),
	match_id    TEXT NOT NULL,
	agent_name  TEXT NOT NULL,
	agent_conf  TEXT NOT NULL DEFAULT '',
	score       REAL NOT NULL,
	reason      TEXT NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS outcome_run_idx ON outcome(run_id);
`

// Store is a handle to the run database, mirroring db/db.go's db
// struct: one connection dedicated to writes, serialised by SQLite
// itself via SetMaxOpenConns(1).
type Store struct {
	write *sql.DB

	insertRun     *sql.Stmt
	insertOutcome *sql.Stmt
}

// Open creates or migrates the SQLite file at path and prepares the
// statements Store needs, following db/db.go's Register pragma list
// (WAL journal, normal synchronous, in-memory temp store).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?mode=rwc&_journal=wal")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"journal_mode = WAL",
		"synchronous = normal",
		"temp_store = memory",
		"foreign_keys = on",
	} {
		if _, err := db.Exec("PRAGMA " + pragma + ";"); err != nil {
			db.Close()
			return nil, err
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{write: db}
	if s.insertRun, err = db.Prepare(`INSERT INTO run(strategy) VALUES (?)`); err != nil {
		db.Close()
		return nil, err
	}
	if s.insertOutcome, err = db.Prepare(`
		INSERT INTO outcome(run_id, match_id, agent_name, agent_conf, score, reason)
		VALUES (?, ?, ?, ?, ?, ?)`); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SaveRun registers a new tournament run under the given strategy
// name and returns its row id, for use as the run_id foreign key on
// subsequent SaveOutcome calls.
func (s *Store) SaveRun(ctx context.Context, strategy string) (int64, error) {
	res, err := s.insertRun.ExecContext(ctx, strategy)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveOutcome persists one agent's result from a finished match,
// mirroring db/db.go's SaveMove transaction-per-call shape, but
// without a join across game/move tables since match.Outcome is
// already self-contained. effectiveName is agent.Descriptor's
// EffectiveName() ("{agent}/{config}" or just the agent's name).
func (s *Store) SaveOutcome(ctx context.Context, runID int64, matchID, effectiveName string, score float64, reason string) error {
	name, conf := splitEffectiveName(effectiveName)
	_, err := s.insertOutcome.ExecContext(ctx, runID, matchID, name, conf, score, reason)
	return err
}

// SaveOutcomes persists every agent's result from a single
// match.Outcome in one call.
func (s *Store) SaveOutcomes(ctx context.Context, runID int64, o match.Outcome) error {
	for name, score := range o.Scores {
		reason := string(o.Reasons[name])
		if err := s.SaveOutcome(ctx, runID, o.MatchID, name, score, reason); err != nil {
			return err
		}
	}
	return nil
}

func splitEffectiveName(name string) (agentName, config string) {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}

// Close releases the underlying connection, mirroring db/db.go's
// Shutdown (minus the VACUUM/optimize housekeeping, which belongs to
// a long-lived server process rather than a one-shot tournament run).
func (s *Store) Close() error {
	return s.write.Close()
}
