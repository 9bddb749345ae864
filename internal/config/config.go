// Configuration specification
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

// Package config holds the run-wide Configuration knobs of spec.md
// §6, loaded from TOML per conf/conf.go's struct-tag pattern, then
// overridden by EVAL_-prefixed environment variables the way
// original_source/src/configuration.rs does (names translated to the
// EVAL_ convention spec.md itself specifies — the older
// ai-tournament/src/constraints.rs bare-name env vars were not
// followed, since spec.md §6 is the binding source here).
package config

import (
	"io"
	"log"
	"os"
	"strconv"
	"time"
)

// Conf is the public, in-process configuration object, mirroring
// conf/conf.go's Conf struct: a handful of typed fields plus a
// Log/Debug logger pair.
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger

	AllowUncontained bool
	Verbose          bool
	CompileAgents    bool
	TestAllConfigs   bool
	LogDir           string
	DebugStderr      bool

	AgentsDir     string
	RAMPerAgent   uint64
	CoresPerAgent int
	ActionTimeout time.Duration
	TotalBudget   time.Duration

	Strategy    string // "swiss" | "round-robin" | "single-player"
	Rounds      int
	Repetitions int
}

// tomlConf is the on-disk shape, kept separate from Conf exactly like
// conf/conf.go's internal `conf` struct, so renaming public fields
// never breaks the file format.
type tomlConf struct {
	Debug bool `toml:"debug"`

	Constraints struct {
		RAMPerAgent      uint64 `toml:"ram_per_agent"`
		CoresPerAgent    int    `toml:"cores_per_agent"`
		ActionTimeoutMS  uint   `toml:"action_timeout_ms"`
		TotalBudgetMS    uint   `toml:"total_budget_ms"`
		AllowUncontained bool   `toml:"allow_uncontained"`
	} `toml:"constraints"`

	Run struct {
		Verbose        bool   `toml:"verbose"`
		CompileAgents  bool   `toml:"compile_agents"`
		TestAllConfigs bool   `toml:"test_all_configs"`
		LogDir         string `toml:"log_dir"`
		DebugStderr    bool   `toml:"debug_stderr"`
		AgentsDir      string `toml:"agents_dir"`
	} `toml:"run"`

	Tournament struct {
		Strategy    string `toml:"strategy"`
		Rounds      uint   `toml:"rounds"`
		Repetitions uint   `toml:"repetitions"`
	} `toml:"tournament"`
}

// Default returns the configuration used when no file is supplied,
// mirroring conf/conf.go's defaultConfig package variable, with the
// EVAL_-prefixed environment overrides applied on top.
func Default() *Conf {
	c := &Conf{
		Log:           log.Default(),
		Debug:         log.New(io.Discard, "", 0),
		ActionTimeout: 5 * time.Second,
		TotalBudget:   30 * time.Second,
		Strategy:      "round-robin",
		Rounds:        3,
		Repetitions:   1,
	}
	c.applyEnv()
	return c
}

// applyEnv layers EVAL_-prefixed environment overrides on top of c,
// taking precedence over anything loaded from TOML, per spec.md §6.
func (c *Conf) applyEnv() {
	if v, ok := os.LookupEnv("EVAL_VERBOSE"); ok {
		c.Verbose = parseBool(v)
	}
	if v, ok := os.LookupEnv("EVAL_ALLOW_UNCONTAINED"); ok {
		c.AllowUncontained = parseBool(v)
	}
	if v, ok := os.LookupEnv("EVAL_COMPILE_AGENTS"); ok {
		c.CompileAgents = parseBool(v)
	}
	if v, ok := os.LookupEnv("EVAL_TEST_ALL_CONFIGS"); ok {
		c.TestAllConfigs = parseBool(v)
	}
	if v, ok := os.LookupEnv("EVAL_LOG_DIR"); ok {
		c.LogDir = v
	}
	if v, ok := os.LookupEnv("EVAL_DEBUG_STDERR"); ok {
		c.DebugStderr = parseBool(v)
	}
	if v, ok := os.LookupEnv("EVAL_AGENTS_DIR"); ok {
		c.AgentsDir = v
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
