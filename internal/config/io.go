// Configuration loading and dumping
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

package config

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Open reads a TOML configuration file, layers EVAL_-prefixed
// environment overrides on top, and returns the resulting Conf.
// Mirrors conf/io.go's Open/load pair.
func Open(name string) (*Conf, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return load(file)
}

func load(r io.Reader) (*Conf, error) {
	var data tomlConf
	if _, err := toml.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}

	c := Default()
	if data.Debug {
		c.Log.SetOutput(os.Stderr)
		c.Debug.SetOutput(os.Stderr)
	}

	c.RAMPerAgent = data.Constraints.RAMPerAgent
	c.CoresPerAgent = data.Constraints.CoresPerAgent
	if data.Constraints.ActionTimeoutMS > 0 {
		c.ActionTimeout = time.Duration(data.Constraints.ActionTimeoutMS) * time.Millisecond
	}
	if data.Constraints.TotalBudgetMS > 0 {
		c.TotalBudget = time.Duration(data.Constraints.TotalBudgetMS) * time.Millisecond
	}
	c.AllowUncontained = data.Constraints.AllowUncontained

	c.Verbose = data.Run.Verbose
	c.CompileAgents = data.Run.CompileAgents
	c.TestAllConfigs = data.Run.TestAllConfigs
	c.LogDir = data.Run.LogDir
	c.DebugStderr = data.Run.DebugStderr
	c.AgentsDir = data.Run.AgentsDir

	if data.Tournament.Strategy != "" {
		c.Strategy = data.Tournament.Strategy
	}
	if data.Tournament.Rounds > 0 {
		c.Rounds = int(data.Tournament.Rounds)
	}
	if data.Tournament.Repetitions > 0 {
		c.Repetitions = int(data.Tournament.Repetitions)
	}

	c.applyEnv()
	return c, nil
}

// Dump serialises c back into TOML, mirroring conf/io.go's Dump.
func (c *Conf) Dump(wr io.Writer) error {
	var data tomlConf
	data.Constraints.RAMPerAgent = c.RAMPerAgent
	data.Constraints.CoresPerAgent = c.CoresPerAgent
	data.Constraints.ActionTimeoutMS = uint(c.ActionTimeout / time.Millisecond)
	data.Constraints.TotalBudgetMS = uint(c.TotalBudget / time.Millisecond)
	data.Constraints.AllowUncontained = c.AllowUncontained

	data.Run.Verbose = c.Verbose
	data.Run.CompileAgents = c.CompileAgents
	data.Run.TestAllConfigs = c.TestAllConfigs
	data.Run.LogDir = c.LogDir
	data.Run.DebugStderr = c.DebugStderr
	data.Run.AgentsDir = c.AgentsDir

	data.Tournament.Strategy = c.Strategy
	data.Tournament.Rounds = uint(c.Rounds)
	data.Tournament.Repetitions = uint(c.Repetitions)

	return toml.NewEncoder(wr).Encode(data)
}
