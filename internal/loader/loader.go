// Agent discovery and compilation
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

// Package loader is the external collaborator spec.md §1 explicitly
// keeps out of the core's scope: it turns a directory of candidate
// agents into agent.Descriptor values, optionally compiling
// source-layout agents first. Grounded on
// original_source/server/src/agent_compiler.rs's compile_single_agent
// (translated from a Cargo invocation into a generic "build.sh exists
// -> run it" convention, matching tprocess.go's own optional build.sh
// step) and on config.yaml parsing via gopkg.in/yaml.v3.
package loader

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"eval-arena/internal/agent"
)

// AgentConfig is config.yaml's shape, per spec.md §6: an `eval` key
// naming the default configuration, and a `configs` map of named
// argument strings.
type AgentConfig struct {
	Eval    string            `yaml:"eval"`
	Configs map[string]string `yaml:"configs"`
}

// LoadError pairs an agent directory with why it was excluded from
// play, collected into the Evaluator's side-channel result rather
// than aborting the run (spec.md §7's LoaderError kind).
type LoadError struct {
	Dir string
	Err error
}

func (e LoadError) Error() string { return fmt.Sprintf("%s: %v", e.Dir, e.Err) }

// Result is what Load returns: every agent descriptor that loaded
// successfully, plus the errors for the ones that didn't.
type Result struct {
	Agents []agent.Descriptor
	Errors []LoadError
}

// Load discovers every immediate subdirectory of root as a candidate
// agent. Each must contain config.yaml; a directory is a "source
// layout" when it additionally contains go.mod or Cargo.toml (compile
// required) or a "precompiled layout" otherwise (an executable bit
// set on a file named after the directory). testAllConfigs expands
// each agent into one synthetic descriptor per named configuration.
//
// CompileAndLoad wraps Load, aggregating every build.sh's combined
// output into a single compile.txt under logDir (spec.md §6's
// log_dir persisted state); Load itself never writes to disk.
func Load(root string, compileAgents, testAllConfigs bool) Result {
	var res Result

	entries, err := os.ReadDir(root)
	if err != nil {
		res.Errors = append(res.Errors, LoadError{Dir: root, Err: err})
		return res
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		descs, err := loadOne(e.Name(), dir, compileAgents, testAllConfigs, nil)
		if err != nil {
			res.Errors = append(res.Errors, LoadError{Dir: dir, Err: err})
			continue
		}
		res.Agents = append(res.Agents, descs...)
	}
	return res
}

// CompileAndLoad behaves like Load, but when compileAgents is set and
// logDir is non-empty, every build.sh invocation's combined output is
// collected under one name-prefixed section per agent and written to
// "<logDir>/compile.txt" once, after every agent is visited, so a failed build can be diagnosed after the run without re-running
// the compile step.
func CompileAndLoad(root string, compileAgents, testAllConfigs bool, logDir string) Result {
	var (
		res Result
		buf *compileLog
	)
	if compileAgents && logDir != "" {
		buf = newCompileLog(logDir)
		defer buf.flush()
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		res.Errors = append(res.Errors, LoadError{Dir: root, Err: err})
		return res
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		descs, err := loadOne(e.Name(), dir, compileAgents, testAllConfigs, buf)
		if err != nil {
			res.Errors = append(res.Errors, LoadError{Dir: dir, Err: err})
			continue
		}
		res.Agents = append(res.Agents, descs...)
	}
	return res
}

// compileLog accumulates build.sh diagnostics across every agent
// directory CompileAndLoad visits, flushed to disk once at the end rather than
// opened-and-appended per agent, since agents build sequentially.
type compileLog struct {
	mu   sync.Mutex
	path string
	buf  strings.Builder
}

func newCompileLog(logDir string) *compileLog {
	return &compileLog{path: filepath.Join(logDir, "compile.txt")}
}

func (c *compileLog) record(name string, out []byte, err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(&c.buf, "=== %s ===\n", name)
	if err != nil {
		fmt.Fprintf(&c.buf, "error: %v\n", err)
	}
	c.buf.Write(out)
	c.buf.WriteString("\n")
}

func (c *compileLog) flush() {
	if c == nil || c.buf.Len() == 0 {
		return
	}
	_ = os.WriteFile(c.path, []byte(c.buf.String()), 0o644)
}

func loadOne(name, dir string, compileAgents, testAllConfigs bool, log *compileLog) ([]agent.Descriptor, error) {
	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("reading config.yaml: %w", err)
	}
	var cfg AgentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config.yaml: %w", err)
	}

	exe, err := resolveExecutable(name, dir, compileAgents, log)
	if err != nil {
		return nil, err
	}

	if !testAllConfigs {
		args := splitArgs(cfg.Configs[cfg.Eval])
		return []agent.Descriptor{{Name: name, Path: exe, Args: args}}, nil
	}

	descs := make([]agent.Descriptor, 0, len(cfg.Configs))
	for configName, argLine := range cfg.Configs {
		descs = append(descs, agent.Descriptor{
			Name:   name,
			Path:   exe,
			Args:   splitArgs(argLine),
			Config: configName,
		})
	}
	return descs, nil
}

// resolveExecutable decides between the precompiled layout (an
// executable named after the directory) and the source layout
// (go.mod or Cargo.toml present, requiring compileAgents).
func resolveExecutable(name, dir string, compileAgents bool, log *compileLog) (string, error) {
	precompiled := filepath.Join(dir, name)
	if fi, err := os.Stat(precompiled); err == nil && fi.Mode()&0o111 != 0 {
		return precompiled, nil
	}

	isSource := fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, "Cargo.toml"))
	if !isSource {
		return "", fmt.Errorf("neither a precompiled executable %q nor a recognised source layout found", name)
	}
	if !compileAgents {
		return "", fmt.Errorf("agent %q is a source layout but compile_agents is disabled", name)
	}
	return compile(name, dir, log)
}

// compile runs ./build.sh if present, then expects the named binary
// to exist; this mirrors tprocess.go's optional build.sh convention
// rather than hardcoding a single toolchain's invocation, since the
// spec allows either a Go or Rust source layout.
func compile(name, dir string, log *compileLog) (string, error) {
	buildScript := filepath.Join(dir, "build.sh")
	if fileExists(buildScript) {
		cmd := exec.Command(buildScript)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		log.record(name, out, err)
		if err != nil {
			return "", fmt.Errorf("build.sh failed: %w\n%s", err, out)
		}
	}
	exe := filepath.Join(dir, name)
	if _, err := os.Stat(exe); err != nil {
		return "", fmt.Errorf("compiled binary %q not found after build: %w", exe, err)
	}
	return exe, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitArgs(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return strings.Fields(line)
}
