// Tests for agent discovery
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

package loader

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeConfigYAML(t *testing.T, dir, eval string, configs map[string]string) {
	t.Helper()
	var body string
	body += "eval: " + eval + "\nconfigs:\n"
	for k, v := range configs {
		body += "  " + k + ": \"" + v + "\"\n"
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeFakeExecutable(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestLoadPrecompiledAgent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on windows")
	}
	root := t.TempDir()
	dir := filepath.Join(root, "randbot")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfigYAML(t, dir, "default", map[string]string{"default": "--seed 1"})
	writeFakeExecutable(t, filepath.Join(dir, "randbot"))

	res := Load(root, false, false)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Agents) != 1 {
		t.Fatalf("got %d agents, want 1", len(res.Agents))
	}
	if res.Agents[0].Name != "randbot" {
		t.Fatalf("agent name = %q", res.Agents[0].Name)
	}
}

func TestLoadSourceLayoutRequiresCompileAgents(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "gobot")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfigYAML(t, dir, "default", map[string]string{"default": ""})
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module gobot\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := Load(root, false, false)
	if len(res.Agents) != 0 || len(res.Errors) != 1 {
		t.Fatalf("expected a single load error, got agents=%d errors=%d", len(res.Agents), len(res.Errors))
	}
}

func TestLoadTestAllConfigsExpandsDescriptors(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on windows")
	}
	root := t.TempDir()
	dir := filepath.Join(root, "minmax")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfigYAML(t, dir, "shallow", map[string]string{"shallow": "--depth 2", "deep": "--depth 8"})
	writeFakeExecutable(t, filepath.Join(dir, "minmax"))

	res := Load(root, false, true)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(res.Agents))
	}
	for _, a := range res.Agents {
		if a.Config == "" {
			t.Fatalf("agent %+v missing Config", a)
		}
	}
}

func TestCompileAndLoadWritesCompileLog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("build.sh shebang scripts aren't runnable on windows")
	}
	root := t.TempDir()
	logDir := t.TempDir()
	dir := filepath.Join(root, "rustbot")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfigYAML(t, dir, "default", map[string]string{"default": ""})
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname=\"rustbot\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	buildSh := filepath.Join(dir, "build.sh")
	if err := os.WriteFile(buildSh, []byte("#!/bin/sh\necho building rustbot\ntouch \"$(dirname \"$0\")/rustbot\"\nchmod +x \"$(dirname \"$0\")/rustbot\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	res := CompileAndLoad(root, true, false, logDir)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Agents) != 1 {
		t.Fatalf("got %d agents, want 1", len(res.Agents))
	}

	data, err := os.ReadFile(filepath.Join(logDir, "compile.txt"))
	if err != nil {
		t.Fatalf("reading compile.txt: %v", err)
	}
	if !strings.Contains(string(data), "building rustbot") {
		t.Fatalf("compile.txt missing build output: %s", data)
	}
}

func TestLoadMissingConfigYAML(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	res := Load(root, false, false)
	if len(res.Agents) != 0 || len(res.Errors) != 1 {
		t.Fatalf("expected a single load error, got agents=%d errors=%d", len(res.Agents), len(res.Errors))
	}
}
