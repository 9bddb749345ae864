// Entry point
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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"eval-arena/internal/agent"
	"eval-arena/internal/cgroup"
	"eval-arena/internal/config"
	"eval-arena/internal/cpuset"
	"eval-arena/internal/evaluator"
	"eval-arena/internal/examplegame"
	"eval-arena/internal/loader"
	"eval-arena/internal/match"
	"eval-arena/internal/selftest"
	"eval-arena/internal/store"
	"eval-arena/internal/tourney"
)

const defconf = "arena.toml"

func main() {
	var (
		confFile     = flag.String("conf", defconf, "Name of configuration file")
		dumpConf     = flag.Bool("dump-config", false, "Dump default configuration")
		selftestFlag = flag.Bool("selftest", false, "Run every agent once against the bundled random bot and exit")
		envFile      = flag.String("env", ".env", "Optional dotenv file to load before EVAL_ overrides")
	)
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(), "Too many arguments passed to %s.\nUsage:\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// A missing .env is not an error: EVAL_ overrides from the real
	// environment still apply either way.
	_ = godotenv.Load(*envFile)

	conf, err := config.Open(*confFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal(err)
		}
		conf = config.Default()
	}
	conf.Debug.Println("Debug logging has been enabled")

	if *dumpConf {
		if err := conf.Dump(os.Stdout); err != nil {
			log.Fatalln("Failed to dump default configuration:", err)
		}
		os.Exit(0)
	}

	if conf.AgentsDir == "" {
		log.Fatal("no agents_dir configured; set [run] agents_dir in the TOML config or EVAL_AGENTS_DIR")
	}
	if conf.LogDir != "" {
		if err := prepareLogDir(conf.LogDir); err != nil {
			log.Fatalf("preparing log directory: %v", err)
		}
	}
	result := loader.CompileAndLoad(conf.AgentsDir, conf.CompileAgents, conf.TestAllConfigs, conf.LogDir)
	for _, le := range result.Errors {
		conf.Log.Printf("skipping agent: %v", le)
	}
	if len(result.Agents) == 0 {
		log.Fatal("no agents could be loaded")
	}

	if *selftestFlag {
		runSelftest(conf, result.Agents)
		return
	}

	run(conf, result.Agents)
}

// prepareLogDir clears log_dir's contents and recreates it, per
// spec.md §6: "The log directory is created if missing and its
// contents cleared at start." Every match's stdio capture files,
// build.sh's aggregated compile.txt, and the run history database all
// assume the directory already exists by the time they open a file
// under it.
func prepareLogDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func run(conf *config.Conf, agents []agent.Descriptor) {
	cpus := cpuset.New(runtime.NumCPU())
	mgr, err := cgroup.Select("", conf.AllowUncontained, conf.Log)
	if err != nil {
		log.Fatalf("resource group manager unavailable: %v", err)
	}

	strategy := buildStrategy(conf, agents)

	st, err := store.Open(filepath.Join(conf.LogDir, "runs.db"))
	if err != nil {
		conf.Log.Printf("run history disabled: %v", err)
		st = nil
	}
	var runID int64
	if st != nil {
		runID, err = st.SaveRun(context.Background(), conf.Strategy)
		if err != nil {
			conf.Log.Printf("recording run: %v", err)
		}
		defer st.Close()
	}

	agentsPerMatch := 2
	workers := runtime.NumCPU() / max(1, conf.CoresPerAgent) / agentsPerMatch
	if workers < 1 {
		workers = 1
	}

	eval := &evaluator.Evaluator{
		Log:     conf.Log,
		Factory: examplegame.Factory{},
		Constraints: match.Constraints{
			RAMPerAgent:      conf.RAMPerAgent,
			CoresPerAgent:    conf.CoresPerAgent,
			ActionTimeout:    conf.ActionTimeout,
			TotalTimeBudget:  conf.TotalBudget,
			AllowUncontained: conf.AllowUncontained,
			Verbose:          conf.Verbose,
			DebugStderr:      conf.DebugStderr,
			LogDir:           conf.LogDir,
		},
		Strategy: strategy,
		Agents:   agents,
		CPUs:     cpus,
		CgroupM:  mgr,
		Workers:  workers,
	}
	if st != nil {
		eval.Hooks.MatchFinished = func(o match.Outcome) {
			if err := st.SaveOutcomes(context.Background(), runID, o); err != nil {
				conf.Log.Printf("recording outcome: %v", err)
			}
		}
	}

	scores, collected, err := eval.Run(context.Background())
	for _, e := range collected {
		conf.Log.Printf("match error: %v", e)
	}
	if err != nil {
		log.Fatalf("tournament run failed: %v", err)
	}

	for name, score := range scores {
		fmt.Printf("%s\t%v\n", name, score)
	}
}

func buildStrategy(conf *config.Conf, agents []agent.Descriptor) tourney.Strategy {
	switch conf.Strategy {
	case "swiss":
		return tourney.NewSwiss(agents, conf.Rounds)
	case "single-player":
		return tourney.NewSinglePlayer(agents, conf.Repetitions, tourney.AggregateSum)
	default:
		return tourney.NewRoundRobin(agents, conf.Repetitions, true)
	}
}

func runSelftest(conf *config.Conf, agents []agent.Descriptor) {
	exe := filepath.Join(os.TempDir(), "eval-arena-exampleagent")
	if _, err := os.Stat(exe); err != nil {
		if err := selftest.EnsureExampleAgentBuilt(exe); err != nil {
			log.Fatalf("building the bundled reference agent: %v", err)
		}
	}

	runner := match.Runner{Log: conf.Log}
	c := match.Constraints{
		ActionTimeout:   conf.ActionTimeout,
		TotalTimeBudget: conf.TotalBudget,
	}
	verdicts, err := selftest.Run(context.Background(), runner, c, exe, agents)
	if err != nil {
		log.Fatalf("selftest: %v", err)
	}

	failed := 0
	for _, v := range verdicts {
		status := "PASS"
		if !v.Won {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%-20s %s\n", v.Agent.EffectiveName(), status)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
