// Tournament evaluation orchestrator
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

// Package evaluator is C5: it drives a tourney.Strategy to completion
// by dispatching the matches it requests onto a bounded worker pool,
// reserving a CPU set and resource group per match, and funneling
// every finished match.Outcome through one recorder goroutine back
// into the strategy — the same "parallel workers, single recorder"
// split sched.go's compose/foreach scheduler combinators used for
// go-kgp's queue, generalized from per-client callbacks into
// per-match errgroup tasks.
package evaluator

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"eval-arena/internal/agent"
	"eval-arena/internal/cgroup"
	"eval-arena/internal/cpuset"
	"eval-arena/internal/engine"
	"eval-arena/internal/errs"
	"eval-arena/internal/match"
	"eval-arena/internal/tourney"
)

// Hooks lets callers observe progress without the evaluator depending
// on internal/dashboard or internal/store directly (both are optional
// ambient concerns; wiring them in is cmd/arena's job).
type Hooks struct {
	MatchStarted  func(matchID string, agents []agent.Descriptor)
	MatchFinished func(o match.Outcome)
}

// Evaluator owns the shared, mutex-protected resources every match
// reserves from: the CPU allocator and the resource-group manager.
// Per spec.md §9's "no global mutable state" requirement, these are
// constructed once by cmd/arena and passed in, never package globals.
type Evaluator struct {
	Log *log.Logger

	Factory     engine.GameFactory
	Constraints match.Constraints
	Strategy    tourney.Strategy
	Agents      []agent.Descriptor

	CPUs    *cpuset.Allocator
	CgroupM cgroup.Manager // nil means uncontained

	Workers int
	Hooks   Hooks
}

// Run drives the strategy to completion, dispatching each NextBatch
// onto a bounded errgroup worker pool and recording every outcome
// through a single channel, then returns the strategy's final
// ScoreMap together with the per-match errors collected along the
// way (spec.md §7's per-agent recovery policy). A match error whose
// errs.Error.Fatal reports true (an EnvironmentUnavailable resource
// group failure) instead aborts the run and is returned as the third
// value.
func (e *Evaluator) Run(ctx context.Context) (tourney.ScoreMap, []error, error) {
	if e.Workers <= 0 {
		e.Workers = 1
	}

	type recordReq struct {
		pairing tourney.Pairing
		outcome match.Outcome
	}
	records := make(chan recordReq)
	recordErrs := make(chan error, 1)

	go func() {
		defer close(recordErrs)
		for req := range records {
			e.Strategy.Record(req.pairing, req.outcome)
			if e.Hooks.MatchFinished != nil {
				e.Hooks.MatchFinished(req.outcome)
			}
		}
	}()

	var collected []error
	runner := match.Runner{Log: e.Log}

	for {
		batch, done := e.Strategy.NextBatch()
		if len(batch) > 0 {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(e.Workers)

			for _, pairing := range batch {
				pairing := pairing
				g.Go(func() error {
					outcome, err := e.runOne(gctx, &runner, pairing)
					if err != nil {
						if fe, ok := err.(*errs.Error); ok && fe.Fatal() {
							return err // aborts the run
						}
						collected = append(collected, err)
						return nil // per-match failure, not fatal to the run
					}
					records <- recordReq{pairing: pairing, outcome: outcome}
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				close(records)
				<-recordErrs
				return nil, collected, err
			}
		}
		if done {
			break
		}
	}

	close(records)
	<-recordErrs

	return e.Strategy.Finalize(), collected, nil
}

func (e *Evaluator) runOne(ctx context.Context, runner *match.Runner, pairing tourney.Pairing) (match.Outcome, error) {
	matchID := fmt.Sprintf("m-%p", &pairing)
	if e.Hooks.MatchStarted != nil {
		e.Hooks.MatchStarted(matchID, pairing.Agents)
	}

	needed := len(pairing.Agents) * e.Constraints.CoresPerAgent
	var cpus *cpuset.Set
	if e.CPUs != nil && needed > 0 {
		set, err := e.CPUs.Reserve(needed)
		if err != nil {
			return match.Outcome{}, errs.Wrap(errs.AgentSpawnFailed, err, "reserving cpu set")
		}
		cpus = set
		defer e.CPUs.Release(cpus)
	}

	var grp *cgroup.Handle
	if e.CgroupM != nil {
		h, err := e.CgroupM.Create(matchID, e.Constraints.RAMPerAgent*uint64(len(pairing.Agents)), 0)
		if err != nil && !e.Constraints.AllowUncontained {
			return match.Outcome{}, errs.Wrap(errs.EnvironmentUnavailable, err, "creating resource group")
		}
		grp = h
	}

	return runner.Run(ctx, pairing.Agents, e.Constraints, e.Factory, cpus, grp, e.CgroupM)
}
