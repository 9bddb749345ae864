// Error kinds
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

// Package errs defines the error kinds of spec.md §7, wrapped with
// github.com/pkg/errors for stack-trace context on the orchestration-
// fatal kinds, matching sched/isol/docker.go's errors.Wrapf style.
package errs

import "github.com/pkg/errors"

// Kind distinguishes whether an error is local to one agent's match
// participation or fatal to the whole run.
type Kind int

const (
	EnvironmentUnavailable Kind = iota
	AgentSpawnFailed
	AgentTimeout
	AgentBudgetExceeded
	AgentOOM
	AgentCrashed
	StrategyError
	LoaderError
)

func (k Kind) String() string {
	switch k {
	case EnvironmentUnavailable:
		return "environment_unavailable"
	case AgentSpawnFailed:
		return "agent_spawn_failed"
	case AgentTimeout:
		return "agent_timeout"
	case AgentBudgetExceeded:
		return "agent_budget_exceeded"
	case AgentOOM:
		return "agent_oom"
	case AgentCrashed:
		return "agent_crashed"
	case StrategyError:
		return "strategy_error"
	case LoaderError:
		return "loader_error"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with context. EnvironmentUnavailable and
// StrategyError are the two kinds the Evaluator treats as fatal to
// the whole run; the rest are always local to one agent's match
// participation (spec.md §7's recovery policy).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether this error kind aborts the whole run.
func (e *Error) Fatal() bool {
	return e.Kind == EnvironmentUnavailable || e.Kind == StrategyError
}

// Wrap builds an Error of the given kind, prefixing context and
// attaching a stack trace via pkg/errors.Wrap on every call.
func Wrap(kind Kind, err error, context string) *Error {
	return &Error{Kind: kind, Err: errors.Wrap(err, context)}
}
