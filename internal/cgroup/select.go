// Backend selection and uncontained degradation
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

package cgroup

import "log"

// Select picks the best available Manager, in order: native cgroups
// v2, then (if allowUncontained) a Docker-backed fallback, then (if
// allowUncontained) nil, meaning uncontained mode — the caller must
// treat a nil Manager as "enforce time limits only". When
// allowUncontained is false and native cgroups are unavailable, Select
// returns NewNative's error (ErrUnsupported, or ErrPermission wrapped
// with context), which is fatal per spec.md §4.1.
func Select(root string, allowUncontained bool, logger *log.Logger) (Manager, error) {
	native, err := NewNative(root)
	if err == nil {
		return native, nil
	}
	if logger != nil {
		logger.Printf("native cgroups v2 unavailable: %v", err)
	}

	if !allowUncontained {
		return nil, err
	}

	if docker, derr := NewDocker(); derr == nil {
		if logger != nil {
			logger.Print("falling back to docker-backed resource groups")
		}
		return docker, nil
	}

	if logger != nil {
		logger.Print("falling back to uncontained mode (time-only enforcement)")
	}
	return nil, nil
}
