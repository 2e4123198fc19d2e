// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package unit

import (
	"fmt"
	"iter"
	"slices"
)

// Priority for hooks, the lowest values are run first. Defaults to 0, but negative
// values are ok. Hooks with the same priority run in the order they were added.
type Priority int

// OnEpochFn is the type of OnEpoch hooks: it is called after every training epoch with the
// epoch number (starting at 0) and the signed sum of the errors of the epoch.
//
// If it returns an error, training is interrupted and the error is returned.
type OnEpochFn func(epoch int, errSum float64) error

// OnTrialFn is the type of OnTrial hooks, called after every training run of a learning rate search.
//
// If it returns an error, the search is interrupted and the error is returned.
type OnTrialFn func(trial Trial) error

// HookError is returned when a hook fails: training or the learning rate search are interrupted.
type HookError struct {
	// Hook is the name given when the hook was added.
	Hook string

	// At is the epoch or the trial index at which the hook failed.
	At int

	// Err returned by the hook.
	Err error
}

// Error implements error.
func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q failed at %d: %v", e.Hook, e.At, e.Err)
}

// Unwrap returns the error returned by the hook.
func (e *HookError) Unwrap() error { return e.Err }

// hookWithName stores a hook name and function.
type hookWithName[F any] struct {
	name string
	fn   F
}

// priorityHooks organizes hooks of type H per priority.
type priorityHooks[H any] struct {
	hooks map[Priority][]H
}

func newPriorityHooks[H any]() *priorityHooks[H] {
	return &priorityHooks[H]{
		hooks: make(map[Priority][]H),
	}
}

// Add hook at the given priority.
func (h *priorityHooks[H]) Add(priority Priority, hook H) {
	h.hooks[priority] = append(h.hooks[priority], hook)
}

// All returns an iterator over all registered hooks in priority order.
func (h *priorityHooks[H]) All() iter.Seq[H] {
	return func(yield func(H) bool) {
		keys := make([]Priority, 0, len(h.hooks))
		for key := range h.hooks {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			for _, hook := range h.hooks[key] {
				if !yield(hook) {
					return
				}
			}
		}
	}
}

// Merge appends all hooks of other into h, keeping their priorities.
func (h *priorityHooks[H]) Merge(other *priorityHooks[H]) {
	for priority, list := range other.hooks {
		h.hooks[priority] = append(h.hooks[priority], list...)
	}
}
