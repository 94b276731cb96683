// Package plugin provides a priority ranked registry shared by every kind of
// pipeline extension point.
package plugin

import (
	"sort"
	"sync"
)

// PriorityFunc scores how well p handles the given input. A score of zero or
// less means p does not apply.
type PriorityFunc[P any] func(p P, args ...any) int

// Registry holds plugins of one kind in registration order.
//
// Select returns the plugin with the strictly highest positive priority. When
// several plugins tie for the highest score the one registered first wins.
type Registry[P any] struct {
	mu       sync.RWMutex
	plugins  []P
	priority PriorityFunc[P]
}

// New creates an empty registry scored by priority.
func New[P any](priority PriorityFunc[P]) *Registry[P] {
	return &Registry[P]{priority: priority}
}

// Register appends p. Registering the same instance twice is allowed; the
// second copy can never win a tie against the first.
func (r *Registry[P]) Register(p P) {
	r.mu.Lock()
	r.plugins = append(r.plugins, p)
	r.mu.Unlock()
}

// Select returns the highest priority plugin for args, or false when none
// reports a positive priority.
func (r *Registry[P]) Select(args ...any) (P, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best      P
		bestScore int
		found     bool
	)
	for _, p := range r.plugins {
		score := r.priority(p, args...)
		if score <= 0 {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = p, score, true
		}
	}
	return best, found
}

// Ranked returns every applicable plugin for args, highest priority first.
// Equal priorities keep registration order.
func (r *Registry[P]) Ranked(args ...any) []Scored[P] {
	r.mu.RLock()
	out := make([]Scored[P], 0, len(r.plugins))
	for _, p := range r.plugins {
		if score := r.priority(p, args...); score > 0 {
			out = append(out, Scored[P]{Plugin: p, Priority: score})
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// All returns a copy of the registered plugins in registration order.
func (r *Registry[P]) All() []P {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]P, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Len reports how many plugins are registered.
func (r *Registry[P]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Scored pairs a plugin with the priority it reported.
type Scored[P any] struct {
	Plugin   P
	Priority int
}

// Ordered returns a PriorityFunc that gives every plugin the same positive
// score. Chains that run all stages in registration order use it.
func Ordered[P any]() PriorityFunc[P] {
	return func(P, ...any) int { return 1 }
}
