// Package statemachine provides a small, thread-safe legal-transition table
// keyed by comparable state values. Owners declare the edges once and then
// consult Can before committing a transition.
package statemachine

import "sync"

// Machine holds the set of legal transitions between states of type S.
type Machine[S comparable] struct {
	mu    sync.RWMutex
	edges map[S]map[S]bool
}

// New creates an empty transition table.
func New[S comparable]() *Machine[S] {
	return &Machine[S]{edges: make(map[S]map[S]bool)}
}

// Allow declares that each state in to is reachable from from. Declaring a
// state as reachable from itself permits self-transitions.
func (m *Machine[S]) Allow(from S, to ...S) *Machine[S] {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.edges[from]
	if set == nil {
		set = make(map[S]bool, len(to))
		m.edges[from] = set
	}
	for _, s := range to {
		set[s] = true
	}
	return m
}

// Can reports whether the transition from -> to has been declared legal.
func (m *Machine[S]) Can(from, to S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.edges[from][to]
}

// Next returns the states reachable from the given state.
func (m *Machine[S]) Next(from S) []S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]S, 0, len(m.edges[from]))
	for s := range m.edges[from] {
		out = append(out, s)
	}
	return out
}
