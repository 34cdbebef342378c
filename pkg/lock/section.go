// Package lock implements a composable critical section
package lock

import "sync"

// Section serializes access to the state of the component that owns it.
// The zero value is ready to use. A Section must not be copied after first use.
type Section struct {
	mu sync.Mutex
}

// Protected runs action while holding the section and returns its error.
func (s *Section) Protected(action func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return action()
}

// Guarded evaluates compute while holding s and returns its result.
func Guarded[T any](s *Section, compute func() (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return compute()
}
