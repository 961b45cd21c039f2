package vdf

import "fmt"

// Constructor builds a VDF from scalar alpha/beta parameters. Vector
// (per-link) parameters do not pass through a Constructor; the caller
// that owns the graph attribute arrays builds that VDF directly (see
// NewBPRVector).
type Constructor func(alpha, beta float64) VDF

// Registry maps an algorithm name (as accepted by
// assignment.Assignment.SetVDF) to its Constructor. The zero value is
// empty; use DefaultRegistry for the built-in set.
type Registry struct {
	ctors map[string]Constructor
}

// DefaultRegistry returns a Registry pre-populated with the required
// "bpr" variant. Additional variants register with Register.
func DefaultRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register("bpr", func(alpha, beta float64) VDF { return NewBPR(alpha, beta) })
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	if r.ctors == nil {
		r.ctors = make(map[string]Constructor)
	}
	r.ctors[name] = ctor
}

// New resolves name to a VDF instance, or returns ErrUnknownVDF.
func (r *Registry) New(name string, alpha, beta float64) (VDF, error) {
	ctor, ok := r.ctors[name]
	if !ok {
		return nil, fmt.Errorf("vdf: %q: %w", name, ErrUnknownVDF)
	}
	return ctor(alpha, beta), nil
}
