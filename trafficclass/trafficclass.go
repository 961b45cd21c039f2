// Package trafficclass defines the (graph, demand, PCE, results) tuple
// that represents one user class in a multi-class assignment.
//
// A Class holds only a read-only *graph.Graph and never references the
// assignment.Assignment that owns it, avoiding a cyclic reference
// between the two. Ownership is one-way: assignment.Assignment owns a
// slice of *Class; Class owns nothing upstream.
package trafficclass

import (
	"errors"
	"fmt"

	"github.com/routeflow/equilibrium/demand"
	"github.com/routeflow/equilibrium/graph"
)

// Sentinel errors for Class construction.
var (
	// ErrNilGraph indicates New was called with a nil graph.
	ErrNilGraph = errors.New("trafficclass: graph is nil")

	// ErrNilMatrix indicates New was called with a nil demand matrix.
	ErrNilMatrix = errors.New("trafficclass: demand matrix is nil")

	// ErrCentroidCountMismatch indicates the demand matrix's dimension
	// does not match the graph's centroid count.
	ErrCentroidCountMismatch = errors.New("trafficclass: demand matrix size does not match centroid count")

	// ErrInvalidPCE indicates a non-positive passenger-car-equivalent
	// scalar was supplied.
	ErrInvalidPCE = errors.New("trafficclass: pce must be > 0")
)

// Results holds link loads for one class, shape (numLinks,). Rather
// than a single matrix-shaped (links, classes) result table, this
// module keeps one Results per Class and the equilibrator sums across
// classes when it needs the aggregate.
type Results struct {
	LinkLoads []float64
}

// reset zeroes LinkLoads in place, reusing the backing array: this runs
// on the assignment hot path and must not allocate.
func (r *Results) reset() {
	for i := range r.LinkLoads {
		r.LinkLoads[i] = 0
	}
}

// Class is one user class: a read-only graph reference, its demand
// matrix, a PCE scalar, the equilibrium Results, and the most recent
// AoN auxiliary Results (AonResults).
type Class struct {
	Name   string
	Graph  *graph.Graph
	Matrix *demand.Matrix
	PCE    float64

	Results    Results
	AonResults Results
}

// New constructs a Class, allocating LinkLoads/AonResults.LinkLoads to
// graph.NumLinks() and validating that the demand matrix's dimension
// matches the graph's centroid count (both index by the same centroid
// order).
func New(name string, g *graph.Graph, m *demand.Matrix, pce float64) (*Class, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if m == nil {
		return nil, ErrNilMatrix
	}
	if m.N() != len(g.Centroids()) {
		return nil, fmt.Errorf("trafficclass: matrix n=%d, centroids=%d: %w", m.N(), len(g.Centroids()), ErrCentroidCountMismatch)
	}
	if pce <= 0 {
		return nil, ErrInvalidPCE
	}
	n := g.NumLinks()
	return &Class{
		Name:       name,
		Graph:      g,
		Matrix:     m,
		PCE:        pce,
		Results:    Results{LinkLoads: make([]float64, n)},
		AonResults: Results{LinkLoads: make([]float64, n)},
	}, nil
}

// ResetAon zeroes AonResults.LinkLoads in place at the start of each
// AoN pass.
func (c *Class) ResetAon() { c.AonResults.reset() }
