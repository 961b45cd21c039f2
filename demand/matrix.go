// Package demand holds an origin-destination trip table: a dense,
// row-major matrix of non-negative trips indexed by (origin,
// destination) over a fixed centroid order.
//
// Matrix uses a flat-slice, row-major float64 store rather than a map,
// because the equilibrator's hot loop is "sum this row" / "read this
// cell" over a dense, small-to-medium centroid count, where a flat
// slice keeps everything in one cache-friendly allocation.
package demand

import (
	"errors"
	"fmt"
)

// Sentinel errors for Matrix construction and access.
var (
	// ErrInvalidDimensions indicates NewMatrix was called with n <= 0.
	ErrInvalidDimensions = errors.New("demand: dimensions must be > 0")

	// ErrIndexOutOfBounds indicates an (origin, destination) index pair
	// is outside [0,n).
	ErrIndexOutOfBounds = errors.New("demand: index out of bounds")

	// ErrNegativeTrips indicates Set was called with a negative trip
	// count; demand.Matrix cells must satisfy trips >= 0.
	ErrNegativeTrips = errors.New("demand: trip count must be non-negative")
)

// Matrix is a square n x n dense trip table, n == number of centroids.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix allocates an n x n zero-initialized Matrix.
func NewMatrix(n int) (*Matrix, error) {
	if n <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Matrix{n: n, data: make([]float64, n*n)}, nil
}

// N returns the centroid count (matrix is N x N).
func (m *Matrix) N() int { return m.n }

func (m *Matrix) index(origin, dest int) (int, error) {
	if origin < 0 || origin >= m.n || dest < 0 || dest >= m.n {
		return 0, fmt.Errorf("demand: (%d,%d): %w", origin, dest, ErrIndexOutOfBounds)
	}
	return origin*m.n + dest, nil
}

// At returns the trip count from origin to dest.
func (m *Matrix) At(origin, dest int) (float64, error) {
	idx, err := m.index(origin, dest)
	if err != nil {
		return 0, err
	}
	return m.data[idx], nil
}

// Set assigns the trip count from origin to dest. Returns
// ErrNegativeTrips for trips < 0.
func (m *Matrix) Set(origin, dest int, trips float64) error {
	if trips < 0 {
		return fmt.Errorf("demand: (%d,%d)=%v: %w", origin, dest, trips, ErrNegativeTrips)
	}
	idx, err := m.index(origin, dest)
	if err != nil {
		return err
	}
	m.data[idx] = trips
	return nil
}

// RowSum returns the total demand originating at origin, i.e.
// sum_over_destinations(demand_row_origin) — the quantity a
// trip-conservation check compares against accumulated tree loads.
func (m *Matrix) RowSum(origin int) float64 {
	start := origin * m.n
	var sum float64
	for _, v := range m.data[start : start+m.n] {
		sum += v
	}
	return sum
}

// Row returns the raw backing slice for origin's row: data[origin*n :
// origin*n+n]. Callers must treat it as read-only; mutate with Set.
func (m *Matrix) Row(origin int) []float64 {
	start := origin * m.n
	return m.data[start : start+m.n]
}

// NonzeroOrigins returns the dense-index list of origins whose row sum
// is strictly positive, in ascending order — used by aon.Loader to
// skip origins with no demand.
func (m *Matrix) NonzeroOrigins() []int {
	var out []int
	for o := 0; o < m.n; o++ {
		if m.RowSum(o) > 0 {
			out = append(out, o)
		}
	}
	return out
}
