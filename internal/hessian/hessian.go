// Package hessian computes the H-weighted inner products the CFW and
// BFW direction-search coefficients need, where H is the diagonal of
// the Beckmann objective's Hessian: the VDF derivative evaluated at the
// current aggregate flow.
//
// All inner products in the equilibrator are of the form
// sum_l a[l]*b[l]*h[l]; this package vectorises that computation with
// gonum.org/v1/gonum/floats rather than a hand-rolled loop.
package hessian

import "gonum.org/v1/gonum/floats"

// WeightedInnerProduct returns sum_l a[l]*b[l]*h[l]. scratch must have
// the same length as a, b, and h; it is overwritten and is supplied by
// the caller so no allocation happens on the equilibrator's hot path.
func WeightedInnerProduct(a, b, h, scratch []float64) float64 {
	floats.MulTo(scratch, a, b)
	return floats.Dot(scratch, h)
}
