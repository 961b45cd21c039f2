package vdf

import (
	"fmt"
	"math"
)

// BPR implements the Bureau of Public Roads congestion function
//
//	t = fftime * (1 + alpha * (flow/capacity)^beta)
//
// and its derivative w.r.t. flow. Alpha and Beta may each be a single
// global scalar (broadcast to every link) or a per-link vector bound to
// a named graph attribute; AlphaVec/BetaVec take priority over
// Alpha/Beta when non-nil.
type BPR struct {
	Alpha, Beta       float64
	AlphaVec, BetaVec []float64
}

var _ VDF = (*BPR)(nil)

// NewBPR constructs a BPR VDF with global scalar parameters. Panics if
// beta <= 0, since a non-positive power makes the function either
// non-monotone or undefined at f=0 for non-integer beta — a programmer
// error in parameter binding, not a data condition to recover from.
func NewBPR(alpha, beta float64) *BPR {
	if beta <= 0 {
		panic(fmt.Sprintf("vdf: NewBPR(beta=%v): %v", beta, ErrInvalidParameter))
	}
	return &BPR{Alpha: alpha, Beta: beta}
}

// NewBPRVector constructs a BPR VDF with per-link alpha/beta vectors.
// assignment.Assignment calls it once, before the assignment loop
// starts, with vectors bound from named graph attributes. Returns
// ErrInvalidParameter if any beta is <= 0.
func NewBPRVector(alpha, beta []float64) (*BPR, error) {
	for _, b := range beta {
		if b <= 0 {
			return nil, fmt.Errorf("vdf: NewBPRVector: beta=%v: %w", b, ErrInvalidParameter)
		}
	}
	return &BPR{AlphaVec: alpha, BetaVec: beta}, nil
}

func (b *BPR) alphaAt(l int) float64 {
	if b.AlphaVec != nil {
		return b.AlphaVec[l]
	}
	return b.Alpha
}

func (b *BPR) betaAt(l int) float64 {
	if b.BetaVec != nil {
		return b.BetaVec[l]
	}
	return b.Beta
}

// Apply writes out[l] = fftime[l] * (1 + alpha_l * (flow[l]/capacity[l])^beta_l).
// At flow[l] == 0 this reduces to fftime[l], satisfying the "defined for
// f=0" requirement without a branch.
func (b *BPR) Apply(out, flow, capacity, fftime []float64) error {
	if err := checkLengths(out, flow, capacity, fftime); err != nil {
		return err
	}
	if err := b.checkVecLengths(out); err != nil {
		return err
	}
	for l := range out {
		ratio := flow[l] / capacity[l]
		out[l] = fftime[l] * (1 + b.alphaAt(l)*math.Pow(ratio, b.betaAt(l)))
	}
	return nil
}

// ApplyDerivative writes out[l] = d/df [ fftime*(1+alpha*(f/cap)^beta) ]
//
//	= fftime * alpha * beta * f^(beta-1) / cap^beta
//
// which is 0 at flow[l] == 0 for beta > 1 and fftime*alpha*beta/cap for
// beta == 1, both finite, satisfying monotone non-decreasing behaviour.
func (b *BPR) ApplyDerivative(out, flow, capacity, fftime []float64) error {
	if err := checkLengths(out, flow, capacity, fftime); err != nil {
		return err
	}
	if err := b.checkVecLengths(out); err != nil {
		return err
	}
	for l := range out {
		beta := b.betaAt(l)
		ratio := flow[l] / capacity[l]
		out[l] = fftime[l] * b.alphaAt(l) * beta * math.Pow(ratio, beta-1) / capacity[l]
	}
	return nil
}

func (b *BPR) checkVecLengths(out []float64) error {
	if b.AlphaVec != nil && len(b.AlphaVec) != len(out) {
		return ErrLengthMismatch
	}
	if b.BetaVec != nil && len(b.BetaVec) != len(out) {
		return ErrLengthMismatch
	}
	return nil
}
