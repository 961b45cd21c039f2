package equilibrator

import "github.com/routeflow/equilibrium/internal/hessian"

// computeDirection fills each classState's scratch buffer with d_k and
// rotates it into curr, following the direction-family state machine.
// It must only be called for iter > 1; iteration 1 seeds Results
// directly from the AoN pass with no direction at all.
func (e *Equilibrator) computeDirection() error {
	switch e.opts.Algorithm {
	case MSA, FW:
		e.fwStep()
	case CFW:
		if e.iter == 2 {
			e.fwStep()
		} else if err := e.cfwStep(); err != nil {
			return err
		}
	default: // BFW
		switch {
		case e.iter == 2 || e.stepsize == 1.0 || e.doFWStep:
			e.fwStep()
		case e.iter == 3 || e.doConjugateStep:
			if err := e.cfwStep(); err != nil {
				return err
			}
		default:
			if err := e.bfwStep(); err != nil {
				return err
			}
		}
	}

	e.accumulate(e.dAgg, func(cs *classState) []float64 { return cs.curr })
	return nil
}

// fwStep sets d_k = y_k for every class: the plain Frank-Wolfe
// direction, the feasible extreme point found by this iteration's AoN
// assignment.
func (e *Equilibrator) fwStep() {
	for _, cs := range e.states {
		copy(cs.scratch, cs.class.AonResults.LinkLoads)
		cs.prev, cs.curr, cs.scratch = cs.curr, cs.scratch, cs.prev
	}
	e.doFWStep = false
	e.doConjugateStep = true
	e.conjugateStepsize = 0
}

// cfwStep sets d_k = alpha*d_{k-1} + (1-alpha)*y_k for every class,
// where alpha is the single conjugate-direction coefficient shared
// across classes.
func (e *Equilibrator) cfwStep() error {
	e.doConjugateStep = false
	alpha, err := e.calculateConjugateStepsize()
	if err != nil {
		return err
	}
	e.conjugateStepsize = alpha
	for _, cs := range e.states {
		aon := cs.class.AonResults.LinkLoads
		for l := range cs.scratch {
			cs.scratch[l] = alpha*cs.curr[l] + (1-alpha)*aon[l]
		}
		cs.prev, cs.curr, cs.scratch = cs.curr, cs.scratch, cs.prev
	}
	return nil
}

// bfwStep sets d_k = beta0*y_k + beta1*d_{k-1} + beta2*d_{k-2} for every
// class, the biconjugate Frank-Wolfe direction.
func (e *Equilibrator) bfwStep() error {
	if err := e.calculateBetas(); err != nil {
		return err
	}
	b0, b1, b2 := e.betas[0], e.betas[1], e.betas[2]
	for _, cs := range e.states {
		aon := cs.class.AonResults.LinkLoads
		for l := range cs.scratch {
			cs.scratch[l] = b0*aon[l] + b1*cs.curr[l] + b2*cs.prev[l]
		}
		cs.prev, cs.curr, cs.scratch = cs.curr, cs.scratch, cs.prev
	}
	return nil
}

// calculateConjugateStepsize returns the CFW coefficient alpha computed
// from a single sum over classes of H-weighted inner products. A nested
// loop over class pairs here would double-count cross terms and is
// deliberately avoided.
func (e *Equilibrator) calculateConjugateStepsize() (float64, error) {
	if err := e.vdf.ApplyDerivative(e.hess, e.xAgg, e.capacity, e.fftime); err != nil {
		return 0, err
	}

	var num, den float64
	for _, cs := range e.states {
		x := cs.class.Results.LinkLoads
		y := cs.class.AonResults.LinkLoads
		for l := range cs.u {
			cs.u[l] = cs.curr[l] - x[l] // d_{k-1} - x_k
			cs.v[l] = y[l] - x[l]       // y_k - x_k
			cs.w[l] = y[l] - cs.curr[l] // y_k - d_{k-1}
		}
		num += hessian.WeightedInnerProduct(cs.u, cs.v, e.hess, cs.mul)
		den += hessian.WeightedInnerProduct(cs.u, cs.w, e.hess, cs.mul)
	}

	if den == 0 {
		return 0, nil
	}
	return clampAlpha(num / den), nil
}

// alphaMax bounds the CFW coefficient away from 1, where the conjugate
// direction would degenerate into reusing the previous direction
// outright.
const alphaMax = 0.99999

func clampAlpha(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > alphaMax {
		return alphaMax
	}
	return v
}

// calculateBetas fills e.betas with the BFW coefficients (beta0, beta1,
// beta2) in closed form, using the stepsize from the iteration that
// produced the current solution x_k as lambda.
func (e *Equilibrator) calculateBetas() error {
	if err := e.vdf.ApplyDerivative(e.hess, e.xAgg, e.capacity, e.fftime); err != nil {
		return err
	}
	lambda := e.stepsize

	var muNum, muDen, nuNum, nuDen float64
	for _, cs := range e.states {
		x := cs.class.Results.LinkLoads
		y := cs.class.AonResults.LinkLoads
		for l := range cs.p {
			cs.p[l] = lambda*cs.curr[l] + (1-lambda)*cs.prev[l] - x[l]
			cs.v[l] = y[l] - x[l]
			cs.q[l] = cs.prev[l] - cs.curr[l]
			cs.r[l] = cs.curr[l] - x[l]
		}
		muNum += hessian.WeightedInnerProduct(cs.p, cs.v, e.hess, cs.mul)
		muDen += hessian.WeightedInnerProduct(cs.p, cs.q, e.hess, cs.mul)
		nuNum += hessian.WeightedInnerProduct(cs.r, cs.v, e.hess, cs.mul)
		nuDen += hessian.WeightedInnerProduct(cs.r, cs.r, e.hess, cs.mul)
	}

	var mu float64
	if muDen != 0 {
		mu = maxFloat(0, -muNum/muDen)
	}

	var nu float64
	if nuDen != 0 {
		nu = -nuNum / nuDen
		if lambda < 1 {
			nu += mu * lambda / (1 - lambda)
		}
		nu = maxFloat(0, nu)
	}

	beta0 := 1 / (1 + mu + nu)
	e.betas[0] = beta0
	e.betas[1] = nu * beta0
	e.betas[2] = mu * beta0
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
