package equilibrator

// computeStepsize fills e.stepsize for the current iteration. MSA fixes
// lambda = 1/iter with no search; every other algorithm bisects for the
// root of phi'(lambda) = sum_l t_l(x_k + lambda*(d_k - x_k)) * (d_k[l] -
// x_k[l]) on [0,1], falling back to a documented heuristic when phi'
// does not change sign across the interval.
func (e *Equilibrator) computeStepsize() error {
	if e.opts.Algorithm == MSA {
		e.stepsize = 1.0 / float64(e.iter)
		return nil
	}
	return e.lineSearch()
}

func (e *Equilibrator) phiPrime(lambda float64) (float64, error) {
	for l := range e.xTrial {
		e.xTrial[l] = e.xAgg[l] + lambda*(e.dAgg[l]-e.xAgg[l])
	}
	if err := e.vdf.Apply(e.cTrial, e.xTrial, e.capacity, e.fftime); err != nil {
		return 0, err
	}

	var sum float64
	for l := range e.cTrial {
		sum += e.cTrial[l] * (e.dAgg[l] - e.xAgg[l])
	}
	return sum, nil
}

func (e *Equilibrator) lineSearch() error {
	f0, err := e.phiPrime(0)
	if err != nil {
		return err
	}
	f1, err := e.phiPrime(1)
	if err != nil {
		return err
	}

	if (f0 <= 0 && f1 >= 0) || (f0 >= 0 && f1 <= 0) {
		lambda, err := e.bisect(0, 1, f0, f1)
		if err != nil {
			return err
		}
		e.stepsize = clamp01(lambda)
		return nil
	}

	// phi' keeps the same sign across [0,1]: the descent direction does
	// not bracket a stationary point. Fall back to a diminishing-step
	// heuristic and request a restart to the plain Frank-Wolfe direction
	// on the next iteration, since the direction that produced this
	// degenerate search is unreliable to keep conjugating against.
	if f0 < f1 {
		e.sink.Warnf("equilibrator: line search found no sign change at iteration %d, falling back to heuristic stepsize", e.iter)
		e.stepsize = 1.0 / float64(e.iter)
		e.doFWStep = true
		return nil
	}
	e.stepsize = 1.0
	return nil
}

func (e *Equilibrator) bisect(lo, hi, fLo, fHi float64) (float64, error) {
	tol := e.opts.BisectionTolerance
	for i := 0; i < e.opts.BisectionMaxIterations && hi-lo > tol; i++ {
		mid := (lo + hi) / 2
		fMid, err := e.phiPrime(mid)
		if err != nil {
			return 0, err
		}
		if fMid == 0 {
			return mid, nil
		}
		if sameSign(fMid, fLo) {
			lo, fLo = mid, fMid
		} else {
			hi, fHi = mid, fMid
		}
	}
	return (lo + hi) / 2, nil
}

func sameSign(a, b float64) bool {
	return (a >= 0 && b >= 0) || (a <= 0 && b <= 0)
}
