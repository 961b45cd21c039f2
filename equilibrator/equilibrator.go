package equilibrator

import (
	"context"
	"fmt"
	"math"

	"github.com/routeflow/equilibrium/aon"
)

const infinity = math.MaxFloat64

// Execute runs the descent loop until convergence or MaxIterations is
// reached. It checks ctx before every iteration, and the AoN loader
// checks it between origins: there is no partial-iteration rollback, so
// a cancellation leaves the last fully completed iteration's Results
// intact and returns ErrCancelled wrapping ctx.Err(). Any other error
// ends the run after being reported through the sink's Errorf.
func (e *Equilibrator) Execute(ctx context.Context) (Result, error) {
	loader := aon.New(aon.Options{FailOnUnreachable: e.opts.FailOnUnreachable})
	fail := func(err error) (Result, error) {
		e.sink.Errorf("equilibrator: iteration %d: %v", e.iter, err)
		return Result{}, err
	}
	var history []IterationRecord
	var stepsizes []float64
	var unreachableTrips float64
	var unreachableCount int

	for iter := 1; iter <= e.opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		e.iter = iter

		unreachableTrips, unreachableCount = 0, 0
		for _, cs := range e.states {
			aonRes, err := loader.Execute(ctx, cs.class)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return Result{}, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
				}
				return fail(err)
			}
			unreachableTrips += aonRes.UnreachableTrips
			unreachableCount += aonRes.UnreachableCount
		}
		if unreachableCount > 0 {
			e.sink.Warnf("equilibrator: iteration %d: %d unreachable (origin, destination) pair(s) discarding %g trips", iter, unreachableCount, unreachableTrips)
		}
		e.accumulate(e.yAgg, func(cs *classState) []float64 { return cs.class.AonResults.LinkLoads })

		if iter == 1 {
			for _, cs := range e.states {
				copy(cs.class.Results.LinkLoads, cs.class.AonResults.LinkLoads)
			}
			e.stepsize = 1
		} else {
			copy(e.oldCost, e.currentCostVector())
			if err := e.computeDirection(); err != nil {
				return fail(err)
			}
			if err := e.computeStepsize(); err != nil {
				return fail(err)
			}
			lambda := e.stepsize
			for _, cs := range e.states {
				x := cs.class.Results.LinkLoads
				for l := range x {
					x[l] = (1-lambda)*x[l] + lambda*cs.curr[l]
				}
			}
		}

		e.accumulate(e.xAgg, func(cs *classState) []float64 { return cs.class.Results.LinkLoads })
		stepsizes = append(stepsizes, e.stepsize)

		record := IterationRecord{
			Iteration:        iter,
			Stepsize:         e.stepsize,
			Beta0:            e.betas[0],
			Beta1:            e.betas[1],
			Beta2:            e.betas[2],
			Algorithm:        e.opts.Algorithm,
			UnreachableTrips: unreachableTrips,
			UnreachableCount: unreachableCount,
		}

		converged := false
		if iter > 1 {
			e.rgap = relativeGap(e.oldCost, e.xAgg, e.yAgg)
			record.RGap = e.rgap
			converged = e.rgap <= e.opts.RGapTarget
			if converged {
				e.stepsBelow++
			} else {
				e.stepsBelow = 0
			}
		}
		history = append(history, record)
		e.sink.Infof("equilibrator: iteration %d: algorithm=%s stepsize=%g rgap=%g", iter, e.opts.Algorithm, e.stepsize, e.rgap)

		if err := e.publishCost(); err != nil {
			return fail(err)
		}

		if iter > 1 && converged && e.stepsBelow >= e.opts.StepsBelowNeeded {
			return Result{
				Converged:        true,
				RGap:             e.rgap,
				Iterations:       iter,
				StepsizeHistory:  stepsizes,
				History:          history,
				UnreachableTrips: unreachableTrips,
				UnreachableCount: unreachableCount,
			}, nil
		}
	}

	if e.rgap > e.opts.RGapTarget {
		e.sink.Warnf("equilibrator: did not converge within %d iterations, rgap=%g", e.opts.MaxIterations, e.rgap)
	}
	return Result{
		Converged:        false,
		RGap:             e.rgap,
		Iterations:       e.opts.MaxIterations,
		StepsizeHistory:  stepsizes,
		History:          history,
		UnreachableTrips: unreachableTrips,
		UnreachableCount: unreachableCount,
	}, nil
}

// currentCostVector returns the cost vector as it stands before this
// iteration's congestion update, read from the first class's graph
// (every class's graph is required to share the same cost values, since
// New validates a shared link space and publishCost writes the same
// vector into every class).
func (e *Equilibrator) currentCostVector() []float64 {
	return e.states[0].class.Graph.Cost()
}

// publishCost evaluates the VDF at the new aggregate flow and copies the
// resulting congested travel time into every class's graph cost vector,
// so the next iteration's AoN pass routes against it.
func (e *Equilibrator) publishCost() error {
	newCost := e.cTrial
	if err := e.vdf.Apply(newCost, e.xAgg, e.capacity, e.fftime); err != nil {
		return err
	}
	for _, cs := range e.states {
		copy(cs.class.Graph.Cost(), newCost)
	}
	return nil
}

// relativeGap returns |<c,x> - <c,y>| / <c,x>, the Beckmann-gap
// convergence measure, where c is the cost vector in force when this
// iteration's shortest paths were computed, x is the post-update
// aggregate solution, and y is this iteration's AoN aggregate. A
// zero-demand network makes <c,x> == 0, so rgap is undefined and
// reported as 0 rather than NaN.
func relativeGap(cost, x, y []float64) float64 {
	var cx, cy float64
	for l := range cost {
		cx += cost[l] * x[l]
		cy += cost[l] * y[l]
	}
	if cx == 0 {
		return 0
	}
	return math.Abs(cx-cy) / cx
}
