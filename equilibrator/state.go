package equilibrator

import (
	"github.com/routeflow/equilibrium/diagnostics"
	"github.com/routeflow/equilibrium/trafficclass"
	"github.com/routeflow/equilibrium/vdf"
)

// classState holds the per-class scratch buffers the direction state
// machine needs. curr and prev are the double-buffered step-direction
// pair: never mutate the buffer a reader still holds a reference to
// mid-update. scratch is where a new direction is computed before the
// three-way rotation promotes it into curr without ever overwriting a
// buffer that is still being read.
type classState struct {
	class *trafficclass.Class

	curr    []float64
	prev    []float64
	scratch []float64

	// u, v, w are the conjugate-direction scratch vectors (d_{k-1}-x_k,
	// y_k-x_k, y_k-d_{k-1}) reused every CFW iteration.
	u, v, w []float64
	// p, q, r are the biconjugate-direction scratch vectors reused every
	// BFW iteration.
	p, q, r []float64

	mul []float64 // hessian.WeightedInnerProduct scratch
}

func newClassState(c *trafficclass.Class) *classState {
	n := len(c.Results.LinkLoads)
	mk := func() []float64 { return make([]float64, n) }
	return &classState{
		class:   c,
		curr:    mk(),
		prev:    mk(),
		scratch: mk(),
		u:       mk(),
		v:       mk(),
		w:       mk(),
		p:       mk(),
		q:       mk(),
		r:       mk(),
		mul:     mk(),
	}
}

// Equilibrator runs the Frank-Wolfe family of descent methods to drive
// a set of traffic classes toward Wardrop user equilibrium.
type Equilibrator struct {
	opts Options
	vdf  vdf.VDF
	sink diagnostics.Sink

	states   []*classState
	capacity []float64
	fftime   []float64
	numLinks int

	iter              int
	rgap              float64
	stepsize          float64
	conjugateStepsize float64
	betas             [3]float64
	doFWStep          bool
	doConjugateStep   bool
	stepsBelow        int

	xAgg    []float64 // aggregate PCE flow of the current committed solution
	yAgg    []float64 // aggregate PCE flow of this iteration's AoN result
	dAgg    []float64 // aggregate PCE flow of this iteration's direction
	hess    []float64 // vdf derivative evaluated at xAgg
	xTrial  []float64 // line-search probe point
	cTrial  []float64 // congested cost evaluated at xTrial
	oldCost []float64 // congested cost vector at the start of the iteration
}

// New constructs an Equilibrator over classes, all of which must
// reference graphs with the same NumLinks (the equilibrator sums
// PCE-weighted flow across classes elementwise, so their link spaces
// must align).
func New(classes []*trafficclass.Class, v vdf.VDF, sink diagnostics.Sink, opts Options) (*Equilibrator, error) {
	if len(classes) == 0 {
		return nil, ErrNoClasses
	}
	if v == nil {
		return nil, ErrNilVDF
	}
	opts = opts.normalize()
	if opts.MaxIterations <= 0 || opts.RGapTarget <= 0 || opts.StepsBelowNeeded <= 0 {
		return nil, ErrInvalidOptions
	}
	if sink == nil {
		sink = diagnostics.Discard{}
	}

	n := classes[0].Graph.NumLinks()
	states := make([]*classState, len(classes))
	for i, c := range classes {
		if c.Graph.NumLinks() != n {
			return nil, ErrLinkCountMismatch
		}
		states[i] = newClassState(c)
	}

	capacity := opts.Capacity
	if capacity == nil {
		capacity = classes[0].Graph.Capacity()
	}
	fftime := opts.FFTime
	if fftime == nil {
		fftime = classes[0].Graph.FreeFlowTime()
	}
	if len(capacity) != n || len(fftime) != n {
		return nil, ErrLinkCountMismatch
	}

	mk := func() []float64 { return make([]float64, n) }
	return &Equilibrator{
		opts:     opts,
		vdf:      v,
		sink:     sink,
		states:   states,
		capacity: capacity,
		fftime:   fftime,
		numLinks: n,
		rgap:     infinity,
		xAgg:     mk(),
		yAgg:     mk(),
		dAgg:     mk(),
		hess:     mk(),
		xTrial:   mk(),
		cTrial:   mk(),
		oldCost:  mk(),
	}, nil
}

// accumulate fills dst[l] = sum_c pick(cs)[l] * cs.class.PCE.
func (e *Equilibrator) accumulate(dst []float64, pick func(*classState) []float64) {
	for l := range dst {
		dst[l] = 0
	}
	for _, cs := range e.states {
		pce := cs.class.PCE
		src := pick(cs)
		for l, v := range src {
			dst[l] += v * pce
		}
	}
}
