package assignment

import (
	"context"
	"fmt"

	"github.com/routeflow/equilibrium/diagnostics"
	"github.com/routeflow/equilibrium/equilibrator"
	"github.com/routeflow/equilibrium/graph"
	"github.com/routeflow/equilibrium/trafficclass"
	"github.com/routeflow/equilibrium/vdf"
)

// VDFParams configures a VDF's alpha/beta parameters.
// When AlphaField or BetaField is non-empty it names a numeric graph
// attribute bound once at Execute time (a per-link vector parameter);
// otherwise Alpha/Beta are applied as global scalars.
type VDFParams struct {
	Alpha, Beta           float64
	AlphaField, BetaField string
}

// Assignment is the top-level façade: it validates configuration, owns
// a set of traffic classes, and drives an Equilibrator to produce link
// loads satisfying Wardrop equilibrium.
//
// Operations are exposed as imperative setters (set_classes/set_vdf/...)
// rather than a functional-options constructor; an Assignment's configuration is
// mutated incrementally by a caller before one Execute call, the shape
// preferred here over a single large options struct when fields are
// this interdependent.
type Assignment struct {
	classes []*trafficclass.Class

	vdfName   string
	vdfParams VDFParams
	registry  *vdf.Registry

	capacityField string
	timeField     string

	algorithm        equilibrator.Algorithm
	rgapTarget       float64
	maxIterations    int
	stepsBelowNeeded int

	failOnUnreachable bool

	sink diagnostics.Sink
}

// New constructs an Assignment with its documented defaults: algorithm
// bfw, rgap_target 1e-4, maximum_iterations 500,
// steps_below_needed_to_terminate 1.
func New() *Assignment {
	return &Assignment{
		registry:         vdf.DefaultRegistry(),
		algorithm:        equilibrator.BFW,
		rgapTarget:       1e-4,
		maxIterations:    500,
		stepsBelowNeeded: 1,
		sink:             diagnostics.Discard{},
	}
}

// SetClasses replaces the set of traffic classes participating in this
// run.
func (a *Assignment) SetClasses(classes []*trafficclass.Class) { a.classes = classes }

// SetVDF selects the volume-delay function by name ("bpr" is
// pre-registered; additional variants can be registered on a custom
// *vdf.Registry via SetRegistry).
func (a *Assignment) SetVDF(name string) { a.vdfName = name }

// SetRegistry overrides the VDF name resolver, letting a caller register
// additional volume-delay function families beyond "bpr".
func (a *Assignment) SetRegistry(r *vdf.Registry) { a.registry = r }

// SetVDFParameters configures the selected VDF's alpha/beta parameters.
func (a *Assignment) SetVDFParameters(p VDFParams) { a.vdfParams = p }

// SetCapacityField names the graph attribute the VDF is evaluated
// against for link capacity, overriding the graph's built-in Capacity()
// column. All classes must reference graphs exposing this attribute.
func (a *Assignment) SetCapacityField(name string) { a.capacityField = name }

// SetTimeField names the graph attribute the VDF is evaluated against
// for free-flow time, overriding the graph's built-in FreeFlowTime()
// column.
func (a *Assignment) SetTimeField(name string) { a.timeField = name }

// SetAlgorithm selects the direction-family ("msa", "fw", "cfw", or
// "bfw"). Returns ErrUnknownAlgorithm for any other value.
func (a *Assignment) SetAlgorithm(name string) error {
	switch name {
	case "msa":
		a.algorithm = equilibrator.MSA
	case "fw":
		a.algorithm = equilibrator.FW
	case "cfw":
		a.algorithm = equilibrator.CFW
	case "bfw":
		a.algorithm = equilibrator.BFW
	default:
		return fmt.Errorf("assignment: %q: %w", name, ErrUnknownAlgorithm)
	}
	return nil
}

// SetRGapTarget overrides the default relative-gap convergence target.
func (a *Assignment) SetRGapTarget(target float64) { a.rgapTarget = target }

// SetMaximumIterations overrides the default iteration budget.
func (a *Assignment) SetMaximumIterations(n int) { a.maxIterations = n }

// SetStepsBelowNeededToTerminate overrides the number of consecutive
// converged iterations required before Execute stops early.
func (a *Assignment) SetStepsBelowNeededToTerminate(n int) { a.stepsBelowNeeded = n }

// SetDiagnosticSink installs a diagnostics.Sink, passed by reference, to
// receive this run's warnings and progress notes.
func (a *Assignment) SetDiagnosticSink(sink diagnostics.Sink) { a.sink = sink }

// SetFailOnUnreachable controls how Execute treats (origin, destination)
// demand with no path between the pair. By default such demand is
// dropped and reported via the returned Result's UnreachableTrips and
// UnreachableCount; passing true makes Execute fail fast instead,
// returning an error that wraps aon.ErrUnreachableDemand.
func (a *Assignment) SetFailOnUnreachable(fail bool) { a.failOnUnreachable = fail }

// Execute validates the configuration and runs the equilibrator to
// completion or convergence, rejecting invalid configuration at entry
// rather than partway through a run.
func (a *Assignment) Execute(ctx context.Context) (equilibrator.Result, error) {
	if len(a.classes) == 0 {
		return equilibrator.Result{}, ErrNoClasses
	}
	if a.vdfName == "" {
		return equilibrator.Result{}, ErrNoVDF
	}

	v, err := a.resolveVDF()
	if err != nil {
		return equilibrator.Result{}, err
	}

	opts := equilibrator.Options{
		Algorithm:         a.algorithm,
		MaxIterations:     a.maxIterations,
		RGapTarget:        a.rgapTarget,
		StepsBelowNeeded:  a.stepsBelowNeeded,
		FailOnUnreachable: a.failOnUnreachable,
	}

	g := a.classes[0].Graph
	if a.capacityField != "" {
		capacity, err := g.Attribute(a.capacityField)
		if err != nil {
			return equilibrator.Result{}, fmt.Errorf("%w: %v", ErrMissingCapacityField, err)
		}
		opts.Capacity = capacity
	}
	if a.timeField != "" {
		fftime, err := g.Attribute(a.timeField)
		if err != nil {
			return equilibrator.Result{}, fmt.Errorf("%w: %v", ErrMissingTimeField, err)
		}
		opts.FFTime = fftime
	}

	eq, err := equilibrator.New(a.classes, v, a.sink, opts)
	if err != nil {
		return equilibrator.Result{}, err
	}
	return eq.Execute(ctx)
}

// resolveVDF builds the VDF instance from the configured name and
// parameters, binding per-link vectors from the first class's graph
// when AlphaField/BetaField are set. Parameters are resolved once,
// before the assignment loop starts.
func (a *Assignment) resolveVDF() (vdf.VDF, error) {
	p := a.vdfParams
	if a.vdfName == "bpr" && (p.AlphaField != "" || p.BetaField != "") {
		g := a.classes[0].Graph
		n := g.NumLinks()
		alphaVec, err := resolveParamVector(g, p.AlphaField, p.Alpha, n)
		if err != nil {
			return nil, err
		}
		betaVec, err := resolveParamVector(g, p.BetaField, p.Beta, n)
		if err != nil {
			return nil, err
		}
		v, err := vdf.NewBPRVector(alphaVec, betaVec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVDFParameters, err)
		}
		return v, nil
	}

	if a.vdfName == "bpr" && p.Beta <= 0 {
		return nil, fmt.Errorf("assignment: bpr beta=%v: %w", p.Beta, ErrInvalidVDFParameters)
	}

	v, err := a.registry.New(a.vdfName, p.Alpha, p.Beta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownVDF, err)
	}
	return v, nil
}

// resolveParamVector returns a per-link parameter vector: either the
// named graph attribute, or scalar broadcast to every link if field is
// empty.
func resolveParamVector(g *graph.Graph, field string, scalar float64, n int) ([]float64, error) {
	if field == "" {
		out := make([]float64, n)
		for i := range out {
			out[i] = scalar
		}
		return out, nil
	}
	return g.Attribute(field)
}
