package equilibrator

// Algorithm selects the direction-family a run uses after the first
// (seed) iteration.
type Algorithm int

const (
	// BFW runs the full restart-aware state machine: an FW seed at
	// iteration 2, a CFW seed at iteration 3, biconjugate Frank-Wolfe
	// thereafter, with automatic restarts to FW/CFW whenever the line
	// search degenerates (do_fw_step/do_conjugate_step).
	BFW Algorithm = iota
	// CFW seeds once with an FW step at iteration 2, then always takes
	// the conjugate direction.
	CFW
	// FW always takes the plain Frank-Wolfe direction (d_k = y_k), with
	// a bisected line search every iteration.
	FW
	// MSA always takes the plain Frank-Wolfe direction with a fixed
	// stepsize lambda = 1/iter and no line search.
	MSA
)

func (a Algorithm) String() string {
	switch a {
	case BFW:
		return "bfw"
	case CFW:
		return "cfw"
	case FW:
		return "fw"
	case MSA:
		return "msa"
	default:
		return "unknown"
	}
}

// Options configures one Equilibrator run.
type Options struct {
	Algorithm Algorithm

	// MaxIterations bounds the number of AoN/direction/stepsize passes.
	MaxIterations int

	// RGapTarget is the relative-gap threshold below which an iteration
	// counts as converged.
	RGapTarget float64

	// StepsBelowNeeded is the number of consecutive converged iterations
	// required before Execute stops early.
	StepsBelowNeeded int

	// BisectionTolerance bounds the line search's lambda interval width
	// at which it stops refining. Zero selects a sensible default.
	BisectionTolerance float64

	// BisectionMaxIterations bounds the number of bisection refinements
	// per line search. Zero selects a sensible default.
	BisectionMaxIterations int

	// Capacity and FFTime, when non-nil, override the capacity and
	// free-flow-time arrays the VDF is evaluated against, in place of
	// classes[0].Graph.Capacity()/FreeFlowTime(). assignment.Assignment
	// sets these when SetCapacityField/SetTimeField names an attribute
	// other than the graph's built-in columns.
	Capacity []float64
	FFTime   []float64

	// FailOnUnreachable turns unreachable (origin, destination) demand
	// into a fatal error from the AoN loading step, instead of the
	// default tolerate-count-and-report behaviour. Forwarded verbatim to
	// aon.Options.FailOnUnreachable on every iteration's loader.
	FailOnUnreachable bool
}

const (
	defaultBisectionTolerance     = 1e-7
	defaultBisectionMaxIterations = 60
)

func (o Options) normalize() Options {
	if o.BisectionTolerance <= 0 {
		o.BisectionTolerance = defaultBisectionTolerance
	}
	if o.BisectionMaxIterations <= 0 {
		o.BisectionMaxIterations = defaultBisectionMaxIterations
	}
	return o
}

// IterationRecord captures one iteration's diagnostic snapshot.
type IterationRecord struct {
	Iteration        int
	RGap             float64
	Stepsize         float64
	Beta0            float64
	Beta1            float64
	Beta2            float64
	Algorithm        Algorithm
	UnreachableTrips float64
	UnreachableCount int
}

// Result is the outcome of Execute.
type Result struct {
	Converged       bool
	RGap            float64
	Iterations      int
	StepsizeHistory []float64
	History         []IterationRecord

	// UnreachableTrips and UnreachableCount report the most recent
	// iteration's discarded demand: the total trips, and the number of
	// distinct (origin, destination) pairs, for which no path existed
	// between origin and destination. Always zero when
	// Options.FailOnUnreachable is set, since that case returns an error
	// instead of completing a run.
	UnreachableTrips float64
	UnreachableCount int
}
