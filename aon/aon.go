// Package aon implements the all-or-nothing traffic loader: for one
// class, a shortest-path tree is built from every origin centroid with
// non-zero demand and that row's trips are assigned entirely to the
// tree.
//
// Shortest-path trees for distinct origins are independent, so
// Loader.Execute fans them out across a bounded worker pool with
// golang.org/x/sync/errgroup — cooperative cancellation threaded
// through a long-running kernel via context.Context, generalised here
// to bounded fan-out with first-error propagation. Per-origin results
// are accumulated into private buffers and summed back in ascending
// origin order at the end, so the final link loads are identical
// regardless of goroutine scheduling.
package aon

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/routeflow/equilibrium/shortestpath"
	"github.com/routeflow/equilibrium/trafficclass"
)

// Sentinel errors for the AoN loader.
var (
	// ErrUnreachableDemand indicates demand existed between an
	// origin/destination pair with no connecting path, and
	// Options.FailOnUnreachable was set.
	ErrUnreachableDemand = errors.New("aon: unreachable demand")
)

// Options configures one Loader.
type Options struct {
	// FailOnUnreachable turns unreachable (o,d) demand into a fatal
	// error instead of the default tolerate-and-count behaviour.
	FailOnUnreachable bool

	// MaxWorkers bounds the size of the origin worker pool. Zero means
	// "use runtime.GOMAXPROCS(0)", keeping the pool within hardware
	// parallelism.
	MaxWorkers int

	// Skims, when true, records the shortest congested-cost distance to
	// every reachable destination alongside the per-link loading. Only
	// the active cost vector is supported, since recomputing a tree per
	// named field would multiply the shortest-path work with no benefit
	// beyond the congested cost itself.
	Skims bool
}

// Result holds the outcome of one Execute call: per-(origin,
// destination) skims (if requested) and unreachable-demand accounting.
type Result struct {
	// Skim[o*n+d] = shortest congested-cost distance from origin o to
	// destination d, recorded only if Options.Skims was set.
	Skim []float64

	// UnreachableTrips is the total demand discarded because no path
	// existed between its origin and destination (zero if
	// FailOnUnreachable is set, since that case returns an error
	// instead).
	UnreachableTrips float64
	// UnreachableCount is the number of distinct (o,d) pairs discarded.
	UnreachableCount int
}

// Loader runs one all-or-nothing loading pass for one TrafficClass.
type Loader struct {
	Options Options
}

// New constructs a Loader with the given Options.
func New(opts Options) *Loader {
	return &Loader{Options: opts}
}

// Execute zeroes c.AonResults.LinkLoads, then for every origin centroid
// with non-zero demand builds a shortest-path tree and loads that row's
// trips onto it. It returns ctx.Err() if ctx is cancelled between
// origins: there is no partial-pass rollback, and Execute honours
// cancellation at origin granularity since one AoN pass is the unit of
// work the equilibrator waits on each iteration.
func (l *Loader) Execute(ctx context.Context, c *trafficclass.Class) (Result, error) {
	c.ResetAon()

	g := c.Graph
	origins := c.Matrix.NonzeroOrigins()
	numLinks := len(c.AonResults.LinkLoads)
	centroids := g.Centroids()

	var res Result
	if l.Options.Skims {
		res.Skim = make([]float64, c.Matrix.N()*c.Matrix.N())
	}

	workers := l.Options.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(origins) && len(origins) > 0 {
		workers = len(origins)
	}

	type perOrigin struct {
		loads            []float64
		unreachableTrips float64
		unreachableCount int
		skimRow          []float64
	}
	outcomes := make([]perOrigin, len(origins))

	grp, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		grp.SetLimit(workers)
	}

	for i, originPos := range origins {
		i, originPos := i, originPos
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			originNode := centroids[originPos]
			tree, err := shortestpath.From(g, originNode)
			if err != nil {
				return fmt.Errorf("aon: origin %d: %w", g.NodeID(originNode), err)
			}

			out := perOrigin{loads: make([]float64, numLinks)}
			if l.Options.Skims {
				out.skimRow = make([]float64, c.Matrix.N())
			}

			row := c.Matrix.Row(originPos)
			for destPos, trips := range row {
				if trips <= 0 || destPos == originPos {
					continue
				}
				destNode := centroids[destPos]
				path, ok := tree.PathTo(destNode)
				if !ok {
					if l.Options.FailOnUnreachable {
						return fmt.Errorf("aon: origin %d dest %d: %w", g.NodeID(originNode), g.NodeID(destNode), ErrUnreachableDemand)
					}
					out.unreachableTrips += trips
					out.unreachableCount++
					continue
				}
				for _, link := range path {
					out.loads[link] += trips
				}
				if l.Options.Skims {
					out.skimRow[destPos] = tree.Dist[destNode]
				}
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return Result{}, err
	}

	// Deterministic merge: sum per-origin buffers back in ascending
	// origin order, never by atomic add from arbitrary goroutines.
	// Floating-point addition is non-associative, and determinism of the
	// final link loads is an invariant regardless of scheduling.
	loads := c.AonResults.LinkLoads
	for i, originPos := range origins {
		out := outcomes[i]
		for link, v := range out.loads {
			if v != 0 {
				loads[link] += v
			}
		}
		res.UnreachableTrips += out.unreachableTrips
		res.UnreachableCount += out.unreachableCount
		if l.Options.Skims {
			copy(res.Skim[originPos*c.Matrix.N():(originPos+1)*c.Matrix.N()], out.skimRow)
		}
	}

	return res, nil
}
