// Package shortestpath computes a single-origin shortest-path tree over
// a graph.Graph under its current cost vector, using label-setting
// Dijkstra with a binary heap (container/heap), the same technique the
// teacher's dijkstra package uses, adapted from map-keyed vertices to
// dense array indices since graph.Graph is array-based.
//
// Distances are double precision; ties are broken in favour of the
// lower link index, which falls out naturally here because
// graph.Graph's forward-star lists a node's outgoing links in
// ascending link-index order (graph.Prepare's stable sort) and this
// package always relaxes them in that order.
package shortestpath

import (
	"container/heap"
	"errors"
	"math"

	"github.com/routeflow/equilibrium/graph"
)

// Sentinel errors for Tree construction.
var (
	// ErrUnknownOrigin indicates the origin node id is not present in g.
	ErrUnknownOrigin = errors.New("shortestpath: origin not found in graph")

	// ErrNegativeCost indicates a negative entry was found in g.Cost();
	// label-setting Dijkstra is undefined over negative edge weights.
	ErrNegativeCost = errors.New("shortestpath: negative edge cost encountered")
)

// Tree is the result of a single-origin shortest-path computation: a
// predecessor array and a distance array, both indexed by dense node
// index, plus the link used to reach each node (needed by aon to walk
// the tree edge-wise rather than node-wise).
type Tree struct {
	Origin int32
	// Pred[n] is the dense node index of the predecessor of n on the
	// shortest path from Origin, or -1 if n is unreached or is Origin.
	Pred []int32
	// PredLink[n] is the link index used to relax into n, or -1.
	PredLink []int32
	// Dist[n] is the shortest distance from Origin to n, or +Inf if
	// unreached.
	Dist []float64
}

// From computes the shortest-path tree rooted at the dense node index
// origin, under g's current cost vector. When g.BlockedCentroidFlows()
// is true, any link whose tail is a centroid other than origin is
// treated as non-relaxable (centroids are terminal: they may only be
// entered as a destination, left as an origin).
//
// From returns ErrNegativeCost if a negative entry of g.Cost() is
// discovered while relaxing, rather than panicking, because From runs
// concurrently across origins inside aon.Loader's worker pool and a
// panicking goroutine would take down the whole assignment run instead
// of surfacing an error the driver can report.
//
// Complexity: O((V+E) log V).
func From(g *graph.Graph, origin int32) (*Tree, error) {
	n := g.NumNodes()
	t := &Tree{
		Origin:   origin,
		Pred:     make([]int32, n),
		PredLink: make([]int32, n),
		Dist:     make([]float64, n),
	}
	for i := range t.Dist {
		t.Dist[i] = math.Inf(1)
		t.Pred[i] = -1
		t.PredLink[i] = -1
	}
	t.Dist[origin] = 0

	cost := g.Cost()
	blocked := g.BlockedCentroidFlows()

	pq := make(priorityQueue, 0, n)
	heap.Push(&pq, item{node: origin, dist: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(item)
		u := cur.node
		if cur.dist > t.Dist[u] {
			continue // stale heap entry
		}
		if blocked && u != origin && g.IsCentroid(u) {
			// Centroids other than the origin are terminal: they may be
			// reached (as a destination) but never relaxed onward.
			continue
		}

		start, end := g.From(u)
		for pos := start; pos < end; pos++ {
			l := g.LinkAt(pos)
			w := cost[l]
			if w < 0 {
				return nil, ErrNegativeCost
			}
			v := g.BNode(int(l))
			nd := t.Dist[u] + w
			if nd < t.Dist[v] {
				t.Dist[v] = nd
				t.Pred[v] = u
				t.PredLink[v] = l
				heap.Push(&pq, item{node: v, dist: nd})
			}
		}
	}

	return t, nil
}

// ValidateCost reports ErrNegativeCost if any entry of g.Cost() is
// negative, satisfying graph.Graph's documented invariant cost[l] >= 0
// before a batch of From calls relies on it.
func ValidateCost(g *graph.Graph) error {
	for _, c := range g.Cost() {
		if c < 0 {
			return ErrNegativeCost
		}
	}
	return nil
}

// PathTo reconstructs the sequence of link indices from t.Origin to
// dest, in traversal order. It returns (nil, false) if dest is
// unreached.
func (t *Tree) PathTo(dest int32) ([]int32, bool) {
	if math.IsInf(t.Dist[dest], 1) {
		return nil, false
	}
	var links []int32
	for n := dest; n != t.Origin; {
		l := t.PredLink[n]
		if l < 0 {
			return nil, false
		}
		links = append(links, l)
		n = t.Pred[n]
	}
	// reverse into origin->dest order
	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	return links, true
}

type item struct {
	node int32
	dist float64
}

// priorityQueue is a container/heap min-heap over item.dist.
type priorityQueue []item

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(item)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	x := old[n-1]
	*pq = old[:n-1]
	return x
}
