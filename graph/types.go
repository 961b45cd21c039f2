// Package graph provides an immutable, array-based representation of a
// directed road network used for shortest-path loading and traffic
// assignment.
//
// A Graph is built once, from a tabular link set, via Prepare. After
// Prepare succeeds the link and node arrays never change shape; only the
// Cost view is repointed at a different attribute column between
// assignment iterations (SetCostField), and only the Cost values
// themselves are overwritten in place by the driver — a Graph is
// immutable once a run begins except for its cost vector.
//
// Link storage is column-oriented ("struct of arrays"): ANode, BNode,
// FreeFlowTime, Capacity, Length, and each named numeric attribute are
// parallel slices indexed by link index. This mirrors a forward-star /
// CSR adjacency representation rather than a map-of-maps adjacency
// list, because the hot loop here is "iterate every link" and "walk
// outgoing links of one node under Dijkstra", not arbitrary
// insertion/removal.
package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by graph construction and configuration.
// Callers branch with errors.Is; context is attached with fmt.Errorf's
// %w at the call site, never baked into the sentinel string itself.
var (
	// ErrDuplicateLinkID indicates two input links share the same LinkID.
	ErrDuplicateLinkID = errors.New("graph: duplicate link id")

	// ErrUnknownNode indicates a link's ANode or BNode is not a member of
	// the node set implied by the input (every node referenced by a link
	// or listed as a centroid must appear in at least one link).
	ErrUnknownNode = errors.New("graph: unknown node id")

	// ErrUnknownCentroid indicates a centroid node id was not seen among
	// the link endpoints supplied to Prepare.
	ErrUnknownCentroid = errors.New("graph: centroid not present in network")

	// ErrNoLinks indicates Prepare was called with zero links.
	ErrNoLinks = errors.New("graph: no links supplied")

	// ErrUnknownAttribute indicates SetCostField or Attribute referenced an
	// attribute name that no input Link carried in its Attributes.
	ErrUnknownAttribute = errors.New("graph: unknown numeric attribute")

	// ErrNotPrepared indicates an operation that requires a built
	// forward-star index was called before Prepare.
	ErrNotPrepared = errors.New("graph: graph not prepared")

	// ErrNegativeCost indicates the active cost view contains a negative
	// entry; cost[l] >= 0 is a graph invariant.
	ErrNegativeCost = errors.New("graph: negative cost encountered")
)

// Link is one directed entry in the input link table. A bidirectional
// physical link (direction == 0) is expanded by the caller, or by
// ExpandDirections, into two Links before Prepare is called; Prepare itself
// only ever sees directed entries.
type Link struct {
	LinkID       int64
	ANode        int64
	BNode        int64
	FreeFlowTime float64
	Capacity     float64
	Length       float64
	Modes        string
	// Attributes holds arbitrary numeric columns (alpha, beta, power, ...)
	// addressable by name from VDF parameter bindings and SetCostField.
	Attributes map[string]float64
}

// LinkSet is the raw tabular input to Prepare: an ordered slice of
// directed links plus the ordered centroid node list (§6: "the matrix
// row/column index corresponds to this order").
type LinkSet struct {
	Links     []Link
	Centroids []int64
}

// Graph is an immutable, indexed snapshot of a routable network.
// The zero value is not usable; construct with Prepare.
type Graph struct {
	numLinks int
	numNodes int

	// node identifiers in dense index order; nodeIndex inverts it.
	nodeIDs   []int64
	nodeIndex map[int64]int32

	// parallel link arrays, in input order (link index == position in
	// LinkSet.Links); the ANode ordering lives in linkOrder below.
	linkID       []int64
	aNode        []int32 // dense node index
	bNode        []int32 // dense node index
	freeFlowTime []float64
	capacity     []float64
	length       []float64
	attributes   map[string][]float64

	// cost is the mutable view the driver repoints/overwrites each
	// iteration; costField names which attribute it currently aliases.
	cost      []float64
	costField string

	// forward-star index: outgoing links of node n are
	// linkOrder[starts[n]:starts[n+1]].
	starts   []int32
	linkOrder []int32

	centroids        map[int32]bool
	centroidOrder    []int32 // dense node indices, in input centroid order
	blockedCentroids bool
}

// NumLinks returns the number of directed links in the prepared graph.
func (g *Graph) NumLinks() int { return g.numLinks }

// NumNodes returns the number of distinct nodes in the prepared graph.
func (g *Graph) NumNodes() int { return g.numNodes }

// Cost returns the active cost vector, indexed identically to the link
// array. The slice is owned by the Graph; callers that need a snapshot
// must copy it. It is mutated in place by the assignment driver between
// iterations.
func (g *Graph) Cost() []float64 { return g.cost }

// FreeFlowTime returns the free-flow travel time array, indexed
// identically to the link array.
func (g *Graph) FreeFlowTime() []float64 { return g.freeFlowTime }

// Capacity returns the capacity array, indexed identically to the link
// array.
func (g *Graph) Capacity() []float64 { return g.capacity }

// Length returns the link length array, indexed identically to the link
// array.
func (g *Graph) Length() []float64 { return g.length }

// LinkID returns the original LinkID for link index l.
func (g *Graph) LinkID(l int) int64 { return g.linkID[l] }

// ANode returns the dense node index of the tail of link l.
func (g *Graph) ANode(l int) int32 { return g.aNode[l] }

// BNode returns the dense node index of the head of link l.
func (g *Graph) BNode(l int) int32 { return g.bNode[l] }

// NodeID maps a dense node index back to its original identifier.
func (g *Graph) NodeID(n int32) int64 { return g.nodeIDs[n] }

// NodeIndex maps an original node identifier to its dense index, and
// reports whether it exists in the graph.
func (g *Graph) NodeIndex(id int64) (int32, bool) {
	idx, ok := g.nodeIndex[id]
	return idx, ok
}

// Attribute returns the named numeric attribute array, or
// ErrUnknownAttribute if it was never registered.
func (g *Graph) Attribute(name string) ([]float64, error) {
	a, ok := g.attributes[name]
	if !ok {
		return nil, fmt.Errorf("graph: attribute %q: %w", name, ErrUnknownAttribute)
	}
	return a, nil
}

// IsCentroid reports whether the dense node index n is a centroid.
func (g *Graph) IsCentroid(n int32) bool { return g.centroids[n] }

// Centroids returns the dense node indices of all centroids, in the
// order supplied to Prepare (this order is also the O-D matrix's
// row/column order).
func (g *Graph) Centroids() []int32 { return g.centroidOrder }

// BlockedCentroidFlows reports whether centroids are terminal (may only
// be entered as a destination, left as an origin).
func (g *Graph) BlockedCentroidFlows() bool { return g.blockedCentroids }

// SetBlockedCentroidFlows toggles the blocked-centroid-flows policy
// consulted by package shortestpath during edge relaxation.
func (g *Graph) SetBlockedCentroidFlows(blocked bool) { g.blockedCentroids = blocked }

// From returns the range [start, end) into the forward-star link order
// for the outgoing links of dense node index n. Use LinkAt to translate
// a position in that range into a link index.
func (g *Graph) From(n int32) (start, end int32) {
	return g.starts[n], g.starts[n+1]
}

// LinkAt returns the link index stored at forward-star position pos
// (a value taken from the [start, end) range returned by From).
func (g *Graph) LinkAt(pos int32) int32 { return g.linkOrder[pos] }

// SetCostField repoints Cost at a named numeric attribute, copying its
// current values into the cost buffer. It does not retain a live alias:
// subsequent writes to Cost() do not affect the named attribute array
// (and vice-versa), so the driver is free to overwrite Cost() with
// congested travel times every iteration.
func (g *Graph) SetCostField(name string) error {
	vals, err := g.Attribute(name)
	if err != nil {
		return err
	}
	if g.cost == nil {
		g.cost = make([]float64, g.numLinks)
	}
	copy(g.cost, vals)
	g.costField = name
	return nil
}

// CostField returns the name most recently passed to SetCostField, or
// the empty string if SetCostField has never been called.
func (g *Graph) CostField() string { return g.costField }
