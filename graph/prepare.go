package graph

import "fmt"

// Prepare builds an immutable Graph from a tabular link set.
//
// Stage 1 (discover): assign dense indices to every node referenced by a
// link endpoint, in first-seen order.
// Stage 2 (validate): reject duplicate link ids and centroids absent
// from the node set.
// Stage 3 (allocate): copy link columns into parallel arrays and collect
// named numeric attributes.
// Stage 4 (index): sort link positions by ANode (stable, so ties keep
// their input order — this is the "lower link index wins ties" rule
// shortestpath relies on) and build the forward-star start offsets.
//
// Complexity: O(L + N), where L = len(ls.Links) and N is the node count;
// stage 4 uses a counting sort rather than a comparison sort.
func Prepare(ls LinkSet) (*Graph, error) {
	if len(ls.Links) == 0 {
		return nil, ErrNoLinks
	}

	g := &Graph{
		nodeIndex:  make(map[int64]int32),
		attributes: make(map[string][]float64),
		centroids:  make(map[int32]bool),
	}

	// Stage 1: discover nodes in first-seen order for determinism.
	seen := make(map[int64]struct{}, 2*len(ls.Links))
	for _, l := range ls.Links {
		for _, id := range [2]int64{l.ANode, l.BNode} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			idx := int32(len(g.nodeIDs))
			g.nodeIDs = append(g.nodeIDs, id)
			g.nodeIndex[id] = idx
		}
	}
	g.numNodes = len(g.nodeIDs)

	// Stage 2/3: allocate link columns.
	n := len(ls.Links)
	g.numLinks = n
	g.linkID = make([]int64, n)
	g.aNode = make([]int32, n)
	g.bNode = make([]int32, n)
	g.freeFlowTime = make([]float64, n)
	g.capacity = make([]float64, n)
	g.length = make([]float64, n)

	seenLinkID := make(map[int64]struct{}, n)
	attrNames := map[string]struct{}{}
	for _, l := range ls.Links {
		for name := range l.Attributes {
			attrNames[name] = struct{}{}
		}
	}
	for name := range attrNames {
		g.attributes[name] = make([]float64, n)
	}

	for i, l := range ls.Links {
		if _, dup := seenLinkID[l.LinkID]; dup {
			return nil, fmt.Errorf("graph: link id %d: %w", l.LinkID, ErrDuplicateLinkID)
		}
		seenLinkID[l.LinkID] = struct{}{}

		g.linkID[i] = l.LinkID
		g.aNode[i] = g.nodeIndex[l.ANode]
		g.bNode[i] = g.nodeIndex[l.BNode]
		g.freeFlowTime[i] = l.FreeFlowTime
		g.capacity[i] = l.Capacity
		g.length[i] = l.Length
		for name, arr := range g.attributes {
			arr[i] = l.Attributes[name]
		}
	}

	// Centroids: validate membership and record in input order.
	g.centroidOrder = make([]int32, 0, len(ls.Centroids))
	for _, cid := range ls.Centroids {
		idx, ok := g.nodeIndex[cid]
		if !ok {
			return nil, fmt.Errorf("graph: centroid %d: %w", cid, ErrUnknownCentroid)
		}
		g.centroids[idx] = true
		g.centroidOrder = append(g.centroidOrder, idx)
	}

	// Stage 4: build the forward-star index. We produce a permutation of
	// link positions ordered by ANode, stable on input order, then bucket
	// by node via a counting pass (no comparison sort needed since ANode
	// is already a dense small-range key).
	g.linkOrder = make([]int32, n)
	for i := range g.linkOrder {
		g.linkOrder[i] = int32(i)
	}
	stableSortByANode(g.linkOrder, g.aNode)

	g.starts = make([]int32, g.numNodes+1)
	for _, pos := range g.linkOrder {
		g.starts[g.aNode[pos]+1]++
	}
	for i := 1; i <= g.numNodes; i++ {
		g.starts[i] += g.starts[i-1]
	}

	g.cost = make([]float64, n)

	return g, nil
}

// stableSortByANode performs a stable counting sort of order (a
// permutation of [0,len(order)) link positions) by aNode[order[i]].
// Counting sort keeps the operation O(L + N) instead of O(L log L) and,
// being stable, preserves input order among links sharing a tail node —
// the tie-break shortestpath documents as "favour lower link index".
func stableSortByANode(order []int32, aNode []int32) {
	n := len(order)
	if n == 0 {
		return
	}
	maxNode := int32(0)
	for _, a := range aNode {
		if a > maxNode {
			maxNode = a
		}
	}
	count := make([]int32, maxNode+2)
	for _, pos := range order {
		count[aNode[pos]+1]++
	}
	for i := 1; i < len(count); i++ {
		count[i] += count[i-1]
	}
	out := make([]int32, n)
	for _, pos := range order {
		a := aNode[pos]
		out[count[a]] = pos
		count[a]++
	}
	copy(order, out)
}
