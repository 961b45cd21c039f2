package graph

import "fmt"

// RawLink is the external tabular input: one row per physical link,
// with a Direction flag selecting how it expands into the directed Link
// entries Prepare requires.
type RawLink struct {
	LinkID       int64
	ANode        int64
	BNode        int64
	Direction    int8 // -1, 0, or 1
	FreeFlowTime float64
	Capacity     float64
	Length       float64
	Modes        string
	Attributes   map[string]float64
}

// ExpandDirections turns a table of physical links into the directed
// Link slice Prepare consumes. Direction == 0 produces two directed
// entries (A→B and B→A, each carrying a distinct synthetic LinkID so
// Prepare's duplicate-id check still applies per direction); Direction
// == 1 keeps A→B; Direction == -1 flips to B→A.
//
// The two directed entries of a bidirectional link get LinkIDs
// 2*LinkID and 2*LinkID+1 so that the mapping is deterministic and
// collision-free as long as input LinkIDs are themselves non-negative
// and distinct, preserving the uniqueness every LinkID must have.
func ExpandDirections(raw []RawLink) ([]Link, error) {
	out := make([]Link, 0, len(raw)+len(raw)/2)
	for _, r := range raw {
		switch r.Direction {
		case 0:
			out = append(out,
				Link{
					LinkID: 2 * r.LinkID, ANode: r.ANode, BNode: r.BNode,
					FreeFlowTime: r.FreeFlowTime, Capacity: r.Capacity, Length: r.Length,
					Modes: r.Modes, Attributes: r.Attributes,
				},
				Link{
					LinkID: 2*r.LinkID + 1, ANode: r.BNode, BNode: r.ANode,
					FreeFlowTime: r.FreeFlowTime, Capacity: r.Capacity, Length: r.Length,
					Modes: r.Modes, Attributes: r.Attributes,
				},
			)
		case 1:
			out = append(out, Link{
				LinkID: 2 * r.LinkID, ANode: r.ANode, BNode: r.BNode,
				FreeFlowTime: r.FreeFlowTime, Capacity: r.Capacity, Length: r.Length,
				Modes: r.Modes, Attributes: r.Attributes,
			})
		case -1:
			out = append(out, Link{
				LinkID: 2 * r.LinkID, ANode: r.BNode, BNode: r.ANode,
				FreeFlowTime: r.FreeFlowTime, Capacity: r.Capacity, Length: r.Length,
				Modes: r.Modes, Attributes: r.Attributes,
			})
		default:
			return nil, fmt.Errorf("graph: link %d: direction %d must be -1, 0, or 1", r.LinkID, r.Direction)
		}
	}
	return out, nil
}
