// Package recursivejoin implements variable-length relationship traversal
// (`(a)-[*lower..upper]->(b)`) as a level-by-level BFS over adjacency
// lists, the graph analogue of the teacher's pull-based join operators.
package recursivejoin

import (
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Edge is one outgoing adjacency-list entry: the relationship connecting
// the scanned node to Dst, carrying Dst's own relationship ID so paths can
// be reconstructed edge-by-edge.
type Edge struct {
	Dst vector.NodeID
	Rel vector.RelID
}

// AdjacencyLister abstracts the storage this engine walks, so tests can
// supply an in-memory graph without standing up pkg/storage/lists.
type AdjacencyLister interface {
	Neighbors(src vector.NodeID, trx diskarray.TrxType) ([]Edge, error)
}

// FrontierEntry is one node reached at a given BFS level, carrying the
// index of the entry in the previous level's Frontier that reached it
// (-1 for the source's own level-0 entry) so a full path can be
// reconstructed by walking ParentIdx backward without storing it
// redundantly in every entry.
type FrontierEntry struct {
	Node        vector.NodeID
	IncomingRel vector.RelID
	ParentIdx   int
}

// Frontier is one BFS level: every node reachable from the source in
// exactly Level hops, along with the back-edge needed to reconstruct the
// path that reached each one.
type Frontier struct {
	Level   int
	Entries []FrontierEntry
}
