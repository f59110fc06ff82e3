package recursivejoin

import (
	"testing"

	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/vector"
)

// memGraph is a tiny in-memory AdjacencyLister fixture: src -> []Edge.
type memGraph map[vector.NodeID][]Edge

func (g memGraph) Neighbors(src vector.NodeID, trx diskarray.TrxType) ([]Edge, error) {
	return g[src], nil
}

func node(offset uint64) vector.NodeID { return vector.NodeID{TableID: 0, Offset: offset} }
func rel(offset uint64) vector.RelID   { return vector.RelID{TableID: 0, Offset: offset} }

// Graph shape: 0 -> 1 -> 2 -> 3, and 0 -> 4 -> 2 (two paths to node 2).
func testGraph() memGraph {
	return memGraph{
		node(0): {{Dst: node(1), Rel: rel(0)}, {Dst: node(4), Rel: rel(10)}},
		node(1): {{Dst: node(2), Rel: rel(1)}},
		node(4): {{Dst: node(2), Rel: rel(11)}},
		node(2): {{Dst: node(3), Rel: rel(2)}},
	}
}

func TestBuildFrontiersReachesEveryLevel(t *testing.T) {
	e := NewEngine(testGraph())
	frontiers, err := e.BuildFrontiers(node(0), 0, 3, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("BuildFrontiers failed: %v", err)
	}
	if len(frontiers) != 4 {
		t.Fatalf("expected 4 levels (0..3), got %d", len(frontiers))
	}
	if frontiers[0].Entries[0].Node != node(0) {
		t.Errorf("level 0 should just be the source")
	}
	if len(frontiers[1].Entries) != 2 {
		t.Errorf("expected 2 nodes at level 1, got %d", len(frontiers[1].Entries))
	}
}

func TestBuildFrontiersStopsExpandingVisitedNodes(t *testing.T) {
	e := NewEngine(testGraph())
	frontiers, err := e.BuildFrontiers(node(0), 0, 3, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("BuildFrontiers failed: %v", err)
	}
	// Node 2 is reached at level 2 via two parents (1 and 4); it must not
	// be re-expanded at any later level even though it has an outgoing
	// edge to node 3.
	for _, entry := range frontiers[2].Entries {
		if entry.Node != node(2) {
			t.Fatalf("unexpected node at level 2: %v", entry.Node)
		}
	}
	if len(frontiers[2].Entries) != 2 {
		t.Fatalf("expected 2 entries reaching node 2 at level 2, got %d", len(frontiers[2].Entries))
	}
}

func TestBuildFrontiersRejectsInvalidBounds(t *testing.T) {
	e := NewEngine(testGraph())
	if _, err := e.BuildFrontiers(node(0), 3, 1, diskarray.ReadOnly); err == nil {
		t.Error("expected an error for upperBound < lowerBound")
	}
}

func TestDstNodeScannerDeduplicates(t *testing.T) {
	e := NewEngine(testGraph())
	frontiers, err := e.BuildFrontiers(node(0), 0, 3, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("BuildFrontiers failed: %v", err)
	}
	scanner := NewDstNodeScanner(frontiers, 1)
	var got []vector.NodeID
	for {
		ok, err := scanner.HasNext()
		if err != nil {
			t.Fatalf("HasNext failed: %v", err)
		}
		if !ok {
			break
		}
		n, err := scanner.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, n)
	}
	// Level 1 holds 1 and 4, level 2 holds node 2 twice (deduplicated to
	// one), level 3 holds 3.
	if len(got) != 4 {
		t.Fatalf("expected 4 nodes (1, 4, 2, 3) at levels 1..3, got %d: %v", len(got), got)
	}
}

func TestDstNodeWithMultiplicityScanner(t *testing.T) {
	e := NewEngine(testGraph())
	frontiers, err := e.BuildFrontiers(node(0), 0, 3, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("BuildFrontiers failed: %v", err)
	}
	scanner := NewDstNodeWithMultiplicityScanner(frontiers, 1)
	counts := map[vector.NodeID]int{}
	for {
		ok, _ := scanner.HasNext()
		if !ok {
			break
		}
		r, _ := scanner.Next()
		counts[r.Node] = r.Count
	}
	if counts[node(2)] != 2 {
		t.Errorf("expected node 2 to have multiplicity 2, got %d", counts[node(2)])
	}
	// Node 3 is reached by two distinct paths: 0-1-2-3 and 0-4-2-3.
	if counts[node(3)] != 2 {
		t.Errorf("expected node 3 to have multiplicity 2, got %d", counts[node(3)])
	}
}

func TestPathScannerReconstructsFullPaths(t *testing.T) {
	e := NewEngine(testGraph())
	frontiers, err := e.BuildFrontiers(node(0), 0, 3, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("BuildFrontiers failed: %v", err)
	}
	scanner := NewPathScanner(frontiers, 3)
	ok, err := scanner.HasNext()
	if err != nil || !ok {
		t.Fatalf("expected a path at level 3, HasNext=%v err=%v", ok, err)
	}
	p, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("expected a 4-node path (0..3 hops), got %d nodes: %v", len(p.Nodes), p.Nodes)
	}
	if p.Nodes[0] != node(0) || p.Nodes[len(p.Nodes)-1] != node(3) {
		t.Errorf("path should start at source and end at node 3, got %v", p.Nodes)
	}
	if len(p.Rels) != 3 {
		t.Errorf("expected 3 relationship hops, got %d", len(p.Rels))
	}

	// Node 3 is reached at level 3 by two paths: 0-1-2-3 and 0-4-2-3.
	ok, err = scanner.HasNext()
	if err != nil || !ok {
		t.Fatalf("expected a second path at level 3, HasNext=%v err=%v", ok, err)
	}
	p2, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(p2.Nodes) != 4 || p2.Nodes[len(p2.Nodes)-1] != node(3) || p2.Nodes[1] == p.Nodes[1] {
		t.Errorf("expected a second 4-node path to node 3 through a different first hop, got %v (first was %v)", p2.Nodes, p.Nodes)
	}

	ok, err = scanner.HasNext()
	if err != nil || ok {
		t.Errorf("expected exactly two paths at level 3, got another: ok=%v err=%v", ok, err)
	}
}

func TestPathScannerRewind(t *testing.T) {
	e := NewEngine(testGraph())
	frontiers, err := e.BuildFrontiers(node(0), 0, 2, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("BuildFrontiers failed: %v", err)
	}
	scanner := NewPathScanner(frontiers, 0)
	var first []Path
	for {
		ok, _ := scanner.HasNext()
		if !ok {
			break
		}
		p, _ := scanner.Next()
		first = append(first, p)
	}
	scanner.Rewind()
	var second []Path
	for {
		ok, _ := scanner.HasNext()
		if !ok {
			break
		}
		p, _ := scanner.Next()
		second = append(second, p)
	}
	if len(first) != len(second) {
		t.Fatalf("rewind changed result count: %d vs %d", len(first), len(second))
	}
}
