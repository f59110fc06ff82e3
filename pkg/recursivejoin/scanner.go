package recursivejoin

import "github.com/zaddach/kuzu/pkg/vector"

// DstNodeScanner pulls distinct destination nodes reached within
// [lowerBound, upperBound] hops, one at a time, the way the teacher's
// join iterators expose HasNext/Next rather than returning a slice —
// useful when the caller only wants to probe membership (e.g. EXISTS)
// and may stop pulling early.
type DstNodeScanner struct {
	frontiers  []Frontier
	lower      int
	level      int
	idx        int
	seen       map[vector.NodeID]bool
	pending    vector.NodeID
	hasPending bool
}

// NewDstNodeScanner builds a scanner over frontiers restricted to levels
// >= lowerBound (frontiers above upperBound were never built by
// Engine.BuildFrontiers, so no separate upper bound is needed here).
func NewDstNodeScanner(frontiers []Frontier, lowerBound int) *DstNodeScanner {
	return &DstNodeScanner{
		frontiers: frontiers,
		lower:     lowerBound,
		seen:      make(map[vector.NodeID]bool),
	}
}

// HasNext reports whether another distinct destination node remains,
// advancing the internal cursor as needed to find one.
func (s *DstNodeScanner) HasNext() (bool, error) {
	if s.hasPending {
		return true, nil
	}
	for s.level < len(s.frontiers) {
		f := s.frontiers[s.level]
		for s.idx < len(f.Entries) {
			node := f.Entries[s.idx].Node
			s.idx++
			if s.level < s.lower || s.seen[node] {
				continue
			}
			s.seen[node] = true
			s.pending = node
			s.hasPending = true
			return true, nil
		}
		s.level++
		s.idx = 0
	}
	return false, nil
}

// Next returns the next distinct destination node; callers must check
// HasNext first.
func (s *DstNodeScanner) Next() (vector.NodeID, error) {
	if !s.hasPending {
		if ok, err := s.HasNext(); err != nil || !ok {
			return vector.NodeID{}, err
		}
	}
	s.hasPending = false
	return s.pending, nil
}

// Rewind resets the scanner to scan from the beginning again.
func (s *DstNodeScanner) Rewind() {
	s.level, s.idx = 0, 0
	s.hasPending = false
	s.seen = make(map[vector.NodeID]bool)
}

// DstMultiplicity pairs a destination node with the number of distinct
// paths within the scanned bounds that reach it.
type DstMultiplicity struct {
	Node  vector.NodeID
	Count int
}

// DstNodeWithMultiplicityScanner pulls (node, path count) pairs instead
// of deduplicated nodes, for queries that need to know how many distinct
// paths reach each destination (e.g. shortest-path counting).
type DstNodeWithMultiplicityScanner struct {
	results []DstMultiplicity
	idx     int
}

// NewDstNodeWithMultiplicityScanner precomputes per-node path counts
// across frontiers in [lowerBound, upperBound] eagerly, since the count
// for a node isn't known until every level in range has been scanned —
// unlike DstNodeScanner, this can't be computed lazily one call at a
// time without buffering, so the buffering happens once up front instead
// of growing unbounded in HasNext.
func NewDstNodeWithMultiplicityScanner(frontiers []Frontier, lowerBound int) *DstNodeWithMultiplicityScanner {
	counts := make(map[vector.NodeID]int)
	order := make([]vector.NodeID, 0)
	for level, f := range frontiers {
		if level < lowerBound {
			continue
		}
		for _, e := range f.Entries {
			if _, ok := counts[e.Node]; !ok {
				order = append(order, e.Node)
			}
			counts[e.Node]++
		}
	}
	results := make([]DstMultiplicity, len(order))
	for i, n := range order {
		results[i] = DstMultiplicity{Node: n, Count: counts[n]}
	}
	return &DstNodeWithMultiplicityScanner{results: results}
}

// HasNext reports whether another (node, count) pair remains.
func (s *DstNodeWithMultiplicityScanner) HasNext() (bool, error) {
	return s.idx < len(s.results), nil
}

// Next returns the next (node, count) pair.
func (s *DstNodeWithMultiplicityScanner) Next() (DstMultiplicity, error) {
	r := s.results[s.idx]
	s.idx++
	return r, nil
}

// Rewind resets the scanner to its first result.
func (s *DstNodeWithMultiplicityScanner) Rewind() { s.idx = 0 }

// Path is one fully reconstructed traversal from the BFS source to some
// destination: Nodes has one more entry than Rels (the source plus every
// hop's destination).
type Path struct {
	Nodes []vector.NodeID
	Rels  []vector.RelID
}

// PathScanner pulls full paths one at a time via an explicit (level,
// entry index) cursor instead of recursive DFS, so that pausing and
// resuming iteration — required by a pull-based pipeline operator that
// may stop after the first few morsels — never needs to suspend a Go
// call stack; the cursor fully captures progress.
type PathScanner struct {
	frontiers []Frontier
	lower     int
	level     int
	idx       int
}

// NewPathScanner builds a scanner over frontiers restricted to levels
// >= lowerBound.
func NewPathScanner(frontiers []Frontier, lowerBound int) *PathScanner {
	return &PathScanner{frontiers: frontiers, lower: lowerBound}
}

// HasNext reports whether another path remains, advancing the cursor
// past any levels below lowerBound or past the end of the current
// level's entries.
func (s *PathScanner) HasNext() (bool, error) {
	for s.level < len(s.frontiers) {
		if s.level < s.lower {
			s.level++
			s.idx = 0
			continue
		}
		if s.idx < len(s.frontiers[s.level].Entries) {
			return true, nil
		}
		s.level++
		s.idx = 0
	}
	return false, nil
}

// Next reconstructs and returns the path ending at the current cursor
// position, then advances the cursor.
func (s *PathScanner) Next() (Path, error) {
	if ok, err := s.HasNext(); err != nil || !ok {
		return Path{}, err
	}
	level, idx := s.level, s.idx
	s.idx++

	// Walk the back-edge chain from (level, idx) to the source, then
	// reverse it; ParentIdx always refers to an entry in frontiers[l-1].
	var nodes []vector.NodeID
	var rels []vector.RelID
	l, i := level, idx
	for {
		entry := s.frontiers[l].Entries[i]
		nodes = append(nodes, entry.Node)
		if entry.ParentIdx == -1 {
			break
		}
		rels = append(rels, entry.IncomingRel)
		i = entry.ParentIdx
		l--
	}

	for a, b := 0, len(nodes)-1; a < b; a, b = a+1, b-1 {
		nodes[a], nodes[b] = nodes[b], nodes[a]
	}
	for a, b := 0, len(rels)-1; a < b; a, b = a+1, b-1 {
		rels[a], rels[b] = rels[b], rels[a]
	}
	return Path{Nodes: nodes, Rels: rels}, nil
}

// Rewind resets the scanner to its first path.
func (s *PathScanner) Rewind() { s.level, s.idx = 0, 0 }
