package recursivejoin

import (
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Engine drives frontier expansion for one variable-length join,
// generalizing the teacher's join_operator.go Initialize/Next/Reset/Close
// shape to graph BFS: instead of a single Next() pulling one joined
// tuple, BuildFrontiers pulls the adjacency lister level by level and
// materializes the whole reachability structure once, which the scanners
// in scanner.go then pull from lazily.
type Engine struct {
	lister AdjacencyLister
}

// NewEngine builds a recursive-join engine backed by lister.
func NewEngine(lister AdjacencyLister) *Engine {
	return &Engine{lister: lister}
}

// BuildFrontiers runs a BFS from src out to upperBound hops (inclusive),
// returning one Frontier per level from 0 (the source itself) onward.
// A node is expanded only at the level where it is first reached: once
// that level finishes it is marked visited and never added to a later
// level's frontier, which both guarantees termination on cyclic graphs and matches
// shortest-path semantics for reachability. Multiplicity — more than one
// path reaching the same node at the same level — is preserved within a
// level, since visited is only updated once the whole level has finished
// expanding.
func (e *Engine) BuildFrontiers(src vector.NodeID, lowerBound, upperBound int, trx diskarray.TrxType) ([]Frontier, error) {
	if lowerBound < 0 || upperBound < lowerBound {
		return nil, dberrors.Internal("recursivejoin: invalid hop bounds")
	}

	frontiers := []Frontier{{
		Level:   0,
		Entries: []FrontierEntry{{Node: src, ParentIdx: -1}},
	}}
	visited := map[vector.NodeID]bool{src: true}

	for level := 1; level <= upperBound; level++ {
		prev := frontiers[level-1]
		var next []FrontierEntry
		newlyVisited := make(map[vector.NodeID]bool)

		for parentIdx, entry := range prev.Entries {
			edges, err := e.lister.Neighbors(entry.Node, trx)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				if visited[edge.Dst] {
					continue
				}
				next = append(next, FrontierEntry{
					Node:        edge.Dst,
					IncomingRel: edge.Rel,
					ParentIdx:   parentIdx,
				})
				newlyVisited[edge.Dst] = true
			}
		}

		if len(next) == 0 {
			break
		}
		frontiers = append(frontiers, Frontier{Level: level, Entries: next})
		for n := range newlyVisited {
			visited[n] = true
		}
	}

	return frontiers, nil
}
