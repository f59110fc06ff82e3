// Package optimizer turns a bound statement into a physical plan the
// execution core can run. Per spec.md §6 this is the one intentionally
// thin black box: a single greedy pass over a BoundMatch's scan, optional
// one-hop traversal, and filters, with one cost-based decision (see
// GreedyPlanner.Plan) driven by pkg/statistics — not a general join-order
// search.
package optimizer

import "github.com/zaddach/kuzu/pkg/frontend"

// Plan is any physical plan the execution core can run.
type Plan interface {
	planNode()
}

// ScanPlan scans every row of a node table, applying Filters bound to its
// own pattern variable.
type ScanPlan struct {
	NodeTableID uint32
	Filters     []frontend.BoundFilter
}

// Direction mirrors table.AdjacencyDirection without importing
// pkg/storage/table, keeping the optimizer decoupled from physical
// storage per spec.md §6's narrow-interface boundary.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// HopPlan traverses a relationship hop from the rows ScanPlan produces,
// landing on DstTableID and applying Filters bound to the hop's
// destination variable. MinHops/MaxHops of 1/1 is a single fixed hop;
// anything wider is a variable-length traversal the executor drives
// through pkg/recursivejoin instead of one direct expansion.
type HopPlan struct {
	RelTableID  uint32
	Direction   Direction
	DstTableID  uint32
	Filters     []frontend.BoundFilter
	EstFanout   float64 // average neighbors per source row, from pkg/statistics
	MinHops     int
	MaxHops     int
}

// MatchPlan is the full physical plan for one MATCH statement. SrcVar and
// HopVar repeat the bound pattern's variable names so the executor can
// tell which half of a joined row a BoundReturnItem's TableVar selects.
type MatchPlan struct {
	Scan        ScanPlan
	Hop         *HopPlan // nil for a single-node pattern with no traversal
	SrcVar      string
	HopVar      string
	ReturnItems []frontend.BoundReturnItem
}

func (*MatchPlan) planNode() {}

// CreateNodeTablePlan executes a bound CREATE NODE TABLE statement.
type CreateNodeTablePlan struct {
	Bound *frontend.BoundCreateNodeTable
}

func (*CreateNodeTablePlan) planNode() {}

// CreateRelTablePlan executes a bound CREATE REL TABLE statement.
type CreateRelTablePlan struct {
	Bound *frontend.BoundCreateRelTable
}

func (*CreateRelTablePlan) planNode() {}
