package optimizer

import (
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/statistics"
)

// Planner turns a bound statement into a Plan the execution core can run.
type Planner interface {
	Plan(bound frontend.BoundStatement) (Plan, error)
}

// GreedyPlanner is the one cost-based decision this engine makes: given a
// BoundMatch's hop, it estimates the hop's average fanout from the source
// table's row count and the relationship table's per-bound-table edge
// count (pkg/statistics), attaching the estimate to the resulting HopPlan
// as EstFanout. Nothing downstream reads EstFanout: the executor and the
// pipeline run the same way whatever its value. There is no join
// reordering to do — a bound pattern names its scan and at most one hop in
// a fixed order — so "greedy" here means "make the one numeric choice
// available and otherwise plan everything as written."
type GreedyPlanner struct {
	Stats *statistics.Statistics
}

// NewGreedyPlanner creates a GreedyPlanner backed by stats.
func NewGreedyPlanner(stats *statistics.Statistics) *GreedyPlanner {
	return &GreedyPlanner{Stats: stats}
}

func (p *GreedyPlanner) Plan(bound frontend.BoundStatement) (Plan, error) {
	switch b := bound.(type) {
	case *frontend.BoundCreateNodeTable:
		return &CreateNodeTablePlan{Bound: b}, nil
	case *frontend.BoundCreateRelTable:
		return &CreateRelTablePlan{Bound: b}, nil
	case *frontend.BoundMatch:
		return p.planMatch(b)
	default:
		return nil, dberrors.Internal("optimizer: unknown bound statement type")
	}
}

func (p *GreedyPlanner) planMatch(b *frontend.BoundMatch) (*MatchPlan, error) {
	scan := ScanPlan{NodeTableID: b.SrcTable.ID}
	plan := &MatchPlan{Scan: scan, SrcVar: b.SrcVar, HopVar: b.HopVar, ReturnItems: b.ReturnItems}

	if b.Hop != nil {
		hop := &HopPlan{
			RelTableID: b.Hop.RelTable.ID,
			Direction:  Forward,
			DstTableID: b.Hop.DstTable.ID,
			EstFanout:  p.estimateFanout(b.Hop.RelTable.ID, b.SrcTable.ID),
			MinHops:    b.Hop.MinHops,
			MaxHops:    b.Hop.MaxHops,
		}
		plan.Hop = hop
	}

	for _, f := range b.Filters {
		if f.TableVar == b.SrcVar {
			plan.Scan.Filters = append(plan.Scan.Filters, f)
		} else {
			plan.Hop.Filters = append(plan.Hop.Filters, f)
		}
	}

	return plan, nil
}

// estimateFanout returns the average number of forward edges per source
// row, 0 if either count is unknown or the source table is empty.
func (p *GreedyPlanner) estimateFanout(relTableID, srcTableID uint32) float64 {
	if p.Stats == nil {
		return 0
	}
	srcRows := p.Stats.NodeTableStats(srcTableID).NumRows
	if srcRows == 0 {
		return 0
	}
	rel := p.Stats.RelTableStats(relTableID)
	return float64(rel.PerBoundTableFwd[srcTableID]) / float64(srcRows)
}
