package kuzugo

import (
	"fmt"

	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/optimizer"
)

// Result is a query's formatted output: either a row set (MATCH) or a
// status message (CREATE), matching the teacher's QueryResult shape.
type Result struct {
	Columns []string
	Rows    [][]string
	Message string
}

func formatMatchResult(stmt *frontend.MatchStatement, raw *optimizer.Result) *Result {
	columns := make([]string, len(stmt.Items))
	for i, item := range stmt.Items {
		if item.Property == "" {
			columns[i] = item.Var
		} else {
			columns[i] = item.Var + "." + item.Property
		}
	}

	rows := make([][]string, len(raw.Rows))
	for i, row := range raw.Rows {
		strRow := make([]string, len(row))
		for j, v := range row {
			strRow[j] = v.String()
		}
		rows[i] = strRow
	}

	return &Result{
		Columns: columns,
		Rows:    rows,
		Message: fmt.Sprintf("%d row(s) returned", len(rows)),
	}
}

func formatCreateResult(plan optimizer.Plan) *Result {
	switch p := plan.(type) {
	case *optimizer.CreateNodeTablePlan:
		return &Result{Message: fmt.Sprintf("node table %q created", p.Bound.Name)}
	case *optimizer.CreateRelTablePlan:
		return &Result{Message: fmt.Sprintf("relationship table %q created", p.Bound.Name)}
	default:
		return &Result{Message: "statement executed"}
	}
}
