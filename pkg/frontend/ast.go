package frontend

// Statement is any parsed statement.
type Statement interface {
	statementNode()
}

// PropertyDef names one property and its declared type keyword (INT64,
// DOUBLE, STRING, BOOL), resolved against vector.TypeTag by the Binder.
type PropertyDef struct {
	Name string
	Type string
}

// CreateNodeTableStatement is `CREATE NODE TABLE <name> (<prop> <type>, ...)`.
type CreateNodeTableStatement struct {
	Name       string
	Properties []PropertyDef
}

func (*CreateNodeTableStatement) statementNode() {}

// CreateRelTableStatement is
// `CREATE REL TABLE <name> FROM <src> TO <dst> (<prop> <type>, ...)`.
type CreateRelTableStatement struct {
	Name       string
	From       string
	To         string
	Properties []PropertyDef
}

func (*CreateRelTableStatement) statementNode() {}

// NodePattern is one `(var:Label)` pattern element.
type NodePattern struct {
	Var   string
	Label string
}

// RelPattern is one `-[var:Label]->` hop, with the node pattern it lands
// on. MinHops/MaxHops default to 1/1 for a plain single hop; a
// `*lower..upper` suffix (`-[r:KNOWS*1..2]->`) overrides them for
// variable-length traversal.
type RelPattern struct {
	Var     string
	Label   string
	Dst     NodePattern
	MinHops int
	MaxHops int
}

// WhereClause is a conjunction of `var.prop = literal` equalities, the
// only predicate shape this frontend's grammar supports.
type WhereClause struct {
	Conditions []Equality
}

// Equality is one `var.prop = literal` leaf.
type Equality struct {
	Var      string
	Property string
	Literal  Token
}

// ReturnItem is one `var.prop` (or bare `var`, Property == "") projected
// column, or an aggregate call (Agg != nil, every other field unused).
type ReturnItem struct {
	Var      string
	Property string
	Agg      *AggregateCall
}

// AggregateCall is `COUNT(*)`, `COUNT(x)`, or `COUNT(DISTINCT x[.prop])`.
// This grammar has no GROUP BY, so a query RETURNing an AggregateCall
// must RETURN nothing else.
type AggregateCall struct {
	Func     string // "COUNT"
	Distinct bool
	Star     bool
	Var      string
	Property string
}

// MatchStatement is `MATCH <pattern> [WHERE ...] RETURN <items>`.
type MatchStatement struct {
	Src   NodePattern
	Hop   *RelPattern // nil for a single-node pattern with no traversal
	Where *WhereClause
	Items []ReturnItem
}

func (*MatchStatement) statementNode() {}
