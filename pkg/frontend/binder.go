package frontend

import (
	"fmt"

	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Binder resolves a parsed Statement's names against the catalog,
// producing a BoundStatement the optimizer can plan directly. Binding
// errors are still message-only per spec.md §7's parse/binder category.
type Binder interface {
	Bind(stmt Statement) (BoundStatement, error)
}

// BoundStatement is any statement after name resolution.
type BoundStatement interface {
	boundNode()
}

// BoundCreateNodeTable is a CreateNodeTableStatement with its property
// types resolved to vector.TypeTag.
type BoundCreateNodeTable struct {
	Name       string
	Properties []catalog.PropertySchema
}

func (*BoundCreateNodeTable) boundNode() {}

// BoundCreateRelTable is a CreateRelTableStatement with its endpoint
// tables resolved against the catalog.
type BoundCreateRelTable struct {
	Name       string
	SrcTable   *catalog.NodeTableSchema
	DstTable   *catalog.NodeTableSchema
	Properties []catalog.PropertySchema
}

func (*BoundCreateRelTable) boundNode() {}

// BoundHop is a resolved traversal from the match's source table to a
// destination table over a named relationship table. MinHops/MaxHops are
// 1/1 for a plain single hop; any other bound means the optimizer must
// drive pkg/recursivejoin instead of a single fixed expansion.
type BoundHop struct {
	RelTable *catalog.RelTableSchema
	DstTable *catalog.NodeTableSchema
	MinHops  int
	MaxHops  int
}

// BoundFilter is one resolved `var.prop = literal` equality; TableVar
// names which pattern variable (source or hop destination) it applies to.
type BoundFilter struct {
	TableVar    string
	PropertyIdx int
	Value       vector.Value
}

// BoundReturnItem is one resolved projected column. PropertyIdx is -1 for
// a bare variable reference (the node/rel identity itself). Agg is set
// instead of TableVar/PropertyIdx for an aggregate call.
type BoundReturnItem struct {
	TableVar    string
	PropertyIdx int
	Agg         *BoundAggregate
}

// BoundAggregate is a resolved AggregateCall. PropertyIdx is -1 for
// Star or for a bare variable reference (the node/rel identity).
type BoundAggregate struct {
	Func        string
	Distinct    bool
	Star        bool
	TableVar    string
	PropertyIdx int
}

// BoundMatch is a MatchStatement with every name resolved against the
// catalog.
type BoundMatch struct {
	SrcTable    *catalog.NodeTableSchema
	SrcVar      string
	Hop         *BoundHop
	HopVar      string
	Filters     []BoundFilter
	ReturnItems []BoundReturnItem
}

func (*BoundMatch) boundNode() {}

// CatalogBinder is the concrete Binder backed by a live catalog.Catalog.
type CatalogBinder struct {
	Catalog *catalog.Catalog
}

// NewCatalogBinder creates a Binder over cat.
func NewCatalogBinder(cat *catalog.Catalog) *CatalogBinder {
	return &CatalogBinder{Catalog: cat}
}

func (b *CatalogBinder) Bind(stmt Statement) (BoundStatement, error) {
	switch s := stmt.(type) {
	case *CreateNodeTableStatement:
		return b.bindCreateNodeTable(s)
	case *CreateRelTableStatement:
		return b.bindCreateRelTable(s)
	case *MatchStatement:
		return b.bindMatch(s)
	default:
		return nil, dberrors.Internal("frontend: unknown statement type")
	}
}

func resolveType(name string) (vector.TypeTag, error) {
	switch name {
	case "INT64", "INT", "INTEGER":
		return vector.TypeInt64, nil
	case "DOUBLE", "FLOAT":
		return vector.TypeDouble, nil
	case "STRING":
		return vector.TypeString, nil
	case "BOOL", "BOOLEAN":
		return vector.TypeBool, nil
	default:
		return 0, dberrors.Internal(fmt.Sprintf("frontend: unknown property type %q", name))
	}
}

func bindProperties(defs []PropertyDef) ([]catalog.PropertySchema, error) {
	props := make([]catalog.PropertySchema, 0, len(defs))
	for _, d := range defs {
		tag, err := resolveType(d.Type)
		if err != nil {
			return nil, err
		}
		props = append(props, catalog.PropertySchema{Name: d.Name, Type: tag})
	}
	return props, nil
}

func (b *CatalogBinder) bindCreateNodeTable(s *CreateNodeTableStatement) (*BoundCreateNodeTable, error) {
	props, err := bindProperties(s.Properties)
	if err != nil {
		return nil, err
	}
	return &BoundCreateNodeTable{Name: s.Name, Properties: props}, nil
}

func (b *CatalogBinder) bindCreateRelTable(s *CreateRelTableStatement) (*BoundCreateRelTable, error) {
	src, err := b.Catalog.GetNodeTable(s.From)
	if err != nil {
		return nil, dberrors.Internal(fmt.Sprintf("frontend: unknown source table %q", s.From))
	}
	dst, err := b.Catalog.GetNodeTable(s.To)
	if err != nil {
		return nil, dberrors.Internal(fmt.Sprintf("frontend: unknown destination table %q", s.To))
	}
	props, err := bindProperties(s.Properties)
	if err != nil {
		return nil, err
	}
	return &BoundCreateRelTable{Name: s.Name, SrcTable: src, DstTable: dst, Properties: props}, nil
}

func propertyIndex(sch *catalog.NodeTableSchema, name string) (int, error) {
	for i, p := range sch.Properties {
		if p.Name == name {
			return i, nil
		}
	}
	return 0, dberrors.Internal(fmt.Sprintf("frontend: table %q has no property %q", sch.Name, name))
}

func relPropertyIndex(sch *catalog.RelTableSchema, name string) (int, error) {
	for i, p := range sch.Properties {
		if p.Name == name {
			return i, nil
		}
	}
	return 0, dberrors.Internal(fmt.Sprintf("frontend: relationship table %q has no property %q", sch.Name, name))
}

// resolveNodeTable resolves an explicit label directly; an omitted label
// (the variable-length-path grammar's anonymous `(c)` node pattern)
// resolves only when the catalog holds exactly one node table, since this
// frontend has no broader label-inference story.
func (b *CatalogBinder) resolveNodeTable(label string) (*catalog.NodeTableSchema, error) {
	if label != "" {
		tbl, err := b.Catalog.GetNodeTable(label)
		if err != nil {
			return nil, dberrors.Internal(fmt.Sprintf("frontend: unknown node table %q", label))
		}
		return tbl, nil
	}
	tables := b.Catalog.AllNodeTables()
	if len(tables) == 1 {
		return tables[0], nil
	}
	return nil, dberrors.Internal("frontend: node pattern requires a label when more than one node table exists")
}

// resolveRelTable mirrors resolveNodeTable for an omitted relationship
// label, e.g. the anonymous `-[*1..2]->` hop.
func (b *CatalogBinder) resolveRelTable(label string) (*catalog.RelTableSchema, error) {
	if label != "" {
		tbl, err := b.Catalog.GetRelTable(label)
		if err != nil {
			return nil, dberrors.Internal(fmt.Sprintf("frontend: unknown relationship table %q", label))
		}
		return tbl, nil
	}
	tables := b.Catalog.AllRelTables()
	if len(tables) == 1 {
		return tables[0], nil
	}
	return nil, dberrors.Internal("frontend: relationship pattern requires a label when more than one relationship table exists")
}

func (b *CatalogBinder) bindMatch(s *MatchStatement) (*BoundMatch, error) {
	srcTable, err := b.resolveNodeTable(s.Src.Label)
	if err != nil {
		return nil, err
	}

	bound := &BoundMatch{SrcTable: srcTable, SrcVar: s.Src.Var}

	var dstTable *catalog.NodeTableSchema
	if s.Hop != nil {
		relTable, err := b.resolveRelTable(s.Hop.Label)
		if err != nil {
			return nil, err
		}
		dstTable, err = b.resolveNodeTable(s.Hop.Dst.Label)
		if err != nil {
			return nil, err
		}
		bound.Hop = &BoundHop{RelTable: relTable, DstTable: dstTable, MinHops: s.Hop.MinHops, MaxHops: s.Hop.MaxHops}
		bound.HopVar = s.Hop.Dst.Var
	}

	tableForVar := func(v string) (*catalog.NodeTableSchema, error) {
		switch v {
		case s.Src.Var:
			return srcTable, nil
		case bound.HopVar:
			if dstTable == nil {
				return nil, dberrors.Internal(fmt.Sprintf("frontend: unknown variable %q", v))
			}
			return dstTable, nil
		default:
			return nil, dberrors.Internal(fmt.Sprintf("frontend: unknown variable %q", v))
		}
	}

	if s.Where != nil {
		for _, eq := range s.Where.Conditions {
			tbl, err := tableForVar(eq.Var)
			if err != nil {
				return nil, err
			}
			idx, err := propertyIndex(tbl, eq.Property)
			if err != nil {
				return nil, err
			}
			val, err := literalValue(tbl.Properties[idx].Type, eq.Literal)
			if err != nil {
				return nil, err
			}
			bound.Filters = append(bound.Filters, BoundFilter{TableVar: eq.Var, PropertyIdx: idx, Value: val})
		}
	}

	for _, item := range s.Items {
		if item.Agg != nil {
			bagg, err := bindAggregate(item.Agg, tableForVar)
			if err != nil {
				return nil, err
			}
			bound.ReturnItems = append(bound.ReturnItems, BoundReturnItem{PropertyIdx: -1, Agg: bagg})
			continue
		}
		if _, err := tableForVar(item.Var); err != nil {
			return nil, err
		}
		idx := -1
		if item.Property != "" {
			tbl, _ := tableForVar(item.Var)
			var err error
			idx, err = propertyIndex(tbl, item.Property)
			if err != nil {
				return nil, err
			}
		}
		bound.ReturnItems = append(bound.ReturnItems, BoundReturnItem{TableVar: item.Var, PropertyIdx: idx})
	}

	return bound, nil
}

// bindAggregate resolves an AggregateCall's operand variable (if any)
// against tableForVar, the same per-statement variable resolver bindMatch
// uses for WHERE/RETURN items.
func bindAggregate(a *AggregateCall, tableForVar func(string) (*catalog.NodeTableSchema, error)) (*BoundAggregate, error) {
	bagg := &BoundAggregate{Func: a.Func, Distinct: a.Distinct, Star: a.Star, PropertyIdx: -1}
	if a.Star {
		return bagg, nil
	}
	tbl, err := tableForVar(a.Var)
	if err != nil {
		return nil, err
	}
	bagg.TableVar = a.Var
	if a.Property != "" {
		idx, err := propertyIndex(tbl, a.Property)
		if err != nil {
			return nil, err
		}
		bagg.PropertyIdx = idx
	}
	return bagg, nil
}

func literalValue(tag vector.TypeTag, tok Token) (vector.Value, error) {
	switch tag {
	case vector.TypeInt64:
		var n int64
		if _, err := fmt.Sscanf(tok.Value, "%d", &n); err != nil {
			return vector.Value{}, dberrors.Internal(fmt.Sprintf("frontend: %q is not a valid INT64 literal", tok.Value))
		}
		return vector.Value{Tag: vector.TypeInt64, Int64: n}, nil
	case vector.TypeDouble:
		var f float64
		if _, err := fmt.Sscanf(tok.Value, "%g", &f); err != nil {
			return vector.Value{}, dberrors.Internal(fmt.Sprintf("frontend: %q is not a valid DOUBLE literal", tok.Value))
		}
		return vector.Value{Tag: vector.TypeDouble, Double: f}, nil
	case vector.TypeString:
		return vector.Value{Tag: vector.TypeString, Str: tok.Value}, nil
	case vector.TypeBool:
		return vector.Value{Tag: vector.TypeBool, Bool: tok.Value == "true"}, nil
	default:
		return vector.Value{}, dberrors.Internal("frontend: unsupported literal type")
	}
}
