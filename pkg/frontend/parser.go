package frontend

import (
	"fmt"
	"strconv"

	"github.com/zaddach/kuzu/dberrors"
)

// Parser turns query text into a Statement, mirroring the teacher's
// pkg/parser.Parser.ParseStatement dispatch-on-leading-keyword shape.
type Parser struct{}

// Parse parses one statement. Parse errors are message-only (spec.md §7's
// parse/binder error category carries no stack or component tagging).
func (p *Parser) Parse(text string) (Statement, error) {
	lexer := NewLexer(text)
	first := lexer.NextToken()

	switch first.Type {
	case CREATE:
		return p.parseCreate(lexer)
	case MATCH:
		return p.parseMatch(lexer)
	case EOF:
		return nil, dberrors.Internal("frontend: empty statement")
	default:
		return nil, dberrors.Internal(fmt.Sprintf("frontend: unexpected token %q at start of statement", first.Value))
	}
}

func (p *Parser) parseCreate(lexer *Lexer) (Statement, error) {
	kind := lexer.NextToken()
	switch kind.Type {
	case NODE:
		return p.parseCreateNodeTable(lexer)
	case REL:
		return p.parseCreateRelTable(lexer)
	default:
		return nil, dberrors.Internal("frontend: expected NODE or REL after CREATE")
	}
}

func expect(lexer *Lexer, tt TokenType, what string) (Token, error) {
	tok := lexer.NextToken()
	if tok.Type != tt {
		return tok, dberrors.Internal(fmt.Sprintf("frontend: expected %s, got %q", what, tok.Value))
	}
	return tok, nil
}

func (p *Parser) parseCreateNodeTable(lexer *Lexer) (*CreateNodeTableStatement, error) {
	if _, err := expect(lexer, TABLE, "TABLE"); err != nil {
		return nil, err
	}
	name, err := expect(lexer, IDENTIFIER, "table name")
	if err != nil {
		return nil, err
	}
	props, err := p.parsePropertyList(lexer)
	if err != nil {
		return nil, err
	}
	return &CreateNodeTableStatement{Name: name.Value, Properties: props}, nil
}

func (p *Parser) parseCreateRelTable(lexer *Lexer) (*CreateRelTableStatement, error) {
	if _, err := expect(lexer, TABLE, "TABLE"); err != nil {
		return nil, err
	}
	name, err := expect(lexer, IDENTIFIER, "table name")
	if err != nil {
		return nil, err
	}
	if _, err := expect(lexer, FROM, "FROM"); err != nil {
		return nil, err
	}
	src, err := expect(lexer, IDENTIFIER, "source table name")
	if err != nil {
		return nil, err
	}
	if _, err := expect(lexer, TO, "TO"); err != nil {
		return nil, err
	}
	dst, err := expect(lexer, IDENTIFIER, "destination table name")
	if err != nil {
		return nil, err
	}
	props, err := p.parsePropertyList(lexer)
	if err != nil {
		return nil, err
	}
	return &CreateRelTableStatement{Name: name.Value, From: src.Value, To: dst.Value, Properties: props}, nil
}

func (p *Parser) parsePropertyList(lexer *Lexer) ([]PropertyDef, error) {
	save := lexer.pos
	tok := lexer.NextToken()
	if tok.Type != LPAREN {
		lexer.pos = save
		return nil, nil
	}

	var props []PropertyDef
	for {
		name, err := expect(lexer, IDENTIFIER, "property name")
		if err != nil {
			return nil, err
		}
		typeTok, err := expect(lexer, IDENTIFIER, "property type")
		if err != nil {
			return nil, err
		}
		props = append(props, PropertyDef{Name: name.Value, Type: typeTok.Value})

		next := lexer.NextToken()
		if next.Type == RPAREN {
			break
		}
		if next.Type != COMMA {
			return nil, dberrors.Internal(fmt.Sprintf("frontend: expected , or ) in property list, got %q", next.Value))
		}
	}
	return props, nil
}

func (p *Parser) parseMatch(lexer *Lexer) (*MatchStatement, error) {
	src, err := p.parseNodePattern(lexer)
	if err != nil {
		return nil, err
	}

	stmt := &MatchStatement{Src: src}

	save := lexer.pos
	next := lexer.NextToken()
	if next.Type == DASH {
		hop, err := p.parseRelPattern(lexer)
		if err != nil {
			return nil, err
		}
		stmt.Hop = hop
	} else {
		lexer.pos = save
	}

	next = lexer.NextToken()
	if next.Type == WHERE {
		where, err := p.parseWhere(lexer)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
		next = lexer.NextToken()
	}

	if next.Type != RETURN {
		return nil, dberrors.Internal("frontend: expected RETURN")
	}
	items, err := p.parseReturnItems(lexer)
	if err != nil {
		return nil, err
	}
	stmt.Items = items
	return stmt, nil
}

func (p *Parser) parseNodePattern(lexer *Lexer) (NodePattern, error) {
	if _, err := expect(lexer, LPAREN, "("); err != nil {
		return NodePattern{}, err
	}
	v, err := expect(lexer, IDENTIFIER, "pattern variable")
	if err != nil {
		return NodePattern{}, err
	}
	pat := NodePattern{Var: v.Value}

	save := lexer.pos
	tok := lexer.NextToken()
	if tok.Type == COLON {
		label, err := expect(lexer, IDENTIFIER, "label")
		if err != nil {
			return NodePattern{}, err
		}
		pat.Label = label.Value
	} else {
		lexer.pos = save
	}
	if _, err := expect(lexer, RPAREN, ")"); err != nil {
		return NodePattern{}, err
	}
	return pat, nil
}

// parseRelPattern parses `-[var:Label]->(dst:Label)`, optionally with a
// `*lower..upper` hop-bound suffix (`-[r:KNOWS*1..2]->(dst)`), with the
// leading DASH already consumed by the caller. Both the relationship
// variable and its label are optional, matching parseNodePattern's own
// treatment of an anonymous, unlabeled pattern element.
func (p *Parser) parseRelPattern(lexer *Lexer) (*RelPattern, error) {
	if _, err := expect(lexer, LBRACKET, "["); err != nil {
		return nil, err
	}
	rel := &RelPattern{MinHops: 1, MaxHops: 1}

	save := lexer.pos
	tok := lexer.NextToken()
	if tok.Type == IDENTIFIER {
		rel.Var = tok.Value
	} else {
		lexer.pos = save
	}

	save = lexer.pos
	tok = lexer.NextToken()
	if tok.Type == COLON {
		label, err := expect(lexer, IDENTIFIER, "relationship label")
		if err != nil {
			return nil, err
		}
		rel.Label = label.Value
	} else {
		lexer.pos = save
	}

	save = lexer.pos
	tok = lexer.NextToken()
	if tok.Type == STAR {
		lower, err := expect(lexer, NUMBER, "lower hop bound")
		if err != nil {
			return nil, err
		}
		if _, err := expect(lexer, DOTDOT, ".."); err != nil {
			return nil, err
		}
		upper, err := expect(lexer, NUMBER, "upper hop bound")
		if err != nil {
			return nil, err
		}
		lo, err := strconv.Atoi(lower.Value)
		if err != nil {
			return nil, dberrors.Internal(fmt.Sprintf("frontend: invalid lower hop bound %q", lower.Value))
		}
		hi, err := strconv.Atoi(upper.Value)
		if err != nil {
			return nil, dberrors.Internal(fmt.Sprintf("frontend: invalid upper hop bound %q", upper.Value))
		}
		rel.MinHops, rel.MaxHops = lo, hi
	} else {
		lexer.pos = save
	}

	if _, err := expect(lexer, RBRACKET, "]"); err != nil {
		return nil, err
	}
	if _, err := expect(lexer, ARROW, "->"); err != nil {
		return nil, err
	}
	dst, err := p.parseNodePattern(lexer)
	if err != nil {
		return nil, err
	}
	rel.Dst = dst
	return rel, nil
}

func (p *Parser) parseWhere(lexer *Lexer) (*WhereClause, error) {
	where := &WhereClause{}
	for {
		eq, err := p.parseEquality(lexer)
		if err != nil {
			return nil, err
		}
		where.Conditions = append(where.Conditions, eq)

		save := lexer.pos
		next := lexer.NextToken()
		if next.Type != AND {
			lexer.pos = save
			break
		}
	}
	return where, nil
}

func (p *Parser) parseEquality(lexer *Lexer) (Equality, error) {
	v, err := expect(lexer, IDENTIFIER, "variable")
	if err != nil {
		return Equality{}, err
	}
	if _, err := expect(lexer, DOT, "."); err != nil {
		return Equality{}, err
	}
	prop, err := expect(lexer, IDENTIFIER, "property name")
	if err != nil {
		return Equality{}, err
	}
	if _, err := expect(lexer, EQ, "="); err != nil {
		return Equality{}, err
	}
	lit := lexer.NextToken()
	if lit.Type != NUMBER && lit.Type != STRING {
		return Equality{}, dberrors.Internal(fmt.Sprintf("frontend: expected literal value, got %q", lit.Value))
	}
	return Equality{Var: v.Value, Property: prop.Value, Literal: lit}, nil
}

func (p *Parser) parseReturnItems(lexer *Lexer) ([]ReturnItem, error) {
	var items []ReturnItem
	for {
		item, err := p.parseReturnItem(lexer)
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		save := lexer.pos
		next := lexer.NextToken()
		if next.Type != COMMA {
			lexer.pos = save
			break
		}
	}
	return items, nil
}

func (p *Parser) parseReturnItem(lexer *Lexer) (ReturnItem, error) {
	save := lexer.pos
	tok := lexer.NextToken()
	if tok.Type == COUNT {
		agg, err := p.parseAggregateCall(lexer, "COUNT")
		if err != nil {
			return ReturnItem{}, err
		}
		return ReturnItem{Agg: agg}, nil
	}
	lexer.pos = save

	v, err := expect(lexer, IDENTIFIER, "return variable")
	if err != nil {
		return ReturnItem{}, err
	}
	item := ReturnItem{Var: v.Value}

	save = lexer.pos
	tok = lexer.NextToken()
	if tok.Type == DOT {
		prop, err := expect(lexer, IDENTIFIER, "property name")
		if err != nil {
			return ReturnItem{}, err
		}
		item.Property = prop.Value
	} else {
		lexer.pos = save
	}
	return item, nil
}

// parseAggregateCall parses `<fn>([DISTINCT] (* | var[.prop]))` with the
// function keyword already consumed by the caller.
func (p *Parser) parseAggregateCall(lexer *Lexer, fn string) (*AggregateCall, error) {
	if _, err := expect(lexer, LPAREN, "("); err != nil {
		return nil, err
	}
	agg := &AggregateCall{Func: fn}

	save := lexer.pos
	tok := lexer.NextToken()
	if tok.Type == DISTINCT {
		agg.Distinct = true
	} else {
		lexer.pos = save
	}

	tok = lexer.NextToken()
	switch tok.Type {
	case STAR:
		agg.Star = true
	case IDENTIFIER:
		agg.Var = tok.Value
		save = lexer.pos
		dtok := lexer.NextToken()
		if dtok.Type == DOT {
			prop, err := expect(lexer, IDENTIFIER, "property name")
			if err != nil {
				return nil, err
			}
			agg.Property = prop.Value
		} else {
			lexer.pos = save
		}
	default:
		return nil, dberrors.Internal(fmt.Sprintf("frontend: expected * or a variable inside aggregate call, got %q", tok.Value))
	}

	if _, err := expect(lexer, RPAREN, ")"); err != nil {
		return nil, err
	}
	return agg, nil
}
