package frontend

import "testing"

func TestParseCreateNodeTable(t *testing.T) {
	p := &Parser{}
	stmt, err := p.Parse(`CREATE NODE TABLE Person (name STRING, age INT64)`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	create, ok := stmt.(*CreateNodeTableStatement)
	if !ok {
		t.Fatalf("expected *CreateNodeTableStatement, got %T", stmt)
	}
	if create.Name != "Person" {
		t.Errorf("expected table name Person, got %q", create.Name)
	}
	if len(create.Properties) != 2 || create.Properties[0].Name != "name" || create.Properties[1].Type != "INT64" {
		t.Fatalf("unexpected properties: %+v", create.Properties)
	}
}

func TestParseCreateRelTable(t *testing.T) {
	p := &Parser{}
	stmt, err := p.Parse(`CREATE REL TABLE Knows FROM Person TO Person (since INT64)`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	create, ok := stmt.(*CreateRelTableStatement)
	if !ok {
		t.Fatalf("expected *CreateRelTableStatement, got %T", stmt)
	}
	if create.From != "Person" || create.To != "Person" {
		t.Errorf("unexpected endpoints: from=%q to=%q", create.From, create.To)
	}
}

func TestParseMatchWithHopAndWhereAndReturn(t *testing.T) {
	p := &Parser{}
	stmt, err := p.Parse(`MATCH (a:Person)-[k:Knows]->(b:Person) WHERE a.age = 30 RETURN a.name, b.name`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	match, ok := stmt.(*MatchStatement)
	if !ok {
		t.Fatalf("expected *MatchStatement, got %T", stmt)
	}
	if match.Src.Label != "Person" || match.Src.Var != "a" {
		t.Errorf("unexpected src pattern: %+v", match.Src)
	}
	if match.Hop == nil || match.Hop.Label != "Knows" || match.Hop.Dst.Label != "Person" {
		t.Fatalf("unexpected hop: %+v", match.Hop)
	}
	if match.Where == nil || len(match.Where.Conditions) != 1 || match.Where.Conditions[0].Property != "age" {
		t.Fatalf("unexpected where clause: %+v", match.Where)
	}
	if len(match.Items) != 2 || match.Items[0].Var != "a" || match.Items[1].Property != "name" {
		t.Fatalf("unexpected return items: %+v", match.Items)
	}
}

func TestParseMatchWithoutHop(t *testing.T) {
	p := &Parser{}
	stmt, err := p.Parse(`MATCH (a:Person) RETURN a`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	match := stmt.(*MatchStatement)
	if match.Hop != nil {
		t.Errorf("expected no hop, got %+v", match.Hop)
	}
	if len(match.Items) != 1 || match.Items[0].Property != "" {
		t.Errorf("expected a bare variable return, got %+v", match.Items)
	}
}

func TestParseRejectsUnknownLeadingKeyword(t *testing.T) {
	p := &Parser{}
	if _, err := p.Parse(`DELETE something`); err == nil {
		t.Error("expected an error for an unsupported statement")
	}
}

func TestParseEmptyStatementFails(t *testing.T) {
	p := &Parser{}
	if _, err := p.Parse(``); err == nil {
		t.Error("expected an error for an empty statement")
	}
}
