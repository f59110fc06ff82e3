package frontend

import (
	"strings"
	"testing"

	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/vector"
)

func setupCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()
	person, err := cat.CreateNodeTable("Person", []catalog.PropertySchema{
		{Name: "name", Type: vector.TypeString},
		{Name: "age", Type: vector.TypeInt64},
	})
	if err != nil {
		t.Fatalf("CreateNodeTable failed: %v", err)
	}
	if _, err := cat.CreateRelTable("Knows", person.ID, person.ID, nil); err != nil {
		t.Fatalf("CreateRelTable failed: %v", err)
	}
	if err := cat.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	return cat
}

func TestBindCreateNodeTableResolvesTypes(t *testing.T) {
	cat := catalog.New()
	binder := NewCatalogBinder(cat)
	p := &Parser{}
	stmt, err := p.Parse(`CREATE NODE TABLE City (name STRING, population INT64)`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bound, err := binder.Bind(stmt)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	create := bound.(*BoundCreateNodeTable)
	if create.Properties[0].Type != vector.TypeString || create.Properties[1].Type != vector.TypeInt64 {
		t.Fatalf("unexpected resolved types: %+v", create.Properties)
	}
}

func TestBindCreateRelTableResolvesEndpoints(t *testing.T) {
	cat := setupCatalog(t)
	binder := NewCatalogBinder(cat)
	p := &Parser{}
	stmt, err := p.Parse(`CREATE REL TABLE LivesIn FROM Person TO Person`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bound, err := binder.Bind(stmt)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	create := bound.(*BoundCreateRelTable)
	if create.SrcTable.Name != "Person" || create.DstTable.Name != "Person" {
		t.Fatalf("unexpected bound endpoints: %+v", create)
	}
}

func TestBindCreateRelTableUnknownEndpointFails(t *testing.T) {
	cat := setupCatalog(t)
	binder := NewCatalogBinder(cat)
	p := &Parser{}
	stmt, _ := p.Parse(`CREATE REL TABLE LivesIn FROM Person TO City`)
	if _, err := binder.Bind(stmt); err == nil {
		t.Error("expected an error for an unknown endpoint table")
	}
}

func TestBindMatchResolvesFilterAndReturnItems(t *testing.T) {
	cat := setupCatalog(t)
	binder := NewCatalogBinder(cat)
	p := &Parser{}
	stmt, err := p.Parse(`MATCH (a:Person)-[k:Knows]->(b:Person) WHERE a.age = 30 RETURN a.name, b.name`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	bound, err := binder.Bind(stmt)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	match := bound.(*BoundMatch)
	if match.SrcTable.Name != "Person" {
		t.Errorf("unexpected src table: %+v", match.SrcTable)
	}
	if match.Hop == nil || match.Hop.RelTable.Name != "Knows" || match.Hop.DstTable.Name != "Person" {
		t.Fatalf("unexpected bound hop: %+v", match.Hop)
	}
	if len(match.Filters) != 1 || match.Filters[0].Value.Int64 != 30 {
		t.Fatalf("unexpected bound filters: %+v", match.Filters)
	}
	if len(match.ReturnItems) != 2 {
		t.Fatalf("expected 2 return items, got %+v", match.ReturnItems)
	}
}

func TestBindMatchUnknownTableFails(t *testing.T) {
	cat := setupCatalog(t)
	binder := NewCatalogBinder(cat)
	p := &Parser{}
	stmt, _ := p.Parse(`MATCH (a:City) RETURN a`)
	if _, err := binder.Bind(stmt); err == nil {
		t.Error("expected an error for an unknown node table")
	}
}

func TestBindMatchUnknownPropertyFails(t *testing.T) {
	cat := setupCatalog(t)
	binder := NewCatalogBinder(cat)
	p := &Parser{}
	stmt, _ := p.Parse(`MATCH (a:Person) RETURN a.nickname`)
	if _, err := binder.Bind(stmt); err == nil {
		t.Error("expected an error for an unknown property")
	}
}

func TestCSVLoaderParsesTypedRows(t *testing.T) {
	schema := []catalog.PropertySchema{
		{Name: "name", Type: vector.TypeString},
		{Name: "age", Type: vector.TypeInt64},
	}
	csv := "name,age\nAlice,30\nBob,25\n"
	loader := CSVLoader{}
	rows, err := loader.LoadCSV(strings.NewReader(csv), schema)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].Str != "Alice" || rows[0][1].Int64 != 30 {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1][0].Str != "Bob" || rows[1][1].Int64 != 25 {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
}

func TestCSVLoaderRejectsWrongColumnCount(t *testing.T) {
	schema := []catalog.PropertySchema{{Name: "name", Type: vector.TypeString}}
	loader := CSVLoader{}
	_, err := loader.LoadCSV(strings.NewReader("name\nAlice,extra\n"), schema)
	if err == nil {
		t.Error("expected an error for a mismatched column count")
	}
}
