package kuzugo

import (
	"testing"

	"github.com/zaddach/kuzu/pkg/vector"
)

func openConn(t *testing.T) *Connection {
	t.Helper()
	conn, err := Connect(t.TempDir())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCreateNodeTableThenMatchReturnsInsertedRows(t *testing.T) {
	conn := openConn(t)

	if _, err := conn.Query(`CREATE NODE TABLE Person (name STRING, age INT64)`); err != nil {
		t.Fatalf("CREATE NODE TABLE failed: %v", err)
	}

	nt, err := conn.tables.NodeTable(1)
	if err != nil {
		t.Fatalf("NodeTable lookup failed: %v", err)
	}
	// Rows are inserted directly against physical storage: this grammar
	// has no INSERT/COPY statement yet, only CREATE and MATCH.
	txn, err := conn.txnMgr.BeginWrite()
	if err != nil {
		t.Fatalf("BeginWrite failed: %v", err)
	}
	for _, name := range []string{"Alice", "Bob"} {
		row := []vector.Value{
			{Tag: vector.TypeString, Str: name},
			{Tag: vector.TypeInt64, Int64: 30},
		}
		if _, err := nt.AppendRow(row); err != nil {
			t.Fatalf("AppendRow failed: %v", err)
		}
	}
	if err := conn.txnMgr.Commit(txn); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	res, err := conn.Query(`MATCH (p:Person) RETURN p.name`)
	if err != nil {
		t.Fatalf("MATCH failed: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(res.Rows), res.Rows)
	}
	if res.Columns[0] != "p.name" {
		t.Errorf("expected column label %q, got %q", "p.name", res.Columns[0])
	}
}

func TestCreateRelTableRejectsUnknownEndpoint(t *testing.T) {
	conn := openConn(t)
	if _, err := conn.Query(`CREATE NODE TABLE Person (name STRING)`); err != nil {
		t.Fatalf("CREATE NODE TABLE failed: %v", err)
	}
	if _, err := conn.Query(`CREATE REL TABLE Knows FROM Person TO City`); err == nil {
		t.Error("expected an error for an unknown destination table")
	}
}

func TestMatchOnUnknownTableFails(t *testing.T) {
	conn := openConn(t)
	if _, err := conn.Query(`MATCH (p:Ghost) RETURN p.name`); err == nil {
		t.Error("expected an error for an unknown node table")
	}
}
