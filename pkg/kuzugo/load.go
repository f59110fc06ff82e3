package kuzugo

import (
	"io"

	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/statistics"
	"github.com/zaddach/kuzu/pkg/vector"
)

// CopyCSV bulk-loads r's rows into the named node table under a single
// write transaction, the grammar's only path for populating a table: it
// has no INSERT statement. Returns the number of rows loaded.
func (c *Connection) CopyCSV(tableName string, r io.Reader) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	schema, err := c.catalog.GetNodeTable(tableName)
	if err != nil {
		return 0, err
	}
	nt, err := c.tables.NodeTable(schema.ID)
	if err != nil {
		return 0, err
	}

	rows, err := (frontend.CSVLoader{}).LoadCSV(r, schema.Properties)
	if err != nil {
		return 0, err
	}

	t, err := c.txnMgr.BeginWrite()
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if _, err := nt.AppendRow([]vector.Value(row)); err != nil {
			c.txnMgr.Rollback(t)
			return 0, err
		}
	}
	c.stats.IncrementNodeCount(schema.ID, int64(len(rows)))
	if err := c.txnMgr.Commit(t); err != nil {
		return 0, err
	}
	if err := c.persistCatalog(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CreateEdge appends one edge between two already-inserted nodes. The
// grammar has no statement for creating relationships, so this is the
// direct-storage counterpart to CopyCSV for node rows.
func (c *Connection) CreateEdge(relTableName string, src, dst vector.NodeID, props []vector.Value) (vector.RelID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	schema, err := c.catalog.GetRelTable(relTableName)
	if err != nil {
		return vector.RelID{}, err
	}
	rt, err := c.tables.RelTable(schema.ID)
	if err != nil {
		return vector.RelID{}, err
	}

	t, err := c.txnMgr.BeginWrite()
	if err != nil {
		return vector.RelID{}, err
	}
	id, err := rt.AppendEdge(src, dst, props)
	if err != nil {
		c.txnMgr.Rollback(t)
		return vector.RelID{}, err
	}
	c.stats.IncrementRelCount(schema.ID, statistics.Forward, uint32(src.TableID), 1)
	if err := c.txnMgr.Commit(t); err != nil {
		return vector.RelID{}, err
	}
	if err := c.persistCatalog(); err != nil {
		return vector.RelID{}, err
	}
	return id, nil
}
