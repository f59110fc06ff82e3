package kuzugo

// TableInfo summarizes one registered table for display purposes.
type TableInfo struct {
	Name     string
	Kind     string // "NODE" or "REL"
	RowCount uint64
}

// ListTables returns every node table and then every relationship table
// currently in the catalog, with its live row count. Within each group the
// order is not defined.
func (c *Connection) ListTables() []TableInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes := c.catalog.AllNodeTables()
	rels := c.catalog.AllRelTables()
	infos := make([]TableInfo, 0, len(nodes)+len(rels))
	for _, nt := range nodes {
		infos = append(infos, TableInfo{
			Name:     nt.Name,
			Kind:     "NODE",
			RowCount: c.stats.NodeTableStats(nt.ID).NumRows,
		})
	}
	for _, rt := range rels {
		infos = append(infos, TableInfo{
			Name:     rt.Name,
			Kind:     "REL",
			RowCount: c.stats.RelTableStats(rt.ID).NumRows,
		})
	}
	return infos
}

// Stats summarizes the database's overall size.
type Stats struct {
	NodeTableCount int
	RelTableCount  int
	TotalNodes     uint64
	TotalRels      uint64
}

// Statistics reports a snapshot of the database's overall size.
func (c *Connection) Statistics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Stats
	for _, nt := range c.catalog.AllNodeTables() {
		s.NodeTableCount++
		s.TotalNodes += c.stats.NodeTableStats(nt.ID).NumRows
	}
	for _, rt := range c.catalog.AllRelTables() {
		s.RelTableCount++
		s.TotalRels += c.stats.RelTableStats(rt.ID).NumRows
	}
	return s
}
