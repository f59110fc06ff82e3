// Package catalog is the schema registry for node and relationship
// tables: names, property lists, and the source/destination node tables
// a relationship table connects. Grounded on the teacher's
// pkg/catalog.SystemCatalog (CATALOG_TABLES/CATALOG_COLUMNS registry,
// RegisterTable/GetTableMetadataByName/GetAllTables naming), rebuilt
// against this engine's txn.Resource model instead of heap files — the
// teacher's version is tuple/heap-file specific end to end (every lookup
// scans a CATALOG_TABLES heap file through an MVCC tuple iterator), which
// has no equivalent in a disk-array-backed storage stack, so the registry
// here is in-memory with staged writer-transaction edits instead.
package catalog

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/vector"
)

// PropertySchema describes one property column of a node or relationship
// table.
type PropertySchema struct {
	Name string
	Type vector.TypeTag
}

// NodeTableSchema is the registered shape of one node table.
type NodeTableSchema struct {
	ID         uint32
	Name       string
	Properties []PropertySchema
}

// RelTableSchema is the registered shape of one relationship table,
// naming the node tables it connects.
type RelTableSchema struct {
	ID           uint32
	Name         string
	SrcNodeTable uint32
	DstNodeTable uint32
	Properties   []PropertySchema
}

// Catalog is the schema registry, append-only per spec.md's non-goal
// excluding online schema evolution beyond table/property creation: once
// created, a table's ID and name never change, and existing properties
// are never removed, only appended to (AddProperty).
//
// Like pkg/diskarray, writes are staged against a separate "for write
// transaction" view and only become visible to readers at checkpoint,
// mirroring the original's tablesStatisticsContentForWriteTrx /
// tablesStatisticsContentForReadOnlyTrx split.
type Catalog struct {
	mu sync.RWMutex

	nodeTables map[uint32]*NodeTableSchema
	relTables  map[uint32]*RelTableSchema
	nextID     uint32

	// layout holds one opaque, caller-defined blob per table ID alongside
	// its schema: the physical storage package stores its column header
	// page indices here (via SetLayout) so catalog.db's snapshot carries
	// enough to reopen a table's columns without the catalog package
	// needing to know anything about pages or disk arrays.
	layout map[uint32][]byte

	staged       bool
	stagedNode   map[uint32]*NodeTableSchema
	stagedRel    map[uint32]*RelTableSchema
	stagedLayout map[uint32][]byte
	stagedNextID uint32
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		nodeTables: make(map[uint32]*NodeTableSchema),
		relTables:  make(map[uint32]*RelTableSchema),
		layout:     make(map[uint32][]byte),
		nextID:     1,
	}
}

func (c *Catalog) ensureStaged() {
	if c.staged {
		return
	}
	c.stagedNode = make(map[uint32]*NodeTableSchema, len(c.nodeTables))
	for k, v := range c.nodeTables {
		c.stagedNode[k] = v
	}
	c.stagedRel = make(map[uint32]*RelTableSchema, len(c.relTables))
	for k, v := range c.relTables {
		c.stagedRel[k] = v
	}
	c.stagedLayout = make(map[uint32][]byte, len(c.layout))
	for k, v := range c.layout {
		c.stagedLayout[k] = v
	}
	c.stagedNextID = c.nextID
	c.staged = true
}

// SetLayout attaches blob as tableID's physical-layout record, staged
// within the current write transaction like every other catalog edit.
// Called by the table registry immediately after creating a table's
// physical storage, before the transaction that created it commits.
func (c *Catalog) SetLayout(tableID uint32, blob []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureStaged()
	c.stagedLayout[tableID] = blob
}

// Layout returns tableID's physical-layout blob from the checkpointed
// view, if any.
func (c *Catalog) Layout(tableID uint32) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.layout[tableID]
	return b, ok
}

// CreateNodeTable registers a new node table within the current write
// transaction's staged view.
func (c *Catalog) CreateNodeTable(name string, properties []PropertySchema) (*NodeTableSchema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findNodeTableLocked(name) != nil {
		return nil, dberrors.Internal("catalog: node table " + name + " already exists")
	}

	c.ensureStaged()
	sch := &NodeTableSchema{ID: c.stagedNextID, Name: name, Properties: append([]PropertySchema(nil), properties...)}
	c.stagedNode[sch.ID] = sch
	c.stagedNextID++
	return sch, nil
}

// CreateRelTable registers a new relationship table connecting src and
// dst node tables within the current write transaction's staged view.
func (c *Catalog) CreateRelTable(name string, src, dst uint32, properties []PropertySchema) (*RelTableSchema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findRelTableLocked(name) != nil {
		return nil, dberrors.Internal("catalog: rel table " + name + " already exists")
	}

	c.ensureStaged()
	sch := &RelTableSchema{
		ID: c.stagedNextID, Name: name, SrcNodeTable: src, DstNodeTable: dst,
		Properties: append([]PropertySchema(nil), properties...),
	}
	c.stagedRel[sch.ID] = sch
	c.stagedNextID++
	return sch, nil
}

// AddProperty appends a new property to an already-registered node
// table, the one schema-evolution operation spec.md's non-goals permit.
func (c *Catalog) AddProperty(tableID uint32, prop PropertySchema) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureStaged()
	sch, ok := c.stagedNode[tableID]
	if !ok {
		return dberrors.Internal("catalog: unknown node table")
	}
	updated := *sch
	updated.Properties = append(append([]PropertySchema(nil), sch.Properties...), prop)
	c.stagedNode[tableID] = &updated
	return nil
}

func (c *Catalog) findNodeTableLocked(name string) *NodeTableSchema {
	view := c.nodeTables
	if c.staged {
		view = c.stagedNode
	}
	for _, t := range view {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

func (c *Catalog) findRelTableLocked(name string) *RelTableSchema {
	view := c.relTables
	if c.staged {
		view = c.stagedRel
	}
	for _, t := range view {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// GetNodeTable looks up a node table by name, case-insensitively,
// against the checkpointed (read-only) view.
func (c *Catalog) GetNodeTable(name string) (*NodeTableSchema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.nodeTables {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, dberrors.Internal("catalog: node table " + name + " not found")
}

// GetRelTable looks up a relationship table by name, case-insensitively.
func (c *Catalog) GetRelTable(name string) (*RelTableSchema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.relTables {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, dberrors.Internal("catalog: rel table " + name + " not found")
}

// AllNodeTables returns every registered node table.
func (c *Catalog) AllNodeTables() []*NodeTableSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*NodeTableSchema, 0, len(c.nodeTables))
	for _, t := range c.nodeTables {
		out = append(out, t)
	}
	return out
}

// AllRelTables returns every registered relationship table.
func (c *Catalog) AllRelTables() []*RelTableSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*RelTableSchema, 0, len(c.relTables))
	for _, t := range c.relTables {
		out = append(out, t)
	}
	return out
}

// PrepareCommit is a no-op: schema edits are plain in-memory maps, with
// nothing external to flush before the WAL commit record is forced.
func (c *Catalog) PrepareCommit() error { return nil }

// CheckpointInMemoryIfNecessary publishes the staged write-transaction
// view as the new read-only view, making newly created tables visible.
func (c *Catalog) CheckpointInMemoryIfNecessary() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.staged {
		return nil
	}
	c.nodeTables = c.stagedNode
	c.relTables = c.stagedRel
	c.layout = c.stagedLayout
	c.nextID = c.stagedNextID
	c.staged = false
	c.stagedNode, c.stagedRel, c.stagedLayout = nil, nil, nil
	return nil
}

// RollbackInMemoryIfNecessary discards the staged view.
func (c *Catalog) RollbackInMemoryIfNecessary() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staged = false
	c.stagedNode, c.stagedRel, c.stagedLayout = nil, nil, nil
	return nil
}

// Dirty reports whether a write transaction has staged, uncheckpointed
// catalog edits. Connection uses this to decide whether a commit needs to
// rewrite catalog.db.
func (c *Catalog) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staged
}

// snapshot is catalog.db's on-disk shape: the full checkpointed view,
// re-marshaled on every commit that touched the catalog.
type snapshot struct {
	NodeTables []*NodeTableSchema `json:"nodeTables"`
	RelTables  []*RelTableSchema  `json:"relTables"`
	Layout     map[uint32][]byte  `json:"layout"`
	NextID     uint32             `json:"nextId"`
}

// Snapshot serializes the checkpointed view to JSON for catalog.db. There is
// no third-party serialization library in the example corpus better suited
// to this narrow, internal, engine-defined format than the standard
// library's encoding/json (see DESIGN.md).
func (c *Catalog) Snapshot() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := snapshot{Layout: c.layout, NextID: c.nextID}
	for _, t := range c.nodeTables {
		snap.NodeTables = append(snap.NodeTables, t)
	}
	for _, t := range c.relTables {
		snap.RelTables = append(snap.RelTables, t)
	}
	return json.Marshal(snap)
}

// Restore replaces the catalog's checkpointed view with a previously
// written Snapshot. Callers use this once at Connect, before any
// transaction runs.
func (c *Catalog) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return dberrors.Wrap(err, "CORRUPTION", "Restore", "catalog")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeTables = make(map[uint32]*NodeTableSchema, len(snap.NodeTables))
	for _, t := range snap.NodeTables {
		c.nodeTables[t.ID] = t
	}
	c.relTables = make(map[uint32]*RelTableSchema, len(snap.RelTables))
	for _, t := range snap.RelTables {
		c.relTables[t.ID] = t
	}
	c.layout = snap.Layout
	if c.layout == nil {
		c.layout = make(map[uint32][]byte)
	}
	c.nextID = snap.NextID
	if c.nextID == 0 {
		c.nextID = 1
	}
	return nil
}
