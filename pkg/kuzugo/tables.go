package kuzugo

import (
	"encoding/json"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/storage/table"
	"github.com/zaddach/kuzu/pkg/txn"
)

// tableRegistry is the optimizer.TableRegistry backing a live Connection:
// every node/relationship table's physical storage lives in the same
// page.FileHandle, opened once at Connect time.
type tableRegistry struct {
	fh *page.FileHandle
	bm *bufmgr.Manager

	mu       sync.RWMutex
	nodes    map[uint32]*table.NodeTable
	rels     map[uint32]*table.RelTable
	onCreate func([]txn.Resource)
}

func newTableRegistry(fh *page.FileHandle, bm *bufmgr.Manager) *tableRegistry {
	return &tableRegistry{
		fh: fh, bm: bm,
		nodes: make(map[uint32]*table.NodeTable),
		rels:  make(map[uint32]*table.RelTable),
	}
}

func (r *tableRegistry) CreateNodeTable(schema *catalog.NodeTableSchema) (*table.NodeTable, error) {
	nt, err := table.NewNodeTable(r.fh, r.bm, schema)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.nodes[schema.ID] = nt
	r.mu.Unlock()
	r.registerResources(toTxnResources(nt.Resources()))
	return nt, nil
}

func (r *tableRegistry) CreateRelTable(schema *catalog.RelTableSchema) (*table.RelTable, error) {
	rt, err := table.NewRelTable(r.fh, r.bm, schema)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.rels[schema.ID] = rt
	r.mu.Unlock()
	r.registerResources(toTxnResources(rt.Resources()))
	return rt, nil
}

// restoreFromCatalog reconstructs every table cat already knows about
// (from a catalog.db written by an earlier process) by reopening its
// columns at the physical locations recorded in cat's per-table layout
// blobs, called once at Connect before any transaction runs.
func (r *tableRegistry) restoreFromCatalog(cat *catalog.Catalog) error {
	for _, schema := range cat.AllNodeTables() {
		blob, ok := cat.Layout(schema.ID)
		if !ok {
			return dberrors.Internal("kuzugo: node table " + schema.Name + " has no recorded physical layout")
		}
		var layout table.NodeTableLayout
		if err := json.Unmarshal(blob, &layout); err != nil {
			return dberrors.Wrap(err, "CORRUPTION", "restoreFromCatalog", "kuzugo")
		}
		nt, err := table.LoadNodeTable(r.fh, r.bm, schema, layout)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.nodes[schema.ID] = nt
		r.mu.Unlock()
		r.registerResources(toTxnResources(nt.Resources()))
	}
	for _, schema := range cat.AllRelTables() {
		blob, ok := cat.Layout(schema.ID)
		if !ok {
			return dberrors.Internal("kuzugo: rel table " + schema.Name + " has no recorded physical layout")
		}
		var layout table.RelTableLayout
		if err := json.Unmarshal(blob, &layout); err != nil {
			return dberrors.Wrap(err, "CORRUPTION", "restoreFromCatalog", "kuzugo")
		}
		rt, err := table.LoadRelTable(r.fh, r.bm, schema, layout)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.rels[schema.ID] = rt
		r.mu.Unlock()
		r.registerResources(toTxnResources(rt.Resources()))
	}
	return nil
}

// registerResources hands a newly created table's backing diskarrays off
// to the Connection's transaction manager. table.NodeTable/RelTable
// declare their own txnResource interface to avoid importing pkg/txn
// directly; callers use toTxnResources to adapt the slice since Go
// doesn't treat the two named interface types as assignable.
func (r *tableRegistry) registerResources(resources []txn.Resource) {
	if r.onCreate != nil {
		r.onCreate(resources)
	}
}

// toTxnResources converts a slice of table's structurally-identical
// txnResource interface values into []txn.Resource element-by-element,
// since Go does not treat the two named slice types as assignable even
// when their element interfaces share the same method set.
func toTxnResources[T interface {
	PrepareCommit() error
	CheckpointInMemoryIfNecessary() error
	RollbackInMemoryIfNecessary() error
}](in []T) []txn.Resource {
	out := make([]txn.Resource, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func (r *tableRegistry) NodeTable(id uint32) (*table.NodeTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nt, ok := r.nodes[id]
	if !ok {
		return nil, dberrors.Internal("kuzugo: unknown node table")
	}
	return nt, nil
}

func (r *tableRegistry) RelTable(id uint32) (*table.RelTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.rels[id]
	if !ok {
		return nil, dberrors.Internal("kuzugo: unknown rel table")
	}
	return rt, nil
}
