// Package statistics tracks per-table row counts and per-relationship,
// per-direction counts, from which the optimizer derives its one hop-fanout
// estimate. Grounded on
// original_source/src/storage/store/rels_statistics.cpp
// (RelStatistics.numRelsPerDirectionBoundTable[FWD/BWD], keyed by the
// bound node table on that side) and the teacher's
// pkg/catalog.StatisticsManager (modification counting, write-transaction
// shadow updates) for the overall "track counts, checkpoint on commit"
// shape — rebuilt here against txn.Resource instead of a heap-file-backed
// CATALOG_STATISTICS table.
package statistics

import (
	"encoding/json"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
)

// Direction names which side of a relationship table a per-bound-table
// count is keyed by: FWD counts are keyed by source node table ID, BWD by
// destination node table ID, matching the original's RelDirection.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// NodeTableStats holds a node table's row count.
type NodeTableStats struct {
	NumRows uint64
}

// RelTableStats holds a relationship table's total row count plus the
// per-direction, per-bound-node-table breakdown original_source tracks
// for selectivity estimation (how many edges touch a given node table in
// each direction).
type RelTableStats struct {
	NumRows          uint64
	PerBoundTableFwd map[uint32]uint64
	PerBoundTableBwd map[uint32]uint64
}

func newRelTableStats() *RelTableStats {
	return &RelTableStats{
		PerBoundTableFwd: make(map[uint32]uint64),
		PerBoundTableBwd: make(map[uint32]uint64),
	}
}

// Statistics is the statistics registry. Like pkg/catalog, updates are
// staged against a write-transaction shadow and only become visible to
// readers at checkpoint.
type Statistics struct {
	mu sync.RWMutex

	nodeStats map[uint32]*NodeTableStats
	relStats  map[uint32]*RelTableStats

	staged          bool
	stagedNodeStats map[uint32]*NodeTableStats
	stagedRelStats  map[uint32]*RelTableStats
}

// New creates an empty statistics registry.
func New() *Statistics {
	return &Statistics{
		nodeStats: make(map[uint32]*NodeTableStats),
		relStats:  make(map[uint32]*RelTableStats),
	}
}

func (s *Statistics) ensureStaged() {
	if s.staged {
		return
	}
	s.stagedNodeStats = make(map[uint32]*NodeTableStats, len(s.nodeStats))
	for k, v := range s.nodeStats {
		c := *v
		s.stagedNodeStats[k] = &c
	}
	s.stagedRelStats = make(map[uint32]*RelTableStats, len(s.relStats))
	for k, v := range s.relStats {
		c := *v
		c.PerBoundTableFwd = copyCounts(v.PerBoundTableFwd)
		c.PerBoundTableBwd = copyCounts(v.PerBoundTableBwd)
		s.stagedRelStats[k] = &c
	}
	s.staged = true
}

func copyCounts(m map[uint32]uint64) map[uint32]uint64 {
	out := make(map[uint32]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RegisterNodeTable initializes zeroed statistics for a newly created
// node table; callers call this in the same write transaction as
// catalog.Catalog.CreateNodeTable.
func (s *Statistics) RegisterNodeTable(tableID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStaged()
	s.stagedNodeStats[tableID] = &NodeTableStats{}
}

// RegisterRelTable initializes zeroed statistics for a newly created
// relationship table.
func (s *Statistics) RegisterRelTable(tableID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStaged()
	s.stagedRelStats[tableID] = newRelTableStats()
}

// IncrementNodeCount adjusts a node table's row count by delta (negative
// for deletes).
func (s *Statistics) IncrementNodeCount(tableID uint32, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStaged()
	st := s.stagedNodeStats[tableID]
	st.NumRows = applyDelta(st.NumRows, delta)
}

// IncrementRelCount adjusts a relationship table's total count and its
// per-direction count for boundTableID (the source table ID for a
// Forward update, the destination table ID for Backward), matching
// original_source's updateNumRelsByValue.
func (s *Statistics) IncrementRelCount(tableID uint32, dir Direction, boundTableID uint32, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureStaged()
	st := s.stagedRelStats[tableID]
	st.NumRows = applyDelta(st.NumRows, delta)
	counts := st.PerBoundTableFwd
	if dir == Backward {
		counts = st.PerBoundTableBwd
	}
	counts[boundTableID] = applyDelta(counts[boundTableID], delta)
}

func applyDelta(v uint64, delta int64) uint64 {
	if delta < 0 && uint64(-delta) > v {
		return 0
	}
	return uint64(int64(v) + delta)
}

// NodeTableStats returns a snapshot of a node table's checkpointed
// statistics.
func (s *Statistics) NodeTableStats(tableID uint32) NodeTableStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.nodeStats[tableID]; ok {
		return *st
	}
	return NodeTableStats{}
}

// RelTableStats returns a snapshot of a relationship table's checkpointed
// statistics.
func (s *Statistics) RelTableStats(tableID uint32) RelTableStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.relStats[tableID]; ok {
		return RelTableStats{
			NumRows:          st.NumRows,
			PerBoundTableFwd: copyCounts(st.PerBoundTableFwd),
			PerBoundTableBwd: copyCounts(st.PerBoundTableBwd),
		}
	}
	return RelTableStats{}
}

// PrepareCommit is a no-op: statistics live entirely in memory.
func (s *Statistics) PrepareCommit() error { return nil }

// CheckpointInMemoryIfNecessary publishes the staged counts.
func (s *Statistics) CheckpointInMemoryIfNecessary() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.staged {
		return nil
	}
	s.nodeStats = s.stagedNodeStats
	s.relStats = s.stagedRelStats
	s.staged = false
	s.stagedNodeStats, s.stagedRelStats = nil, nil
	return nil
}

// RollbackInMemoryIfNecessary discards the staged counts.
func (s *Statistics) RollbackInMemoryIfNecessary() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = false
	s.stagedNodeStats, s.stagedRelStats = nil, nil
	return nil
}

// Dirty reports whether a write transaction has staged, uncheckpointed
// statistics edits.
func (s *Statistics) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staged
}

// snapshot is statistics.db's on-disk shape.
type snapshot struct {
	NodeStats map[uint32]*NodeTableStats `json:"nodeStats"`
	RelStats  map[uint32]*RelTableStats  `json:"relStats"`
}

// Snapshot serializes the checkpointed counts to JSON for statistics.db.
func (s *Statistics) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(snapshot{NodeStats: s.nodeStats, RelStats: s.relStats})
}

// Restore replaces the checkpointed counts with a previously written
// Snapshot. Callers use this once at Connect, before any transaction runs.
func (s *Statistics) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return dberrors.Wrap(err, "CORRUPTION", "Restore", "statistics")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeStats = snap.NodeStats
	if s.nodeStats == nil {
		s.nodeStats = make(map[uint32]*NodeTableStats)
	}
	s.relStats = snap.RelStats
	if s.relStats == nil {
		s.relStats = make(map[uint32]*RelTableStats)
	}
	for _, st := range s.relStats {
		if st.PerBoundTableFwd == nil {
			st.PerBoundTableFwd = make(map[uint32]uint64)
		}
		if st.PerBoundTableBwd == nil {
			st.PerBoundTableBwd = make(map[uint32]uint64)
		}
	}
	return nil
}
