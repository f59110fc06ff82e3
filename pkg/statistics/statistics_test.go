package statistics

import "testing"

func TestNodeCountNotVisibleUntilCheckpoint(t *testing.T) {
	s := New()
	s.RegisterNodeTable(1)
	s.IncrementNodeCount(1, 5)
	if got := s.NodeTableStats(1).NumRows; got != 0 {
		t.Errorf("expected 0 rows before checkpoint, got %d", got)
	}
	if err := s.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	if got := s.NodeTableStats(1).NumRows; got != 5 {
		t.Errorf("expected 5 rows after checkpoint, got %d", got)
	}
}

func TestRollbackDiscardsNodeCountChanges(t *testing.T) {
	s := New()
	s.RegisterNodeTable(1)
	s.CheckpointInMemoryIfNecessary()

	s.IncrementNodeCount(1, 10)
	if err := s.RollbackInMemoryIfNecessary(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if got := s.NodeTableStats(1).NumRows; got != 0 {
		t.Errorf("expected rollback to discard increment, got %d", got)
	}
}

func TestNodeCountNeverGoesNegative(t *testing.T) {
	s := New()
	s.RegisterNodeTable(1)
	s.IncrementNodeCount(1, 3)
	s.IncrementNodeCount(1, -10)
	s.CheckpointInMemoryIfNecessary()
	if got := s.NodeTableStats(1).NumRows; got != 0 {
		t.Errorf("expected count clamped to 0, got %d", got)
	}
}

func TestRelCountTracksPerDirectionBoundTable(t *testing.T) {
	s := New()
	const knows, person, city = uint32(1), uint32(10), uint32(20)
	s.RegisterRelTable(knows)

	// Three edges from Person, two of which land on City on the backward side.
	s.IncrementRelCount(knows, Forward, person, 3)
	s.IncrementRelCount(knows, Backward, city, 2)
	s.IncrementRelCount(knows, Backward, person, 1)
	s.CheckpointInMemoryIfNecessary()

	st := s.RelTableStats(knows)
	if st.NumRows != 6 {
		t.Errorf("expected total 6 rows, got %d", st.NumRows)
	}
	if st.PerBoundTableFwd[person] != 3 {
		t.Errorf("expected 3 forward edges bound to person table, got %d", st.PerBoundTableFwd[person])
	}
	if st.PerBoundTableBwd[city] != 2 {
		t.Errorf("expected 2 backward edges bound to city table, got %d", st.PerBoundTableBwd[city])
	}
	if st.PerBoundTableBwd[person] != 1 {
		t.Errorf("expected 1 backward edge bound to person table, got %d", st.PerBoundTableBwd[person])
	}
}

func TestRelTableStatsSnapshotIsIndependentOfLiveMap(t *testing.T) {
	s := New()
	const knows, person = uint32(1), uint32(10)
	s.RegisterRelTable(knows)
	s.IncrementRelCount(knows, Forward, person, 1)
	s.CheckpointInMemoryIfNecessary()

	snap := s.RelTableStats(knows)
	snap.PerBoundTableFwd[person] = 999

	if got := s.RelTableStats(knows).PerBoundTableFwd[person]; got != 1 {
		t.Errorf("expected snapshot mutation not to leak into live stats, got %d", got)
	}
}

func TestUnregisteredTableReturnsZeroValue(t *testing.T) {
	s := New()
	if got := s.NodeTableStats(999).NumRows; got != 0 {
		t.Errorf("expected 0 for unregistered table, got %d", got)
	}
	st := s.RelTableStats(999)
	if st.NumRows != 0 || len(st.PerBoundTableFwd) != 0 {
		t.Errorf("expected zero-value stats for unregistered rel table, got %+v", st)
	}
}
