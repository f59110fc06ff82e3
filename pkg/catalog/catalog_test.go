package catalog

import "testing"

func TestCreateNodeTableNotVisibleUntilCheckpoint(t *testing.T) {
	c := New()
	sch, err := c.CreateNodeTable("Person", []PropertySchema{{Name: "age", Type: 1}})
	if err != nil {
		t.Fatalf("CreateNodeTable failed: %v", err)
	}
	if _, err := c.GetNodeTable("Person"); err == nil {
		t.Error("expected Person to be invisible before checkpoint")
	}
	if err := c.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	got, err := c.GetNodeTable("Person")
	if err != nil {
		t.Fatalf("GetNodeTable failed: %v", err)
	}
	if got.ID != sch.ID {
		t.Errorf("expected ID %d, got %d", sch.ID, got.ID)
	}
}

func TestRollbackDiscardsUncommittedTables(t *testing.T) {
	c := New()
	if _, err := c.CreateNodeTable("Person", nil); err != nil {
		t.Fatalf("CreateNodeTable failed: %v", err)
	}
	if err := c.RollbackInMemoryIfNecessary(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if _, err := c.GetNodeTable("Person"); err == nil {
		t.Error("expected Person to not exist after rollback")
	}
}

func TestCreateRelTableReferencesNodeTables(t *testing.T) {
	c := New()
	person, _ := c.CreateNodeTable("Person", nil)
	c.CheckpointInMemoryIfNecessary()

	rel, err := c.CreateRelTable("Knows", person.ID, person.ID, []PropertySchema{{Name: "since", Type: 1}})
	if err != nil {
		t.Fatalf("CreateRelTable failed: %v", err)
	}
	c.CheckpointInMemoryIfNecessary()

	got, err := c.GetRelTable("Knows")
	if err != nil {
		t.Fatalf("GetRelTable failed: %v", err)
	}
	if got.SrcNodeTable != person.ID || got.DstNodeTable != person.ID {
		t.Errorf("expected rel table to reference node table %d, got src=%d dst=%d", person.ID, got.SrcNodeTable, got.DstNodeTable)
	}
	_ = rel
}

func TestAddPropertyAppendsWithoutRemovingExisting(t *testing.T) {
	c := New()
	sch, _ := c.CreateNodeTable("Person", []PropertySchema{{Name: "age", Type: 1}})
	c.CheckpointInMemoryIfNecessary()

	if err := c.AddProperty(sch.ID, PropertySchema{Name: "name", Type: 3}); err != nil {
		t.Fatalf("AddProperty failed: %v", err)
	}
	c.CheckpointInMemoryIfNecessary()

	got, err := c.GetNodeTable("Person")
	if err != nil {
		t.Fatalf("GetNodeTable failed: %v", err)
	}
	if len(got.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(got.Properties))
	}
}

func TestDuplicateTableNameRejected(t *testing.T) {
	c := New()
	if _, err := c.CreateNodeTable("Person", nil); err != nil {
		t.Fatalf("CreateNodeTable failed: %v", err)
	}
	if _, err := c.CreateNodeTable("Person", nil); err == nil {
		t.Error("expected a duplicate table name to be rejected")
	}
}

func TestAllNodeTablesAndRelTables(t *testing.T) {
	c := New()
	c.CreateNodeTable("Person", nil)
	c.CreateNodeTable("City", nil)
	c.CheckpointInMemoryIfNecessary()

	if len(c.AllNodeTables()) != 2 {
		t.Errorf("expected 2 node tables, got %d", len(c.AllNodeTables()))
	}
	if len(c.AllRelTables()) != 0 {
		t.Errorf("expected 0 rel tables, got %d", len(c.AllRelTables()))
	}
}
