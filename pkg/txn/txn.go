// Package txn implements the engine's transaction manager: one active
// write transaction at a time, any number of concurrent read-only
// transactions, each seeing a snapshot as of when it began.
package txn

import (
	"sync"
	"sync/atomic"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/internal/dblog"
)

// ID identifies a transaction for the lifetime of the process.
type ID uint64

var idCounter uint64

func nextID() ID { return ID(atomic.AddUint64(&idCounter, 1)) }

// Type distinguishes the single writer from the many readers.
type Type int

const (
	TypeReadOnly Type = iota
	TypeWrite
)

// Resource is implemented by every transactional on-disk structure — disk
// arrays, the catalog, per-table statistics — so the Manager can drive
// prepare/checkpoint/rollback uniformly across all of them at commit or
// abort time, without itself knowing what they store.
type Resource interface {
	// PrepareCommit flushes the write transaction's staged changes to
	// disk, ahead of the commit record being forced.
	PrepareCommit() error
	// CheckpointInMemoryIfNecessary makes the flushed changes visible to
	// future transactions.
	CheckpointInMemoryIfNecessary() error
	// RollbackInMemoryIfNecessary discards the write transaction's
	// uncommitted in-memory state.
	RollbackInMemoryIfNecessary() error
}

// Transaction is a single unit of work. A read-only transaction only ever
// calls into Resources with ReadOnly-mode reads; a write transaction may
// also mutate them, and must go through Manager.Commit or Manager.Rollback
// to finalize.
type Transaction struct {
	id       ID
	typ      Type
	final    atomic.Bool
	manager  *Manager
}

// ID returns the transaction's identifier.
func (t *Transaction) ID() ID { return t.id }

// Type returns whether this is a write or read-only transaction.
func (t *Transaction) Type() Type { return t.typ }

// IsWrite reports whether this transaction may mutate Resources.
func (t *Transaction) IsWrite() bool { return t.typ == TypeWrite }

func (t *Transaction) checkActive() error {
	if t.final.Load() {
		return dberrors.TransactionFinalized("Transaction")
	}
	return nil
}

// Manager enforces the single-writer/many-reader invariant and drives
// commit/rollback across every registered Resource.
type Manager struct {
	mu                    sync.Mutex
	activeWriteTxnID      ID // 0 means none active
	activeReadOnlyTxnIDs  map[ID]struct{}
	resources             []Resource
	onCommit              func(txnID ID) error // force the WAL commit record
}

// New creates an empty Manager. Register resources with Register before
// beginning any write transaction that touches them. onCommit is called
// with the committing transaction's ID after every Resource's
// PrepareCommit has succeeded, and must force the WAL COMMIT record before
// returning; CheckpointInMemoryIfNecessary only runs once it returns nil.
func New(onCommit func(txnID ID) error) *Manager {
	return &Manager{
		activeReadOnlyTxnIDs: make(map[ID]struct{}),
		onCommit:             onCommit,
	}
}

// Register adds r to the set of resources this Manager drives through
// commit and rollback. Call before any transaction begins.
func (m *Manager) Register(r Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, r)
}

// BeginReadOnly starts a read-only transaction. Any number may be active
// concurrently, including alongside the single write transaction.
func (m *Manager) BeginReadOnly() *Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &Transaction{id: nextID(), typ: TypeReadOnly, manager: m}
	m.activeReadOnlyTxnIDs[t.id] = struct{}{}
	return t
}

// BeginWrite starts the write transaction. Fails with ErrWriteConflict if
// one is already active.
func (m *Manager) BeginWrite() (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeWriteTxnID != 0 {
		return nil, dberrors.WriteConflict("BeginWrite")
	}
	t := &Transaction{id: nextID(), typ: TypeWrite, manager: m}
	m.activeWriteTxnID = t.id
	return t, nil
}

// Commit finalizes a write transaction: every Resource prepares its
// changes for disk, the caller-supplied onCommit hook forces the WAL
// commit record, and only then are the changes checkpointed into memory
// so future transactions can see them. If any step fails, the
// transaction's changes are rolled back in memory and the error returned.
func (m *Manager) Commit(t *Transaction) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if t.typ != TypeWrite {
		return dberrors.Internal("Commit called on a read-only transaction")
	}

	m.mu.Lock()
	resources := append([]Resource(nil), m.resources...)
	m.mu.Unlock()

	for _, r := range resources {
		if err := r.PrepareCommit(); err != nil {
			m.rollbackResources(resources)
			m.finalizeWrite(t)
			return err
		}
	}

	if m.onCommit != nil {
		if err := m.onCommit(t.id); err != nil {
			m.rollbackResources(resources)
			m.finalizeWrite(t)
			return err
		}
	}

	for _, r := range resources {
		if err := r.CheckpointInMemoryIfNecessary(); err != nil {
			dblog.Error("resource checkpoint failed after forced commit record", "txn", t.id, "error", err)
			return dberrors.Internal("checkpoint failed after durable commit: " + err.Error())
		}
	}

	m.finalizeWrite(t)
	dblog.Info("transaction committed", "txn", t.id)
	return nil
}

// Rollback discards a transaction's in-memory changes. For a read-only
// transaction this only releases its snapshot slot.
func (m *Manager) Rollback(t *Transaction) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if t.typ != TypeWrite {
		m.finalizeReadOnly(t)
		return nil
	}

	m.mu.Lock()
	resources := append([]Resource(nil), m.resources...)
	m.mu.Unlock()

	m.rollbackResources(resources)
	m.finalizeWrite(t)
	dblog.Info("transaction rolled back", "txn", t.id)
	return nil
}

func (m *Manager) rollbackResources(resources []Resource) {
	for _, r := range resources {
		if err := r.RollbackInMemoryIfNecessary(); err != nil {
			dblog.Error("resource rollback failed", "error", err)
		}
	}
}

func (m *Manager) finalizeWrite(t *Transaction) {
	t.final.Store(true)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeWriteTxnID == t.id {
		m.activeWriteTxnID = 0
	}
}

func (m *Manager) finalizeReadOnly(t *Transaction) {
	t.final.Store(true)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.activeReadOnlyTxnIDs, t.id)
}

// HasActiveWrite reports whether a write transaction is currently active.
func (m *Manager) HasActiveWrite() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeWriteTxnID != 0
}

// NumActiveReadOnly reports how many read-only transactions currently hold
// a snapshot.
func (m *Manager) NumActiveReadOnly() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeReadOnlyTxnIDs)
}
