// Package kuzugo is the engine's embedded top-level API: open a database
// directory, run statements against it, and get back typed results.
// Grounded on the teacher's pkg/database.Database (NewDatabase/
// ExecuteQuery/Close wiring a page store, WAL, transaction registry, and
// catalog together), rebuilt over this engine's page/bufmgr/wal/txn/
// catalog/statistics/table/frontend/optimizer stack.
package kuzugo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/internal/dblog"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/optimizer"
	"github.com/zaddach/kuzu/pkg/statistics"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/txn"
	"github.com/zaddach/kuzu/pkg/wal"
)

const (
	dataFileName       = "data.kz"
	walFileName        = "wal.log"
	catalogFileName    = "catalog.db"
	statisticsFileName = "statistics.db"

	// dataFileID tags every WAL PAGE_UPDATE record: a Connection opens
	// exactly one data file, so a constant stands in for a real per-file
	// identifier.
	dataFileID = 0
)

// Config controls how Connect opens a database directory.
type Config struct {
	BufferPoolPages int
}

// Option adjusts a Config away from its defaults.
type Option func(*Config)

// WithBufferPoolPages overrides the buffer pool's page capacity.
func WithBufferPoolPages(n int) Option {
	return func(c *Config) { c.BufferPoolPages = n }
}

func defaultConfig() Config {
	return Config{BufferPoolPages: 4096}
}

// Connection is one open database directory: its storage files, the
// single-writer/many-reader transaction manager, the schema and
// statistics registries, and the frontend/optimizer used to run
// statements against them.
type Connection struct {
	mu sync.Mutex

	dir string
	fh  *page.FileHandle
	bm  *bufmgr.Manager
	log *wal.WAL

	txnMgr  *txn.Manager
	catalog *catalog.Catalog
	stats   *statistics.Statistics
	tables  *tableRegistry

	binder   *frontend.CatalogBinder
	planner  *optimizer.GreedyPlanner
	executor *optimizer.Executor
}

// Connect opens (creating if necessary) a database rooted at dir.
func Connect(dir string, opts ...Option) (*Connection, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dberrors.Wrap(err, "IO_ERROR", "Connect", "kuzugo")
	}

	fh, err := page.Open(filepath.Join(dir, dataFileName), page.CategoryData)
	if err != nil {
		return nil, err
	}
	log, err := wal.Open(filepath.Join(dir, walFileName))
	if err != nil {
		fh.Close()
		return nil, err
	}
	bm := bufmgr.New(cfg.BufferPoolPages)

	if err := replayWAL(fh, filepath.Join(dir, walFileName)); err != nil {
		fh.Close()
		log.Close()
		return nil, fmt.Errorf("kuzugo: replay WAL: %w", err)
	}

	cat := catalog.New()
	if data, rerr := os.ReadFile(filepath.Join(dir, catalogFileName)); rerr == nil {
		if err := cat.Restore(data); err != nil {
			fh.Close()
			log.Close()
			return nil, err
		}
	} else if !os.IsNotExist(rerr) {
		fh.Close()
		log.Close()
		return nil, dberrors.Wrap(rerr, "IO_ERROR", "Connect", "kuzugo")
	}

	stats := statistics.New()
	if data, rerr := os.ReadFile(filepath.Join(dir, statisticsFileName)); rerr == nil {
		if err := stats.Restore(data); err != nil {
			fh.Close()
			log.Close()
			return nil, err
		}
	} else if !os.IsNotExist(rerr) {
		fh.Close()
		log.Close()
		return nil, dberrors.Wrap(rerr, "IO_ERROR", "Connect", "kuzugo")
	}

	tables := newTableRegistry(fh, bm)

	txnMgr := txn.New(func(id txn.ID) error {
		_, err := log.AppendAndForce(wal.Record{Kind: wal.KindCommit, TxnID: uint64(id)})
		return err
	})
	txnMgr.Register(cat)
	txnMgr.Register(stats)

	conn := &Connection{
		dir: dir, fh: fh, bm: bm, log: log,
		txnMgr: txnMgr, catalog: cat, stats: stats, tables: tables,
		binder:  frontend.NewCatalogBinder(cat),
		planner: optimizer.NewGreedyPlanner(stats),
	}
	tables.onCreate = func(resources []txn.Resource) {
		for _, r := range resources {
			attachWAL(r, log)
			txnMgr.Register(r)
		}
	}
	if err := tables.restoreFromCatalog(cat); err != nil {
		fh.Close()
		log.Close()
		return nil, fmt.Errorf("kuzugo: reopen tables: %w", err)
	}
	conn.executor = optimizer.NewExecutor(cat, stats, tables)

	dblog.Info("database opened", "dir", dir)
	return conn, nil
}

// persistCatalog rewrites catalog.db/statistics.db from the current
// checkpointed views, called synchronously after every write transaction
// that commits: since these files are small, rewriting them wholesale on
// every commit keeps schema/statistics durable without WAL replay logic of
// their own (see DESIGN.md).
func (c *Connection) persistCatalog() error {
	catBlob, err := c.catalog.Snapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, catalogFileName), catBlob, 0o644); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "persistCatalog", "kuzugo")
	}
	statsBlob, err := c.stats.Snapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(c.dir, statisticsFileName), statsBlob, 0o644); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "persistCatalog", "kuzugo")
	}
	return nil
}

// walLogger is implemented by every diskarray.DiskArray[T], whichever T it
// is instantiated with: PrepareCommit logs a PAGE_UPDATE record per
// physical page it touches once a logger is attached.
type walLogger interface {
	SetWAL(log *wal.WAL, fileID uint32)
}

func attachWAL(r txn.Resource, log *wal.WAL) {
	if wl, ok := r.(walLogger); ok {
		wl.SetWAL(log, dataFileID)
	}
}

// replayWAL applies to fh the PAGE_UPDATE records of every transaction
// whose COMMIT record is durable, redoing whatever writes committed before
// the process last exited without a clean checkpoint. PAGE_UPDATE records
// after the last COMMIT belong to a commit that never finished and are
// dropped. Idempotent: rewriting a page's already-current image is
// harmless.
func replayWAL(fh *page.FileHandle, walPath string) error {
	var pending []wal.Record
	return wal.Replay(walPath, func(rec wal.Record) error {
		switch rec.Kind {
		case wal.KindPageUpdate:
			pending = append(pending, rec)
		case wal.KindCommit:
			for _, p := range pending {
				var data page.Data
				copy(data[:], p.Body)
				if err := fh.WritePage(page.Idx(p.PageIdx), data); err != nil {
					return err
				}
			}
			pending = pending[:0]
		}
		return nil
	})
}

// Query parses, binds, plans, and runs text in its own transaction,
// returning the formatted Result. CREATE statements run under the single
// write transaction; MATCH statements run under a read-only snapshot.
func (c *Connection) Query(text string) (*Result, error) {
	stmt, err := (&frontend.Parser{}).Parse(text)
	if err != nil {
		return nil, err
	}
	bound, err := c.binder.Bind(stmt)
	if err != nil {
		return nil, err
	}
	plan, err := c.planner.Plan(bound)
	if err != nil {
		return nil, err
	}
	return c.run(stmt, plan)
}

func (c *Connection) run(stmt frontend.Statement, plan optimizer.Plan) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if match, ok := plan.(*optimizer.MatchPlan); ok {
		t := c.txnMgr.BeginReadOnly()
		defer c.txnMgr.Rollback(t)
		res, err := c.executor.Execute(context.Background(), match, diskarray.ReadOnly)
		if err != nil {
			return nil, err
		}
		return formatMatchResult(stmt.(*frontend.MatchStatement), res), nil
	}

	t, err := c.txnMgr.BeginWrite()
	if err != nil {
		return nil, err
	}
	if _, err := c.executor.Execute(context.Background(), plan, diskarray.Write); err != nil {
		c.txnMgr.Rollback(t)
		return nil, err
	}
	if err := c.txnMgr.Commit(t); err != nil {
		return nil, err
	}
	if err := c.persistCatalog(); err != nil {
		return nil, err
	}
	return formatCreateResult(plan), nil
}

// Prepare binds and plans text once, for repeated Execute calls without
// re-parsing.
func (c *Connection) Prepare(text string) (*Statement, error) {
	stmt, err := (&frontend.Parser{}).Parse(text)
	if err != nil {
		return nil, err
	}
	bound, err := c.binder.Bind(stmt)
	if err != nil {
		return nil, err
	}
	plan, err := c.planner.Plan(bound)
	if err != nil {
		return nil, err
	}
	return &Statement{conn: c, stmt: stmt, plan: plan}, nil
}

// Statement is a bound, planned query ready to run repeatedly. The
// grammar has no query parameters, so Execute's params is accepted for
// API symmetry with the teacher's prepared-statement shape but must be
// empty.
type Statement struct {
	conn *Connection
	stmt frontend.Statement
	plan optimizer.Plan
}

// Execute runs the prepared statement. params must be empty.
func (s *Statement) Execute(params map[string]any) (*Result, error) {
	if len(params) != 0 {
		return nil, dberrors.Internal("kuzugo: this grammar has no query parameters")
	}
	return s.conn.run(s.stmt, s.plan)
}

// Close flushes every dirty page and closes the data and WAL files.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.bm.FlushAll(); err != nil {
		return fmt.Errorf("kuzugo: flush pages: %w", err)
	}
	if err := c.log.Close(); err != nil {
		return fmt.Errorf("kuzugo: close WAL: %w", err)
	}
	return c.fh.Close()
}
