package wal

import (
	"io"
	"os"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/internal/dblog"
)

// WAL appends records to a single on-disk log file and tracks how much of
// it is durable. Records are buffered in memory and only forced to disk
// by Force or AppendAndForce.
type WAL struct {
	mu         sync.Mutex
	file       *os.File
	currentLSN LSN
	flushedLSN LSN
	buf        []byte
}

// Open opens (creating if necessary) the WAL file at path, positioning the
// in-memory cursor at its current end.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, dberrors.Wrap(err, "IO_ERROR", "Open", "WAL")
	}
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, dberrors.Wrap(err, "IO_ERROR", "Open", "WAL")
	}
	return &WAL{
		file:       f,
		currentLSN: LSN(end),
		flushedLSN: LSN(end),
	}, nil
}

// Append buffers r for writing and returns the LSN it will occupy. The
// record is not guaranteed durable until Force is called with an LSN >=
// the returned value.
func (w *WAL) Append(r Record) LSN {
	w.mu.Lock()
	defer w.mu.Unlock()

	lsn := w.currentLSN
	enc := Encode(r)
	w.buf = append(w.buf, enc...)
	w.currentLSN += LSN(len(enc))
	return lsn
}

// Force flushes the in-memory buffer to disk and fsyncs, guaranteeing every
// record appended so far is durable. The commit path forces its COMMIT
// record the same way, through AppendAndForce, before the commit returns
// to the caller (force-log-at-commit).
func (w *WAL) Force(lsn LSN) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.forceLocked(lsn)
}

func (w *WAL) forceLocked(lsn LSN) error {
	if lsn < w.flushedLSN {
		return nil
	}
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.file.Write(w.buf); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "Force", "WAL")
	}
	if err := w.file.Sync(); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "Force", "WAL")
	}
	w.flushedLSN = w.currentLSN
	w.buf = w.buf[:0]
	return nil
}

// AppendAndForce is a convenience for records (COMMIT, CHECKPOINT_END)
// that must be durable before the caller proceeds.
func (w *WAL) AppendAndForce(r Record) (LSN, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	lsn := w.currentLSN
	enc := Encode(r)
	w.buf = append(w.buf, enc...)
	w.currentLSN += LSN(len(enc))
	if err := w.forceLocked(w.currentLSN); err != nil {
		return 0, err
	}
	return lsn, nil
}

// Truncate discards the log entirely, called after a successful
// checkpoint makes every prior record unnecessary for recovery.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "Truncate", "WAL")
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "Truncate", "WAL")
	}
	w.currentLSN = 0
	w.flushedLSN = 0
	w.buf = w.buf[:0]
	return nil
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Replay reads every durable record from the start of the log and invokes
// apply for each, in order, stopping cleanly at the first corrupt or
// truncated record (the crash-torn tail) rather than treating it as a
// fatal error. Replay is idempotent: PAGE_UPDATE/CATALOG_UPDATE records
// simply rewrite the same page image, and commit records that do not have
// a subsequent CHECKPOINT_END are processed again with no adverse effect.
func Replay(path string, apply func(Record) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return dberrors.Wrap(err, "IO_ERROR", "Replay", "WAL")
	}

	off := 0
	count := 0
	for off < len(data) {
		rec, n, err := Decode(data[off:])
		if err != nil {
			dblog.Warn("wal replay stopped at torn tail", "offset", off, "error", err)
			break
		}
		if err := apply(rec); err != nil {
			return err
		}
		off += n
		count++
	}
	dblog.Info("wal replay complete", "records", count)
	return nil
}
