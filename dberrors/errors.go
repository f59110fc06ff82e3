// Package dberrors implements the error taxonomy of the engine: message-only
// parse/binder errors, runtime errors, transaction-manager errors, storage
// errors, and internal (always-fatal) errors.
package dberrors

import (
	"fmt"
	"runtime"
	"strings"
)

// Category classifies an error by its nature and appropriate handling
// strategy, mirroring the taxonomy a client needs to decide whether to
// retry, surface to the user, or mark the database read-only.
type Category int

const (
	// CategoryParse covers parser/binder errors: message-only and
	// recoverable. In auto-commit mode the owning transaction is rolled
	// back; the client sees only the message.
	CategoryParse Category = iota

	// CategoryRuntime covers division-by-zero, out-of-range casts, and
	// list_extract out of range. The query aborts; in manual-transaction
	// mode the transaction remains active but invalid until rolled back.
	CategoryRuntime

	// CategoryTransaction covers WriteConflict, TransactionFinalized,
	// NotActive.
	CategoryTransaction

	// CategoryStorage covers BufferFull, IOError, Corruption. Corruption
	// is fatal: the database is marked read-only until a recovery tool
	// runs.
	CategoryStorage

	// CategoryInternal covers assertion failures. Always fatal.
	CategoryInternal
)

func (c Category) String() string {
	switch c {
	case CategoryParse:
		return "parse"
	case CategoryRuntime:
		return "runtime"
	case CategoryTransaction:
		return "transaction"
	case CategoryStorage:
		return "storage"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// DBError is a structured engine error carrying enough context for both a
// human-facing message and an automated handling decision.
type DBError struct {
	// Code uniquely identifies the error kind, e.g. "WRITE_CONFLICT",
	// "BUFFER_FULL", "CORRUPTION".
	Code string

	Category Category

	// Message is the human-readable description.
	Message string

	// Detail adds context specific to this occurrence.
	Detail string

	// Operation names the engine operation in progress, e.g. "Pin",
	// "CommitTransaction", "PushBack".
	Operation string

	// Component names the subsystem of origin, e.g. "BufferManager",
	// "TransactionManager", "DiskArray".
	Component string

	// Cause is the underlying error, if any.
	Cause error

	// Fatal marks an error that should force the database read-only
	// (Corruption) or abort the process (InternalError).
	Fatal bool

	stack []uintptr
}

// New creates a DBError with a captured stack trace.
func New(category Category, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Fatal:    category == CategoryInternal,
		stack:    captureStack(),
	}
}

// Wrap attaches operation/component context to err. If err is already a
// *DBError missing that context, it is enriched in place; otherwise a new
// CategoryStorage DBError wraps it.
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}
	if dbErr, ok := err.(*DBError); ok {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}
	return &DBError{
		Code:      code,
		Category:  CategoryStorage,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		stack:     captureStack(),
	}
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

func (e *DBError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}
	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}
	return b.String()
}

func (e *DBError) Unwrap() error { return e.Cause }

// Is supports errors.Is by comparing Code, so sentinels defined below match
// wrapped instances carrying the same code.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// FormatStack renders the captured call stack for diagnostics.
func (e *DBError) FormatStack() string {
	if len(e.stack) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(e.stack)
	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}
	return b.String()
}

// Sentinel errors used with errors.Is throughout the engine.
var (
	ErrWriteConflict      = New(CategoryTransaction, "WRITE_CONFLICT", "another write transaction is already active")
	ErrTransactionFinal   = New(CategoryTransaction, "TRANSACTION_FINALIZED", "transaction already committed or rolled back")
	ErrTransactionNotActv = New(CategoryTransaction, "NOT_ACTIVE", "transaction is not active")

	ErrBufferFull = New(CategoryStorage, "BUFFER_FULL", "no unpinned frame available for eviction")
	ErrIO         = New(CategoryStorage, "IO_ERROR", "page I/O failed")
	ErrCorruption = &DBError{Code: "CORRUPTION", Category: CategoryStorage, Message: "on-disk structure is corrupt", Fatal: true}

	ErrOutOfRange    = New(CategoryRuntime, "OUT_OF_RANGE", "value out of range")
	ErrDivByZero     = New(CategoryRuntime, "DIV_BY_ZERO", "division by zero")
	ErrListOutOfBnds = New(CategoryRuntime, "LIST_OUT_OF_BOUNDS", "list_extract index out of range")

	ErrInternal = &DBError{Code: "INTERNAL", Category: CategoryInternal, Message: "internal invariant violated", Fatal: true}
)

// WriteConflict builds a WriteConflict error with operation context.
func WriteConflict(operation string) *DBError {
	e := *ErrWriteConflict
	e.Operation = operation
	e.stack = captureStack()
	return &e
}

// TransactionFinalized builds a TransactionFinalized error with operation context.
func TransactionFinalized(operation string) *DBError {
	e := *ErrTransactionFinal
	e.Operation = operation
	e.stack = captureStack()
	return &e
}

// BufferFull builds a BufferFull error naming the file involved.
func BufferFull(detail string) *DBError {
	e := *ErrBufferFull
	e.Detail = detail
	e.stack = captureStack()
	return &e
}

// Corruption builds a fatal Corruption error with detail about what failed
// its check (e.g. "WAL CRC mismatch at LSN 4096").
func Corruption(detail string) *DBError {
	e := *ErrCorruption
	e.Detail = detail
	e.stack = captureStack()
	return &e
}

// Internal builds a fatal InternalError describing the violated invariant.
func Internal(detail string) *DBError {
	e := *ErrInternal
	e.Detail = detail
	e.stack = captureStack()
	return &e
}
