package gds

import (
	"github.com/wippyai/fbnative/status"
	"github.com/wippyai/fbnative/xsqlda"
)

// DatabaseHandle is an attachment. Warnings from calls on it are kept.
type DatabaseHandle struct {
	status.WarningList
	value uint32
}

// Value returns the native handle value, 0 when detached.
func (h *DatabaseHandle) Value() uint32 { return h.value }

// Valid reports whether the handle refers to an attachment.
func (h *DatabaseHandle) Valid() bool { return h.value != 0 }

// TransactionHandle is a started transaction.
type TransactionHandle struct {
	status.WarningList
	value uint32
}

// Value returns the native handle value, 0 when not started.
func (h *TransactionHandle) Value() uint32 { return h.value }

// Valid reports whether the transaction is active.
func (h *TransactionHandle) Valid() bool { return h.value != 0 }

// StatementHandle is an allocated DSQL statement. After Prepare it holds
// the described output columns.
type StatementHandle struct {
	status.WarningList
	value uint32
	out   *xsqlda.Descriptor
	in    *xsqlda.Descriptor
}

// Value returns the native handle value, 0 when freed.
func (h *StatementHandle) Value() uint32 { return h.value }

// Valid reports whether the statement is allocated.
func (h *StatementHandle) Valid() bool { return h.value != 0 }

// Output returns the output columns described by Prepare.
func (h *StatementHandle) Output() *xsqlda.Descriptor { return h.out }

// Input returns the parameters described by DescribeBind.
func (h *StatementHandle) Input() *xsqlda.Descriptor { return h.in }

// BlobHandle is an open blob.
type BlobHandle struct {
	status.WarningList
	value uint32
	id    xsqlda.BlobID
}

// Value returns the native handle value, 0 when closed.
func (h *BlobHandle) Value() uint32 { return h.value }

// ID returns the blob id the handle was opened or created with.
func (h *BlobHandle) ID() xsqlda.BlobID { return h.id }

// Valid reports whether the blob is open.
func (h *BlobHandle) Valid() bool { return h.value != 0 }
