// Package page defines the low-level, on-disk page abstraction shared by
// every storage engine (currently just heap files): the Page and DbFile
// interfaces, and the page size all files are laid out in.
package page

import (
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/primitives"
	"storelite/pkg/tuple"
)

// PageSize is the size in bytes of every page in every database file.
const PageSize = 4096

// PageID identifies a page uniquely across the whole database: which
// table's file it lives in, and its offset within that file.
type PageID = primitives.PageID

// Page is a page resident in the buffer pool. Pages may be dirty, meaning
// they have been modified by a transaction since they were last written
// to disk.
type Page interface {
	// GetID returns this page's identifier.
	GetID() PageID

	// IsDirty returns the transaction that last dirtied this page, or nil
	// if the page is clean.
	IsDirty() *transaction.TransactionID

	// MarkDirty records that tid modified (or, when dirty is false,
	// released its hold on) this page.
	MarkDirty(dirty bool, tid *transaction.TransactionID)

	// GetPageData serializes this page's contents for writing to disk.
	// The returned slice is always exactly PageSize bytes.
	GetPageData() []byte

	// GetBeforeImage returns a snapshot of this page as it looked before
	// the current transaction's modifications.
	GetBeforeImage() Page

	// SetBeforeImage snapshots the page's current contents as its new
	// before-image, called when the transaction that dirtied it commits.
	SetBeforeImage()
}

// DbFile is a database file backing one table: it stores that table's
// tuples across a sequence of fixed-size pages.
type DbFile interface {
	// ReadPage loads the page identified by pid from disk.
	ReadPage(pid PageID) (Page, error)

	// WritePage persists p to its designated offset in the file.
	WritePage(p Page) error

	// GetID returns the table ID this file backs.
	GetID() primitives.TableID

	// GetTupleDesc returns the schema of tuples stored in this file.
	GetTupleDesc() *tuple.TupleDescription

	// NumPages returns the number of pages currently in the file.
	NumPages() (primitives.PageNumber, error)

	// Close releases the file's underlying OS resources.
	Close() error
}
