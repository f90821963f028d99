// Package primitives holds the small, dependency-free identifier types
// shared across storelite's storage and concurrency packages. Keeping them
// here (rather than on the types that use them) avoids import cycles between
// storage, memory, and concurrency.
package primitives

import (
	"fmt"
	"hash/fnv"
)

// TableID uniquely identifies a table's backing file. It is derived by
// hashing the file's path, so the same path always yields the same ID.
type TableID uint64

// PageNumber is a zero-based page offset within a table's file.
type PageNumber uint32

// SlotID is a zero-based slot index within a page.
type SlotID uint16

// Filepath is the path to a database file on disk.
type Filepath string

// Hash derives a stable TableID from a file path using FNV-1a.
func (f Filepath) Hash() TableID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(f))
	return TableID(h.Sum64())
}

// PageID identifies a page within a table: (table_id, page_no). It is a
// plain comparable struct so it can be used directly as a map key.
type PageID struct {
	TableID    TableID
	PageNumber PageNumber
}

func NewPageID(tableID TableID, pageNumber PageNumber) PageID {
	return PageID{TableID: tableID, PageNumber: pageNumber}
}

func (p PageID) Equals(other PageID) bool {
	return p == other
}

func (p PageID) String() string {
	return fmt.Sprintf("Page(table=%d, no=%d)", p.TableID, p.PageNumber)
}

// HashCode returns a hash suitable for logging or secondary indexing.
// Map lookups keyed by PageID rely on Go's native struct hashing instead.
func (p PageID) HashCode() uint64 {
	h := fnv.New64a()
	var buf [12]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(p.TableID >> (8 * i))
	}
	for i := 0; i < 4; i++ {
		buf[8+i] = byte(p.PageNumber >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
