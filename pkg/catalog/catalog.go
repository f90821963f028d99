// Package catalog is the in-memory registry mapping table names and IDs to
// their backing files and primary keys. It holds no query-planning or
// persistence logic of its own; those are external collaborators.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"storelite/pkg/dberrors"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/page"
	"storelite/pkg/tuple"
)

// TableInfo is everything the catalog knows about one registered table.
type TableInfo struct {
	File          page.DbFile
	Name          string
	PrimaryKey    string
	TupleDesc     *tuple.TupleDescription
}

// Catalog is the process-wide, thread-safe registry of tables. Table
// definitions live only in memory: reloading them across restarts is an
// external collaborator's job.
type Catalog struct {
	mu        sync.RWMutex
	byName    map[string]*TableInfo
	byID      map[primitives.TableID]*TableInfo
}

func NewCatalog() *Catalog {
	return &Catalog{
		byName: make(map[string]*TableInfo),
		byID:   make(map[primitives.TableID]*TableInfo),
	}
}

// AddTable registers f under name, replacing any existing table with the
// same name or ID.
func (c *Catalog) AddTable(f page.DbFile, name, primaryKey string) error {
	if f == nil {
		return dberrors.New(dberrors.CategoryArgument, "NIL_FILE", "file cannot be nil")
	}
	if name == "" {
		return dberrors.New(dberrors.CategoryArgument, "EMPTY_NAME", "table name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := f.GetID()
	if existing, ok := c.byName[name]; ok {
		delete(c.byID, existing.File.GetID())
	}
	if existing, ok := c.byID[id]; ok {
		delete(c.byName, existing.Name)
	}

	info := &TableInfo{File: f, Name: name, PrimaryKey: primaryKey, TupleDesc: f.GetTupleDesc()}
	c.byName[name] = info
	c.byID[id] = info
	return nil
}

func (c *Catalog) GetTableID(name string) (primitives.TableID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byName[name]
	if !ok {
		return 0, dberrors.New(dberrors.CategoryArgument, "TABLE_NOT_FOUND", fmt.Sprintf("table %q not found", name))
	}
	return info.File.GetID(), nil
}

func (c *Catalog) GetTableName(id primitives.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byID[id]
	if !ok {
		return "", dberrors.New(dberrors.CategoryArgument, "TABLE_NOT_FOUND", fmt.Sprintf("table id %d not found", id))
	}
	return info.Name, nil
}

func (c *Catalog) GetDbFile(id primitives.TableID) (page.DbFile, error) {
	info, err := c.getInfo(id)
	if err != nil {
		return nil, err
	}
	return info.File, nil
}

func (c *Catalog) GetTupleDesc(id primitives.TableID) (*tuple.TupleDescription, error) {
	info, err := c.getInfo(id)
	if err != nil {
		return nil, err
	}
	return info.TupleDesc, nil
}

func (c *Catalog) GetPrimaryKey(id primitives.TableID) (string, error) {
	info, err := c.getInfo(id)
	if err != nil {
		return "", err
	}
	return info.PrimaryKey, nil
}

func (c *Catalog) getInfo(id primitives.TableID) (*TableInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.byID[id]
	if !ok {
		return nil, dberrors.New(dberrors.CategoryArgument, "TABLE_NOT_FOUND", fmt.Sprintf("table id %d not found", id))
	}
	return info, nil
}

// TableNames returns every registered table name, sorted.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every table from the catalog, closing their files.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, info := range c.byID {
		_ = info.File.Close()
	}
	c.byName = make(map[string]*TableInfo)
	c.byID = make(map[primitives.TableID]*TableInfo)
}
