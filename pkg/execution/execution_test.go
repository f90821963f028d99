package execution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"storelite/pkg/catalog"
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/memory"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/heap"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

// sliceSource is a minimal DbIterator over a fixed in-memory slice of
// tuples, used to feed operators under test without a real heap file.
type sliceSource struct {
	td     *tuple.TupleDescription
	rows   []*tuple.Tuple
	idx    int
	opened bool
}

func newSliceSource(td *tuple.TupleDescription, rows []*tuple.Tuple) *sliceSource {
	return &sliceSource{td: td, rows: rows}
}

func (s *sliceSource) Open() error {
	s.opened = true
	s.idx = 0
	return nil
}

func (s *sliceSource) HasNext() (bool, error) { return s.idx < len(s.rows), nil }

func (s *sliceSource) Next() (*tuple.Tuple, error) {
	t := s.rows[s.idx]
	s.idx++
	return t, nil
}

func (s *sliceSource) Rewind() error { s.idx = 0; return nil }
func (s *sliceSource) Close() error  { s.opened = false; return nil }
func (s *sliceSource) GetTupleDesc() *tuple.TupleDescription { return s.td }

func personSchema(t *testing.T) *tuple.TupleDescription {
	t.Helper()
	td, err := tuple.NewTupleDescription(
		[]types.Type{types.IntType, types.StringType},
		[]string{"id", "name"},
		[]int{0, 32},
	)
	require.NoError(t, err)
	return td
}

func personTuple(t *testing.T, td *tuple.TupleDescription, id int32, name string) *tuple.Tuple {
	t.Helper()
	tup := tuple.NewTuple(td)
	require.NoError(t, tup.SetField(0, types.NewIntField(id)))
	require.NoError(t, tup.SetField(1, types.NewStringField(name, 32)))
	return tup
}

// testHarness wires a catalog, buffer pool, and one heap table together
// for operators that need to talk to real storage (SeqScan, Insert,
// Delete).
type testHarness struct {
	Catalog *catalog.Catalog
	Pool    *memory.BufferPool
	Table   *heap.HeapFile
	Schema  *tuple.TupleDescription
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	td := personSchema(t)
	dir := t.TempDir()
	hf, err := heap.NewHeapFile(primitives.Filepath(filepath.Join(dir, "people.dat")), td)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hf.Close() })

	cat := catalog.NewCatalog()
	require.NoError(t, cat.AddTable(hf, "people", "id"))

	pool := memory.NewBufferPool(cat, memory.DefaultCapacity)
	return &testHarness{Catalog: cat, Pool: pool, Table: hf, Schema: td}
}

func (h *testHarness) insertRows(t *testing.T, rows [][2]any) {
	t.Helper()
	tid := transaction.NewTransactionID()
	for _, row := range rows {
		tup := personTuple(t, h.Schema, row[0].(int32), row[1].(string))
		require.NoError(t, h.Pool.InsertTuple(tid, h.Table.GetID(), tup))
	}
	require.NoError(t, h.Pool.CommitTransaction(tid))
}

func drain(t *testing.T, it DbIterator) []*tuple.Tuple {
	t.Helper()
	var out []*tuple.Tuple
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			break
		}
		tup, err := it.Next()
		require.NoError(t, err)
		out = append(out, tup)
	}
	return out
}
