package statistics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storelite/pkg/catalog"
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/memory"
	"storelite/pkg/primitives"
	"storelite/pkg/storage/heap"
	"storelite/pkg/tuple"
	"storelite/pkg/types"
)

func newStatsTestTable(t *testing.T) (*catalog.Catalog, *memory.BufferPool, *heap.HeapFile, *tuple.TupleDescription) {
	t.Helper()

	td, err := tuple.NewTupleDescription(
		[]types.Type{types.IntType, types.StringType},
		[]string{"score", "region"},
		[]int{0, 16},
	)
	require.NoError(t, err)

	dir := t.TempDir()
	hf, err := heap.NewHeapFile(primitives.Filepath(filepath.Join(dir, "scores.dat")), td)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hf.Close() })

	cat := catalog.NewCatalog()
	require.NoError(t, cat.AddTable(hf, "scores", ""))

	pool := memory.NewBufferPool(cat, memory.DefaultCapacity)
	return cat, pool, hf, td
}

func insertScoreRow(t *testing.T, pool *memory.BufferPool, hf *heap.HeapFile, td *tuple.TupleDescription, tid *transaction.TransactionID, score int32, region string) {
	t.Helper()
	row := tuple.NewTuple(td)
	require.NoError(t, row.SetField(0, types.NewIntField(score)))
	require.NoError(t, row.SetField(1, types.NewStringField(region, 16)))
	require.NoError(t, pool.InsertTuple(tid, hf.GetID(), row))
}

func TestNewTableStatsComputesCountAndCosts(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)

	tid := transaction.NewTransactionID()
	insertScoreRow(t, pool, hf, td, tid, 10, "east")
	insertScoreRow(t, pool, hf, td, tid, 50, "west")
	insertScoreRow(t, pool, hf, td, tid, 90, "east")
	require.NoError(t, pool.CommitTransaction(tid))

	ts, err := NewTableStats(hf.GetID(), DefaultIOCostPerPage, cat, pool)
	require.NoError(t, err)

	assert.Equal(t, 3, ts.TotalTuples())
	assert.Equal(t, float64(3*DefaultIOCostPerPage), ts.EstimateScanCost())
	assert.Equal(t, 1, ts.EstimateTableCardinality(1.0/3.0))
}

func TestNewTableStatsSelectivityDispatchesByColumnType(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)

	tid := transaction.NewTransactionID()
	for i := int32(1); i <= 100; i++ {
		insertScoreRow(t, pool, hf, td, tid, i, "east")
	}
	require.NoError(t, pool.CommitTransaction(tid))

	ts, err := NewTableStats(hf.GetID(), DefaultIOCostPerPage, cat, pool)
	require.NoError(t, err)

	sel, err := ts.EstimateSelectivity(0, types.Equals, types.NewIntField(50))
	require.NoError(t, err)
	assert.InDelta(t, 0.01, sel, 0.005)

	sel, err = ts.EstimateSelectivity(1, types.Like, types.NewStringField("e", 16))
	require.NoError(t, err)
	assert.Equal(t, 0.5, sel)
}

func TestNewTableStatsRejectsBadFieldIndex(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)
	tid := transaction.NewTransactionID()
	insertScoreRow(t, pool, hf, td, tid, 1, "x")
	require.NoError(t, pool.CommitTransaction(tid))

	ts, err := NewTableStats(hf.GetID(), DefaultIOCostPerPage, cat, pool)
	require.NoError(t, err)

	_, err = ts.EstimateSelectivity(99, types.Equals, types.NewIntField(1))
	assert.Error(t, err)
}

func TestNewTableStatsOnEmptyTable(t *testing.T) {
	cat, pool, hf, _ := newStatsTestTable(t)

	ts, err := NewTableStats(hf.GetID(), DefaultIOCostPerPage, cat, pool)
	require.NoError(t, err)
	assert.Equal(t, 0, ts.TotalTuples())
	assert.Equal(t, float64(0), ts.EstimateScanCost())
}

func TestNewTableStatsUsesProvidedIOCostPerPage(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)
	tid := transaction.NewTransactionID()
	insertScoreRow(t, pool, hf, td, tid, 1, "east")
	insertScoreRow(t, pool, hf, td, tid, 2, "west")
	require.NoError(t, pool.CommitTransaction(tid))

	ts, err := NewTableStats(hf.GetID(), 7, cat, pool)
	require.NoError(t, err)
	assert.Equal(t, float64(2*7), ts.EstimateScanCost())
}
