package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storelite/pkg/concurrency/transaction"
)

func TestRegistryGetBeforeComputeErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(1)
	assert.Error(t, err)
}

func TestRegistryComputeAndGet(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)
	tid := transaction.NewTransactionID()
	insertScoreRow(t, pool, hf, td, tid, 1, "east")
	require.NoError(t, pool.CommitTransaction(tid))

	r := NewRegistry()
	ts, err := r.Compute(hf.GetID(), DefaultIOCostPerPage, cat, pool)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.TotalTuples())

	got, err := r.Get(hf.GetID())
	require.NoError(t, err)
	assert.Same(t, ts, got)
}

func TestRegistryComputeAllCoversEveryTable(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)
	tid := transaction.NewTransactionID()
	insertScoreRow(t, pool, hf, td, tid, 1, "east")
	require.NoError(t, pool.CommitTransaction(tid))

	r := NewRegistry()
	require.NoError(t, r.ComputeAll(DefaultIOCostPerPage, cat, pool))

	ts, err := r.Get(hf.GetID())
	require.NoError(t, err)
	assert.Equal(t, 1, ts.TotalTuples())
}

func TestRegistryRemove(t *testing.T) {
	cat, pool, hf, td := newStatsTestTable(t)
	tid := transaction.NewTransactionID()
	insertScoreRow(t, pool, hf, td, tid, 1, "east")
	require.NoError(t, pool.CommitTransaction(tid))

	r := NewRegistry()
	_, err := r.Compute(hf.GetID(), DefaultIOCostPerPage, cat, pool)
	require.NoError(t, err)

	r.Remove(hf.GetID())
	_, err = r.Get(hf.GetID())
	assert.Error(t, err)
}
