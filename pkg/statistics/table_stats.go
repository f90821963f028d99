package statistics

import (
	"storelite/pkg/catalog"
	"storelite/pkg/concurrency/transaction"
	"storelite/pkg/dberrors"
	"storelite/pkg/execution"
	"storelite/pkg/memory"
	"storelite/pkg/primitives"
	"storelite/pkg/types"
)

// DefaultIOCostPerPage is the assumed cost, in arbitrary units, of reading
// one page during a sequential scan, used by callers that have no more
// specific cost model of their own. It does not distinguish sequential I/O
// from seeks; a real cost model is an external collaborator's job.
const DefaultIOCostPerPage = 1000

// NumHistogramBuckets is the bucket count used for every histogram built
// by NewTableStats.
const NumHistogramBuckets = 100

// TableStats summarizes one table's contents for selectivity and cost
// estimation: a histogram per column, the total row count observed at
// construction time, and the per-page I/O cost it was built with.
type TableStats struct {
	totalTuples   int
	ioCostPerPage float64
	intHistograms map[int]*IntHistogram
	strHistograms map[int]*StringHistogram
	fieldTypes    []types.Type
}

// NewTableStats builds statistics for tableID by scanning it twice inside
// its own committed transaction: once to find each INT column's [min,
// max] range (needed before any IntHistogram can be constructed), and
// once more to actually populate the histograms. ioCostPerPage is recorded
// verbatim and used later by EstimateScanCost; callers with no better
// figure can pass DefaultIOCostPerPage.
func NewTableStats(tableID primitives.TableID, ioCostPerPage float64, cat *catalog.Catalog, pool *memory.BufferPool) (*TableStats, error) {
	tid := transaction.NewTransactionID()

	ts, err := buildTableStats(tid, tableID, ioCostPerPage, cat, pool)
	if err != nil {
		_ = pool.AbortTransaction(tid)
		return nil, err
	}

	if err := pool.CommitTransaction(tid); err != nil {
		return nil, err
	}
	return ts, nil
}

func buildTableStats(tid *transaction.TransactionID, tableID primitives.TableID, ioCostPerPage float64, cat *catalog.Catalog, pool *memory.BufferPool) (*TableStats, error) {
	td, err := cat.GetTupleDesc(tableID)
	if err != nil {
		return nil, err
	}

	numFields := td.NumFields()
	fieldTypes := make([]types.Type, numFields)
	for i := 0; i < numFields; i++ {
		fieldTypes[i], err = td.TypeAt(i)
		if err != nil {
			return nil, err
		}
	}

	mins := make([]int32, numFields)
	maxs := make([]int32, numFields)
	seen := make([]bool, numFields)

	scan1, err := execution.NewSeqScan(tid, tableID, cat, pool)
	if err != nil {
		return nil, err
	}
	if err := scan1.Open(); err != nil {
		return nil, err
	}

	totalTuples := 0
	for {
		hasNext, err := scan1.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := scan1.Next()
		if err != nil {
			return nil, err
		}
		totalTuples++

		for i := 0; i < numFields; i++ {
			if fieldTypes[i] != types.IntType {
				continue
			}
			f, err := t.GetField(i)
			if err != nil {
				return nil, err
			}
			iv, ok := f.(*types.IntField)
			if !ok {
				continue
			}
			if !seen[i] {
				mins[i], maxs[i] = iv.Value, iv.Value
				seen[i] = true
				continue
			}
			if iv.Value < mins[i] {
				mins[i] = iv.Value
			}
			if iv.Value > maxs[i] {
				maxs[i] = iv.Value
			}
		}
	}
	if err := scan1.Close(); err != nil {
		return nil, err
	}

	intHists := make(map[int]*IntHistogram)
	strHists := make(map[int]*StringHistogram)
	for i := 0; i < numFields; i++ {
		switch fieldTypes[i] {
		case types.IntType:
			if !seen[i] {
				mins[i], maxs[i] = 0, 0
			}
			h, err := NewIntHistogram(NumHistogramBuckets, mins[i], maxs[i])
			if err != nil {
				return nil, err
			}
			intHists[i] = h
		case types.StringType:
			h, err := NewStringHistogram(NumHistogramBuckets)
			if err != nil {
				return nil, err
			}
			strHists[i] = h
		}
	}

	scan2, err := execution.NewSeqScan(tid, tableID, cat, pool)
	if err != nil {
		return nil, err
	}
	if err := scan2.Open(); err != nil {
		return nil, err
	}

	for {
		hasNext, err := scan2.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := scan2.Next()
		if err != nil {
			return nil, err
		}

		for i := 0; i < numFields; i++ {
			f, err := t.GetField(i)
			if err != nil {
				return nil, err
			}
			switch fieldTypes[i] {
			case types.IntType:
				if iv, ok := f.(*types.IntField); ok {
					if err := intHists[i].AddValue(iv.Value); err != nil {
						return nil, err
					}
				}
			case types.StringType:
				if sv, ok := f.(*types.StringField); ok {
					if err := strHists[i].AddValue(sv.Value); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	if err := scan2.Close(); err != nil {
		return nil, err
	}

	return &TableStats{
		totalTuples:   totalTuples,
		ioCostPerPage: ioCostPerPage,
		intHistograms: intHists,
		strHistograms: strHists,
		fieldTypes:    fieldTypes,
	}, nil
}

// EstimateScanCost returns the estimated cost of a full sequential scan.
func (ts *TableStats) EstimateScanCost() float64 {
	return float64(ts.totalTuples) * ts.ioCostPerPage
}

// EstimateTableCardinality returns the estimated row count after applying
// a predicate with the given selectivity.
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(ts.totalTuples) * selectivity)
}

// TotalTuples returns the row count observed when statistics were built.
func (ts *TableStats) TotalTuples() int {
	return ts.totalTuples
}

// EstimateSelectivity estimates the fraction of rows satisfying "field op
// constant".
func (ts *TableStats) EstimateSelectivity(field int, op types.Predicate, constant types.Field) (float64, error) {
	if field < 0 || field >= len(ts.fieldTypes) {
		return 0, dberrors.New(dberrors.CategoryArgument, "FIELD_INDEX_OOB", "field index out of range")
	}

	switch ts.fieldTypes[field] {
	case types.IntType:
		iv, ok := constant.(*types.IntField)
		if !ok {
			return 0, dberrors.New(dberrors.CategoryLogic, "TYPE_MISMATCH", "constant is not an int field")
		}
		return ts.intHistograms[field].EstimateSelectivity(op, iv.Value), nil
	case types.StringType:
		sv, ok := constant.(*types.StringField)
		if !ok {
			return 0, dberrors.New(dberrors.CategoryLogic, "TYPE_MISMATCH", "constant is not a string field")
		}
		return ts.strHistograms[field].EstimateSelectivity(op, sv.Value), nil
	default:
		return 0, dberrors.New(dberrors.CategoryLogic, "UNSUPPORTED_TYPE", "field has an unsupported type")
	}
}
