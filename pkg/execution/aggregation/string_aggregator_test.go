package aggregation

import (
	"testing"

	"storelite/pkg/types"
)

func TestStringAggregatorOnlySupportsCount(t *testing.T) {
	if _, err := NewStringAggregator(NoGrouping, types.IntType, 0, Sum); err == nil {
		t.Error("expected SUM on a string field to be rejected")
	}
	if _, err := NewStringAggregator(NoGrouping, types.IntType, 0, Count); err != nil {
		t.Errorf("expected COUNT to be accepted, got %v", err)
	}
}

func TestStringAggregatorGroupedCount(t *testing.T) {
	td := testSchema(t)
	agg, err := NewStringAggregator(0, types.StringType, 0, Count)
	if err != nil {
		t.Fatalf("NewStringAggregator: %v", err)
	}

	for _, group := range []string{"a", "a", "b"} {
		if err := agg.Merge(intRow(t, td, group, 0)); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}

	it, err := agg.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	rows := drainRows(t, it)
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rows))
	}

	counts := make(map[string]int32)
	for _, row := range rows {
		groupField, err := row.GetField(0)
		if err != nil {
			t.Fatalf("GetField(0): %v", err)
		}
		countField, err := row.GetField(1)
		if err != nil {
			t.Fatalf("GetField(1): %v", err)
		}
		counts[groupField.String()] = countField.(*types.IntField).Value
	}
	if counts["a"] != 2 || counts["b"] != 1 {
		t.Errorf("expected a=2 b=1, got %v", counts)
	}
}

func TestStringAggregatorNoGroupingCountsAllRows(t *testing.T) {
	td := testSchema(t)
	agg, err := NewStringAggregator(NoGrouping, types.StringType, 0, Count)
	if err != nil {
		t.Fatalf("NewStringAggregator: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := agg.Merge(intRow(t, td, "x", 0)); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}

	it, err := agg.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	rows := drainRows(t, it)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	countField, err := rows[0].GetField(0)
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if countField.(*types.IntField).Value != 3 {
		t.Errorf("expected count 3, got %v", countField)
	}
}
