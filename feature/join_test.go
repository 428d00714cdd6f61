package feature

import (
	"testing"

	"github.com/rushteam/histfeat/core"
)

func propertyTable(t *testing.T) *PropertyTable {
	t.Helper()
	table, err := NewPropertyTable([]string{"category", "price"}, []PropertyRow{
		{SKU: 1, Fields: map[string]any{"category": int64(6), "price": int64(10)}},
		{SKU: 2, Fields: map[string]any{"category": int64(4), "price": int64(20)}},
		{SKU: 3, Fields: map[string]any{"category": int64(4), "price": nil}},
	})
	if err != nil {
		t.Fatalf("NewPropertyTable: %v", err)
	}
	return table
}

func TestJoinProperties(t *testing.T) {
	events := []core.Event{
		{ClientID: 1, Timestamp: daysAgo(2), Fields: map[string]any{"sku": int64(1)}},
		{ClientID: 2, Timestamp: daysAgo(1), Fields: map[string]any{"sku": int64(2)}},
		{ClientID: 2, Timestamp: daysAgo(0), Fields: map[string]any{"sku": 1}},
	}
	joined, err := JoinProperties(events, propertyTable(t))
	if err != nil {
		t.Fatalf("JoinProperties: %v", err)
	}
	if len(joined) != len(events) {
		t.Fatalf("row count %d, want %d", len(joined), len(events))
	}
	for i, ev := range joined {
		for _, col := range []string{"sku", "category", "price"} {
			if _, ok := ev.Get(col); !ok {
				t.Errorf("row %d: %s is null", i, col)
			}
		}
	}
	if v, _ := joined[1].Get("category"); v != int64(4) {
		t.Errorf("row 1 category = %v, want 4", v)
	}
	if _, ok := events[0].Fields["category"]; ok {
		t.Error("input events must not be mutated")
	}
}

func TestJoinProperties_Integrity(t *testing.T) {
	tests := []struct {
		name   string
		events []core.Event
	}{
		{"missing sku in properties", []core.Event{{Fields: map[string]any{"sku": int64(9)}}}},
		{"event without sku", []core.Event{{Fields: map[string]any{}}}},
		{"null sku", []core.Event{{Fields: map[string]any{"sku": nil}}}},
		{"non integer sku", []core.Event{{Fields: map[string]any{"sku": "abc"}}}},
		{"null property", []core.Event{{Fields: map[string]any{"sku": int64(3)}}}},
		{"null event column", []core.Event{{Fields: map[string]any{"sku": int64(1), "url": nil}}}},
	}
	table := propertyTable(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined, err := JoinProperties(tt.events, table)
			if !core.IsJoinIntegrityError(err) {
				t.Fatalf("expected JoinIntegrityError, got %v", err)
			}
			if joined != nil {
				t.Error("no partial result on failure")
			}
		})
	}
}

func TestJoinProperties_NilTable(t *testing.T) {
	events := []core.Event{{Fields: map[string]any{"sku": int64(1)}}}
	if _, err := JoinProperties(events, nil); !core.IsJoinIntegrityError(err) {
		t.Fatalf("expected JoinIntegrityError, got %v", err)
	}
}

func TestNewPropertyTable_DuplicateKey(t *testing.T) {
	_, err := NewPropertyTable([]string{"category"}, []PropertyRow{
		{SKU: 1, Fields: map[string]any{"category": int64(1)}},
		{SKU: 1, Fields: map[string]any{"category": int64(2)}},
	})
	if !core.IsJoinIntegrityError(err) {
		t.Fatalf("expected JoinIntegrityError, got %v", err)
	}
}
