package dsl

import (
	"testing"
	"time"

	"github.com/rushteam/histfeat/core"
)

func filterEvents() []core.Event {
	ts := time.Date(2022, 6, 10, 0, 0, 0, 0, time.UTC)
	return []core.Event{
		{ClientID: 1, Timestamp: ts, Fields: map[string]any{"sku": int64(1), "price": int64(80), "category": int64(3)}},
		{ClientID: 2, Timestamp: ts.AddDate(0, 0, -30), Fields: map[string]any{"sku": int64(2), "price": int64(5), "category": int64(3)}},
		{ClientID: 3, Timestamp: ts, Fields: map[string]any{"sku": int64(3), "price": nil, "category": int64(4)}},
	}
}

func TestEventFilter_Apply(t *testing.T) {
	tests := []struct {
		expr string
		want []int64
	}{
		{"event.category == 3", []int64{1, 2}},
		{"has(event.price) && event.price > 50", []int64{1}},
		{"event.timestamp > timestamp(\"2022-06-01T00:00:00Z\")", []int64{1, 3}},
		{"event.client_id != 2", []int64{1, 3}},
		{"!has(event.price)", []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewEventFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewEventFilter: %v", err)
			}
			got, err := f.Apply(filterEvents())
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, ev := range got {
				if ev.ClientID != tt.want[i] {
					t.Errorf("event %d client = %d, want %d", i, ev.ClientID, tt.want[i])
				}
			}
		})
	}
}

func TestEventFilter_Errors(t *testing.T) {
	if _, err := NewEventFilter("event.price >"); err == nil {
		t.Error("expected compile error")
	}
	f, err := NewEventFilter("event.price + 1")
	if err != nil {
		t.Fatalf("NewEventFilter: %v", err)
	}
	if _, err := f.Match(&filterEvents()[0]); err == nil {
		t.Error("non-boolean result must fail")
	}
	if f.String() != "event.price + 1" {
		t.Errorf("String = %q", f.String())
	}
}
