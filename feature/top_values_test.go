package feature

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/histfeat/core"
)

// topValuesEvents 与离线基线测试相同的样例数据
func topValuesEvents() []core.Event {
	skus := []int64{1, 1, 5, 1, 2, 3, 2, 4}
	categories := []int64{6, 6, 5, 6, 4, 3, 4, 1}
	clients := []int64{1, 1, 2, 2, 3, 3, 4, 4}
	maxDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	events := make([]core.Event, len(skus))
	for i := range skus {
		events[i] = core.Event{
			ClientID:  clients[i],
			Timestamp: maxDate.AddDate(0, 0, i-8),
			Fields:    map[string]any{"sku": skus[i], "category": categories[i]},
		}
	}
	return events
}

func TestGetTopValues(t *testing.T) {
	uv := GetTopValues(topValuesEvents(), []string{"sku", "category"}, 2)

	want := map[string][]any{
		"sku":      {int64(1), int64(2)},
		"category": {int64(6), int64(4)},
	}
	if cols := uv.Columns(); len(cols) != 2 || cols[0] != "sku" || cols[1] != "category" {
		t.Fatalf("columns = %v", cols)
	}
	for col, exp := range want {
		got, ok := uv.Get(col)
		if !ok {
			t.Fatalf("column %s missing", col)
		}
		if len(got) != len(exp) {
			t.Fatalf("%s = %v, want %v", col, got, exp)
		}
		for i := range exp {
			if got[i] != exp[i] {
				t.Errorf("%s[%d] = %v, want %v", col, i, got[i], exp[i])
			}
		}
	}
}

func TestGetTopValues_TiesAndNulls(t *testing.T) {
	events := []core.Event{
		{Fields: map[string]any{"c": "b"}},
		{Fields: map[string]any{"c": "a"}},
		{Fields: map[string]any{"c": nil}},
		{Fields: map[string]any{"c": "a"}},
		{Fields: map[string]any{"c": "b"}},
		{Fields: map[string]any{"c": "z"}},
		{Fields: map[string]any{}},
	}
	uv := GetTopValues(events, []string{"c"}, 5)
	got, _ := uv.Get("c")
	want := []any{"b", "a", "z"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if uv := GetTopValues(nil, []string{"c"}, 3); uv.Len("c") != 0 {
		t.Errorf("empty events should give empty top values")
	}
}

func TestUniqueValues_Set(t *testing.T) {
	uv := NewUniqueValues()
	if err := uv.Set("sku", []any{1, int64(1)}); !core.IsInvalidInput(err) {
		t.Errorf("duplicate after canonicalization: expected INVALID_INPUT, got %v", err)
	}
	if err := uv.Set("sku", []any{[]int{1}}); !core.IsInvalidInput(err) {
		t.Errorf("non comparable value: expected INVALID_INPUT, got %v", err)
	}
	if err := uv.Set("b", []any{1}); err != nil {
		t.Fatal(err)
	}
	if err := uv.Set("a", []any{2}); err != nil {
		t.Fatal(err)
	}
	if err := uv.Set("b", []any{3}); err != nil {
		t.Fatal(err)
	}
	if cols := uv.Columns(); cols[0] != "b" || cols[1] != "a" {
		t.Errorf("resetting a column must keep its position, got %v", cols)
	}
}

func orderedUniqueValues(t *testing.T) *UniqueValues {
	t.Helper()
	uv := NewUniqueValues()
	for _, col := range []string{"zeta", "alpha", "mid"} {
		if err := uv.Set(col, []any{3, 1, 2}); err != nil {
			t.Fatal(err)
		}
	}
	return uv
}

func TestUniqueValues_YAMLKeepsOrder(t *testing.T) {
	data, err := yaml.Marshal(orderedUniqueValues(t))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !(strings.Index(string(data), "zeta") < strings.Index(string(data), "alpha")) {
		t.Errorf("yaml output lost column order:\n%s", data)
	}
	var back UniqueValues
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	assertOrder(t, &back)
}

func TestUniqueValues_JSONKeepsOrder(t *testing.T) {
	data, err := json.Marshal(orderedUniqueValues(t))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"zeta":[3,1,2],"alpha":[3,1,2],"mid":[3,1,2]}` {
		t.Errorf("unexpected json %s", data)
	}
	var back UniqueValues
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	assertOrder(t, &back)
}

func assertOrder(t *testing.T, uv *UniqueValues) {
	t.Helper()
	cols := uv.Columns()
	want := []string{"zeta", "alpha", "mid"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("columns[%d] = %s, want %s", i, cols[i], want[i])
		}
	}
	values, _ := uv.Get("mid")
	if values[0] != int64(3) || values[2] != int64(2) {
		t.Errorf("values not canonical or out of order: %v", values)
	}
}
