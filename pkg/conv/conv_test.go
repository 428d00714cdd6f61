package conv

import (
	"reflect"
	"testing"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int(3), 3, true},
		{int32(-4), -4, true},
		{uint8(7), 7, true},
		{float64(2), 2, true},
		{float64(2.5), 0, false},
		{float32(1), 1, true},
		{uint64(1 << 63), 0, false},
		{"3", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt64(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToInt64(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToFloat64(t *testing.T) {
	if f, ok := ToFloat64(true); !ok || f != 1 {
		t.Errorf("ToFloat64(true) = %v, %v", f, ok)
	}
	if f, ok := ToFloat64(int16(9)); !ok || f != 9 {
		t.Errorf("ToFloat64(int16) = %v, %v", f, ok)
	}
	if _, ok := ToFloat64("x"); ok {
		t.Error("string must not convert")
	}
}

func TestCanonical(t *testing.T) {
	if Canonical(int(5)) != Canonical(int64(5)) {
		t.Error("int and int64 must share a canonical form")
	}
	if Canonical(float64(5)) != int64(5) {
		t.Error("integral float must become int64")
	}
	if Canonical(2.5) != 2.5 {
		t.Error("fractional float must be unchanged")
	}
	if Canonical("a") != "a" || Canonical(nil) != nil {
		t.Error("string and nil must be unchanged")
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"sku", 3, 4.0, true})
	want := []string{"sku", "3", "4", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SliceAnyToString = %v, want %v", got, want)
	}
	if got := SliceAnyToString([]string{"a"}); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("[]string passthrough = %v", got)
	}
	if SliceAnyToString(42) != nil {
		t.Error("non-slice must return nil")
	}
}

func TestSliceAnyToInt(t *testing.T) {
	got := SliceAnyToInt([]any{1, 7.0, "x", 30})
	if !reflect.DeepEqual(got, []int{1, 7, 30}) {
		t.Errorf("SliceAnyToInt = %v", got)
	}
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{"name": "stats", "days": 7, "ratio": 7.0}
	if ConfigGet(m, "name", "") != "stats" {
		t.Error("string lookup failed")
	}
	if ConfigGet(m, "days", "fallback") != "fallback" {
		t.Error("type mismatch must return default")
	}
	if ConfigGet[string](nil, "name", "d") != "d" {
		t.Error("nil map must return default")
	}
	if ConfigGetInt64(m, "ratio", 0) != 7 || ConfigGetInt64(m, "days", 0) != 7 {
		t.Error("ConfigGetInt64 must accept int and float64")
	}
	if ConfigGetInt64(m, "missing", 11) != 11 {
		t.Error("missing key must return default")
	}
}
