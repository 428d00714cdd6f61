package feature

import (
	"strings"
	"testing"

	"github.com/rushteam/histfeat/core"
)

func TestParseVector(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want core.IntVector
	}{
		{"simple", "[11 2 3]", core.IntVector{11, 2, 3}},
		{"empty", "[]", core.IntVector{}},
		{"only spaces", "[   ]", core.IntVector{}},
		{"single", "[42]", core.IntVector{42}},
		{"padding", "[ 1 2 ]", core.IntVector{1, 2}},
		{"interior runs", "[1   2    3]", core.IntVector{1, 2, 3}},
		{"leading zeros", "[007 0]", core.IntVector{7, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVector(tt.in)
			if err != nil {
				t.Fatalf("ParseVector(%q): %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseVector(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseVector(%q)[%d] = %d, want %d", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseVector_FormatError(t *testing.T) {
	tests := []string{
		"",
		"1 2 3",
		"[1 2 3",
		"1 2 3]",
		"[1,2,3]",
		"[a b]",
		"[-1 2]",
		"[1.5]",
		" [1 2]",
		"[1 2] ",
		"[[1]]",
		"[1\t2]",
		"[1\"2]",
		"[1\\2]",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseVector(in)
			if !core.IsFormatError(err) {
				t.Fatalf("ParseVector(%q): expected FormatError, got %v", in, err)
			}
			if !strings.Contains(err.Error(), in) {
				t.Errorf("error %q should contain the offending string", err)
			}
		})
	}
}

func TestParseVectorAs_Range(t *testing.T) {
	if v, err := ParseVectorAs[uint8]("[0 255]"); err != nil || v[1] != 255 {
		t.Fatalf("uint8 [0 255]: %v %v", v, err)
	}
	if _, err := ParseVectorAs[uint8]("[256]"); !core.IsFormatError(err) {
		t.Errorf("uint8 overflow: expected FormatError, got %v", err)
	}
	if _, err := ParseVectorAs[int8]("[128]"); !core.IsFormatError(err) {
		t.Errorf("int8 overflow: expected FormatError, got %v", err)
	}
	if v, err := ParseVectorAs[int64]("[9223372036854775807]"); err != nil || v[0] != 9223372036854775807 {
		t.Errorf("int64 max: %v %v", v, err)
	}
	if _, err := ParseVector("[2147483648]"); !core.IsFormatError(err) {
		t.Errorf("EmbeddingInt overflow: expected FormatError, got %v", err)
	}
}

func TestValidateVectorString(t *testing.T) {
	if err := ValidateVectorString("[1 2 3]"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateVectorString("[1;2]"); !core.IsFormatError(err) {
		t.Errorf("expected FormatError, got %v", err)
	}
}
