package feature

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rushteam/histfeat/core"
)

// vectorStringPattern 与 `\[( *\d* *)*\]` 完整匹配等价：方括号内只有空格和数字。
var vectorStringPattern = regexp.MustCompile(`^\[[ 0-9]*\]$`)

// Integer 是向量元素允许的定宽整数类型。
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ValidateVectorString 校验向量字符串格式，例如 "[11 2 3]"。
// 允许任意数量的空格；不合法时返回 FormatError。
func ValidateVectorString(s string) error {
	if !vectorStringPattern.MatchString(s) {
		return core.FormatError(s, "incorrect form of string representation of vector, correct form is '[( *\\d* *)*]'")
	}
	return nil
}

// ParseVector 将向量字符串解析为 core.IntVector。
func ParseVector(s string) (core.IntVector, error) {
	return ParseVectorAs[core.EmbeddingInt](s)
}

// ParseVectorAs 将向量字符串解析为任意定宽整数类型的 slice。
//
// 按空白串切分（连续空格不会产生空 token）；超出 T 取值范围的数字返回 FormatError，
// 不做静默截断。
func ParseVectorAs[T Integer](s string) ([]T, error) {
	if err := ValidateVectorString(s); err != nil {
		return nil, err
	}
	tokens := strings.Fields(strings.Trim(s, "[]"))
	out := make([]T, len(tokens))

	var zero T
	bits := bitSize[T]()
	signed := ^zero < 0
	for i, tok := range tokens {
		if signed {
			v, err := strconv.ParseInt(tok, 10, bits)
			if err != nil {
				return nil, core.FormatError(s, "token %q out of range for %d-bit signed element", tok, bits)
			}
			out[i] = T(v)
			continue
		}
		v, err := strconv.ParseUint(tok, 10, bits)
		if err != nil {
			return nil, core.FormatError(s, "token %q out of range for %d-bit unsigned element", tok, bits)
		}
		out[i] = T(v)
	}
	return out, nil
}

// bitSize 返回 T 的位宽。
func bitSize[T Integer]() int {
	var x T = 1
	n := 0
	for x != 0 {
		x <<= 1
		n++
	}
	return n
}
