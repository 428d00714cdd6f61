// Package conv 提供类型转换、slice 转换、配置取值等泛型工具，用于简化各模块中的重复逻辑。
package conv

import (
	"fmt"
	"math"
)

// ToFloat64 将 any 转为 float64。
// 支持全部整数/浮点类型；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	}
	if i, ok := ToInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// ToInt64 将整数类型的 any 转为 int64；整数值的 float 也可转换。
func ToInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case float32:
		if float64(val) != math.Trunc(float64(val)) {
			return 0, false
		}
		return int64(val), true
	default:
		return 0, false
	}
}

// ToInt 将 any 转为 int。
func ToInt(v any) (int, bool) {
	i, ok := ToInt64(v)
	return int(i), ok
}

// ToString 将 any 转为 string。
// 仅支持 string 类型，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Canonical 返回值的规范形式，用于跨来源比较类别值：
// 所有整数类型统一为 int64（YAML 解析得到 int，parquet 得到 int64），
// 整数值的浮点数也归为 int64，其余类型原样返回。
func Canonical(v any) any {
	switch v.(type) {
	case nil, string, bool:
		return v
	}
	if i, ok := ToInt64(v); ok {
		return i
	}
	return v
}

// ConvertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// SliceAnyToString 将 []any（即 []interface{}）转为 []string。
// 元素为 string 直接保留，为数字时格式化为 "%.0f"。
func SliceAnyToString(v any) []string {
	if v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
		return nil
	}
	return ConvertSlice(raw, func(e any) (string, bool) {
		if s, ok := e.(string); ok {
			return s, true
		}
		if f, ok := ToFloat64(e); ok {
			return fmt.Sprintf("%.0f", f), true
		}
		return "", false
	})
}

// SliceAnyToInt 将 []any 转为 []int，非整数元素被跳过。
func SliceAnyToInt(v any) []int {
	if v == nil {
		return nil
	}
	switch raw := v.(type) {
	case []int:
		return raw
	case []any:
		return ConvertSlice(raw, ToInt)
	}
	return nil
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 从 config 取 int64。YAML/JSON 常得到 int 或 float64，此处兼容并统一为 int64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	if i, ok := ToInt64(v); ok {
		return i
	}
	return defaultVal
}
