package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/pkg/conv"
)

// UniqueValues 是「列名 → 该列 Top N 取值」的有序映射。
//
// 插入顺序是稳定的，并且决定了特征向量的布局：
// 列的顺序与每列取值的顺序都会原样体现在 StatsFeaturesCalculator 的输出中。
// 训练数据上计算一次后不再修改，训练与推理共用同一份。
type UniqueValues struct {
	columns []string
	values  map[string][]any
}

// NewUniqueValues 创建空的 UniqueValues
func NewUniqueValues() *UniqueValues {
	return &UniqueValues{values: make(map[string][]any)}
}

// Set 设置某列的取值列表。取值统一为规范形式（见 conv.Canonical），
// 必须可比较且不重复。列已存在时保留其原有位置。
func (u *UniqueValues) Set(column string, values []any) error {
	if u.values == nil {
		u.values = make(map[string][]any)
	}
	seen := make(map[any]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		c, ok := comparableValue(v)
		if !ok {
			return core.InvalidInputError(core.ModuleFeature, "unique values of column %q: value %v (%T) is not comparable", column, v, v)
		}
		if _, dup := seen[c]; dup {
			return core.InvalidInputError(core.ModuleFeature, "unique values of column %q: duplicate value %v", column, v)
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if _, exists := u.values[column]; !exists {
		u.columns = append(u.columns, column)
	}
	u.values[column] = out
	return nil
}

// subset 复制指定列的取值，返回与 u 不共享存储的 UniqueValues。
func (u *UniqueValues) subset(columns []string) *UniqueValues {
	out := NewUniqueValues()
	for _, col := range columns {
		values, ok := u.Get(col)
		if !ok {
			continue
		}
		if _, dup := out.values[col]; !dup {
			out.columns = append(out.columns, col)
		}
		out.values[col] = append([]any(nil), values...)
	}
	return out
}

// Get 返回某列的取值列表（只读）。
func (u *UniqueValues) Get(column string) ([]any, bool) {
	if u == nil {
		return nil, false
	}
	v, ok := u.values[column]
	return v, ok
}

// Len 返回某列的取值个数，列不存在时为 0。
func (u *UniqueValues) Len(column string) int {
	v, _ := u.Get(column)
	return len(v)
}

// Columns 返回列名（插入顺序）。
func (u *UniqueValues) Columns() []string {
	if u == nil {
		return nil
	}
	out := make([]string, len(u.columns))
	copy(out, u.columns)
	return out
}

// indexOf 构建「取值 → 位置」的查找表。
func (u *UniqueValues) indexOf(column string) map[any]int {
	values, _ := u.Get(column)
	idx := make(map[any]int, len(values))
	for i, v := range values {
		idx[v] = i
	}
	return idx
}

// MarshalYAML 按插入顺序输出映射。
func (u *UniqueValues) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, col := range u.columns {
		var valueNode yaml.Node
		if err := valueNode.Encode(u.values[col]); err != nil {
			return nil, fmt.Errorf("encode column %q: %w", col, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
			&valueNode,
		)
	}
	return node, nil
}

// UnmarshalYAML 按文档中的顺序读取映射，保证列顺序不丢失。
func (u *UniqueValues) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("unique values: expected a mapping, got yaml kind %d", value.Kind)
	}
	*u = UniqueValues{values: make(map[string][]any)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var values []any
		if err := value.Content[i+1].Decode(&values); err != nil {
			return fmt.Errorf("unique values of column %q: %w", value.Content[i].Value, err)
		}
		if err := u.Set(value.Content[i].Value, values); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON 按插入顺序输出 JSON 对象。
func (u *UniqueValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range u.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		vals, err := json.Marshal(u.values[col])
		if err != nil {
			return nil, fmt.Errorf("encode column %q: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 逐 token 读取，保证列顺序不丢失。
func (u *UniqueValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("unique values: expected a JSON object")
	}
	*u = UniqueValues{values: make(map[string][]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		col, _ := tok.(string)
		var values []any
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("unique values of column %q: %w", col, err)
		}
		if err := u.Set(col, values); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// GetTopValues 统计每列出现频率最高的 n 个取值（降序），频率相同时按首次出现顺序。
// 缺失值（nil）不参与统计。列顺序与 columns 一致。
func GetTopValues(events []core.Event, columns []string, n int) *UniqueValues {
	out := NewUniqueValues()
	for _, col := range columns {
		type valueCount struct {
			value any
			count int
			first int
		}
		counts := make(map[any]*valueCount)
		for i := range events {
			raw, ok := events[i].Get(col)
			if !ok {
				continue
			}
			v, ok := comparableValue(raw)
			if !ok {
				continue
			}
			if vc, ok := counts[v]; ok {
				vc.count++
				continue
			}
			counts[v] = &valueCount{value: v, count: 1, first: i}
		}

		ranked := make([]*valueCount, 0, len(counts))
		for _, vc := range counts {
			ranked = append(ranked, vc)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].count != ranked[j].count {
				return ranked[i].count > ranked[j].count
			}
			return ranked[i].first < ranked[j].first
		})
		if n >= 0 && len(ranked) > n {
			ranked = ranked[:n]
		}

		values := make([]any, len(ranked))
		for i, vc := range ranked {
			values[i] = vc.value
		}
		// 取值来自 map key，必然可比较且不重复
		_ = out.Set(col, values)
	}
	return out
}

// comparableValue 返回可作为 map key 的规范值。
func comparableValue(v any) (any, bool) {
	c := conv.Canonical(v)
	if c == nil {
		return nil, false
	}
	if !reflect.TypeOf(c).Comparable() {
		return nil, false
	}
	return c, true
}
