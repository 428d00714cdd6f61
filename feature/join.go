package feature

import (
	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/pkg/conv"
)

// PropertyTable 是物品属性表：sku → 属性列。每个 sku 只有一行（多对一连接的前提）。
type PropertyTable struct {
	columns []string
	rows    map[int64]map[string]any
}

// PropertyRow 是属性表的一行。
type PropertyRow struct {
	SKU    int64
	Fields map[string]any
}

// NewPropertyTable 由行构建属性表。
// columns 是属性列（不含 sku）；重复的 sku 返回 JoinIntegrityError。
func NewPropertyTable(columns []string, rows []PropertyRow) (*PropertyTable, error) {
	t := &PropertyTable{
		columns: append([]string(nil), columns...),
		rows:    make(map[int64]map[string]any, len(rows)),
	}
	for _, r := range rows {
		if _, dup := t.rows[r.SKU]; dup {
			return nil, core.JoinIntegrityError("duplicate sku %d in properties (many-to-one violated)", r.SKU)
		}
		t.rows[r.SKU] = r.Fields
	}
	return t, nil
}

// Columns 返回属性列名。
func (t *PropertyTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len 返回行数。
func (t *PropertyTable) Len() int { return len(t.rows) }

// Lookup 按 sku 查找属性。
func (t *PropertyTable) Lookup(sku int64) (map[string]any, bool) {
	r, ok := t.rows[sku]
	return r, ok
}

// JoinProperties 将属性表按 sku 多对一连接到事件上。
//
// 连接后每一行的每一列都必须非空：事件缺少 sku、sku 不在属性表中、
// 属性值为空都会返回 JoinIntegrityError，整批失败，不返回部分结果。
// 输入的事件不会被修改。
func JoinProperties(events []core.Event, properties *PropertyTable) ([]core.Event, error) {
	if properties == nil {
		return nil, core.JoinIntegrityError("nil property table")
	}
	joined := make([]core.Event, len(events))
	for i := range events {
		raw, ok := events[i].Get(core.ColumnSKU)
		if !ok {
			return nil, core.JoinIntegrityError("event %d (client %d) has no sku", i, events[i].ClientID)
		}
		sku, ok := conv.ToInt64(raw)
		if !ok {
			return nil, core.JoinIntegrityError("event %d (client %d): sku %v (%T) is not an integer", i, events[i].ClientID, raw, raw)
		}
		props, ok := properties.Lookup(sku)
		if !ok {
			return nil, core.JoinIntegrityError("missing sku %d in properties", sku)
		}

		ev := events[i].Clone()
		for k, v := range ev.Fields {
			if v == nil {
				return nil, core.JoinIntegrityError("event %d (client %d): null value in column %q", i, ev.ClientID, k)
			}
		}
		for _, col := range properties.columns {
			v, ok := props[col]
			if !ok || v == nil {
				return nil, core.JoinIntegrityError("sku %d: null value in property column %q", sku, col)
			}
			ev.Fields[col] = v
		}
		joined[i] = ev
	}
	return joined, nil
}
