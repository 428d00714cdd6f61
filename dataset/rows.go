package dataset

import (
	"time"

	"github.com/rushteam/histfeat/core"
)

// 事件表行结构，字段名与 parquet 列名一致。

// ProductEventRow 对应 product_buy / add_to_cart / remove_from_cart
type ProductEventRow struct {
	ClientID  int64     `parquet:"client_id"`
	Timestamp time.Time `parquet:"timestamp,timestamp(microsecond)"`
	SKU       *int64    `parquet:"sku,optional"`
}

// PageVisitRow 对应 page_visit
type PageVisitRow struct {
	ClientID  int64     `parquet:"client_id"`
	Timestamp time.Time `parquet:"timestamp,timestamp(microsecond)"`
	URL       int64     `parquet:"url"`
}

// SearchQueryRow 对应 search_query，Query 是形如 "[12 0 255]" 的 embedding 字符串
type SearchQueryRow struct {
	ClientID  int64     `parquet:"client_id"`
	Timestamp time.Time `parquet:"timestamp,timestamp(microsecond)"`
	Query     string    `parquet:"query"`
}

// PropertyRow 物品属性表的一行，空值用 nil 表示
type PropertyRow struct {
	SKU      int64   `parquet:"sku"`
	Category *int64  `parquet:"category,optional"`
	Price    *int64  `parquet:"price,optional"`
	Name     *string `parquet:"name,optional"`
}

// ClientRow 用户列表的一行
type ClientRow struct {
	ClientID int64 `parquet:"client_id"`
}

// PropertyColumns 是属性表除 sku 外的列
var PropertyColumns = []string{"category", "price", "name"}

func (r ProductEventRow) toEvent() core.Event {
	ev := core.Event{ClientID: r.ClientID, Timestamp: r.Timestamp.UTC(), Fields: map[string]any{}}
	if r.SKU != nil {
		ev.Fields[core.ColumnSKU] = *r.SKU
	} else {
		ev.Fields[core.ColumnSKU] = nil
	}
	return ev
}

func (r PageVisitRow) toEvent() core.Event {
	return core.Event{
		ClientID:  r.ClientID,
		Timestamp: r.Timestamp.UTC(),
		Fields:    map[string]any{"url": r.URL},
	}
}

func (r SearchQueryRow) toEvent() core.Event {
	return core.Event{
		ClientID:  r.ClientID,
		Timestamp: r.Timestamp.UTC(),
		Fields:    map[string]any{"query": r.Query},
	}
}

func (r PropertyRow) fields() map[string]any {
	fields := make(map[string]any, len(PropertyColumns))
	fields["category"] = derefOrNil(r.Category)
	fields["price"] = derefOrNil(r.Price)
	fields["name"] = derefOrNil(r.Name)
	return fields
}

func derefOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
