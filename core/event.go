package core

import "time"

// EventType 是用户行为事件类型，每种类型对应一张原始事件表。
type EventType string

const (
	EventProductBuy     EventType = "product_buy"
	EventAddToCart      EventType = "add_to_cart"
	EventRemoveFromCart EventType = "remove_from_cart"
	EventPageVisit      EventType = "page_visit"
	EventSearchQuery    EventType = "search_query"
)

// 保留列名
const (
	ColumnClientID  = "client_id"
	ColumnTimestamp = "timestamp"
	ColumnSKU       = "sku"
)

// ExcludedEventTypes 是不携带物品引用（sku）的事件类型，加载时不与属性表连接。
// 这是固定枚举，不根据表结构推断。
var ExcludedEventTypes = map[EventType]struct{}{
	EventPageVisit:   {},
	EventSearchQuery: {},
}

// AllEventTypes 返回全部事件类型（固定顺序）。
func AllEventTypes() []EventType {
	return []EventType{
		EventProductBuy,
		EventAddToCart,
		EventRemoveFromCart,
		EventPageVisit,
		EventSearchQuery,
	}
}

// HasItemReference 判断该事件类型是否需要连接物品属性。
func (t EventType) HasItemReference() bool {
	_, excluded := ExcludedEventTypes[t]
	return !excluded
}

// Valid 判断是否为已知事件类型。
func (t EventType) Valid() bool {
	for _, et := range AllEventTypes() {
		if et == t {
			return true
		}
	}
	return false
}

func (t EventType) String() string { return string(t) }

// Event 是一条带时间戳、带属性的用户行为记录。
// Fields 保存事件类型相关的列（sku、category、price、url、query 等）。
type Event struct {
	ClientID  int64
	Timestamp time.Time
	Fields    map[string]any
}

// Get 按列名读取值；client_id 与 timestamp 也可作为列访问。
// 值为 nil 视为缺失。
func (e *Event) Get(column string) (any, bool) {
	switch column {
	case ColumnClientID:
		return e.ClientID, true
	case ColumnTimestamp:
		return e.Timestamp, true
	}
	if e.Fields == nil {
		return nil, false
	}
	v, ok := e.Fields[column]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone 复制事件（Fields 浅拷贝一层）。
func (e Event) Clone() Event {
	out := Event{ClientID: e.ClientID, Timestamp: e.Timestamp}
	out.Fields = make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	return out
}
