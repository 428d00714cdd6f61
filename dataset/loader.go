package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
)

// Loader 读取 DataDir 下的事件表，并为带 sku 的事件连接物品属性。
//
// 读取是一次性的：整张表物化到内存后返回。属性表在第一次需要时读取，
// 之后在同一个 Loader 内复用。
type Loader struct {
	dir    DataDir
	logger logrus.FieldLogger

	propsOnce sync.Once
	props     *feature.PropertyTable
	propsErr  error
}

// LoaderOption 是 Loader 的配置选项
type LoaderOption func(*Loader)

// WithLoaderLogger 设置日志
func WithLoaderLogger(l logrus.FieldLogger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader 创建 Loader
func NewLoader(dir DataDir, opts ...LoaderOption) *Loader {
	ld := &Loader{
		dir:    dir,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Dir 返回数据目录配置
func (l *Loader) Dir() DataDir { return l.dir }

// Load 读取某种事件类型的事件。
// page_visit 与 search_query 原样返回；其余类型与属性表按 sku 多对一连接，
// 连接失败（缺失 sku、属性为空、属性表重复）时返回 JoinIntegrityError。
func (l *Loader) Load(ctx context.Context, eventType core.EventType) ([]core.Event, error) {
	if !eventType.Valid() {
		return nil, core.InvalidInputError(core.ModuleDataset, "unknown event type %q", eventType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, err := l.readEvents(eventType)
	if err != nil {
		return nil, err
	}
	log := l.logger.WithFields(logrus.Fields{
		"event_type": eventType,
		"rows":       len(events),
	})
	if !eventType.HasItemReference() {
		log.Info("events loaded")
		return events, nil
	}

	props, err := l.LoadProperties(ctx)
	if err != nil {
		return nil, err
	}
	joined, err := feature.JoinProperties(events, props)
	if err != nil {
		return nil, fmt.Errorf("join properties to %s: %w", eventType, err)
	}
	log.WithField("properties", props.Len()).Info("events loaded with properties")
	return joined, nil
}

// LoadAll 依次读取多种事件类型
func (l *Loader) LoadAll(ctx context.Context, eventTypes ...core.EventType) (map[core.EventType][]core.Event, error) {
	out := make(map[core.EventType][]core.Event, len(eventTypes))
	for _, et := range eventTypes {
		events, err := l.Load(ctx, et)
		if err != nil {
			return nil, err
		}
		out[et] = events
	}
	return out, nil
}

// LoadProperties 读取物品属性表（每个 Loader 只读一次）
func (l *Loader) LoadProperties(ctx context.Context) (*feature.PropertyTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.propsOnce.Do(func() {
		rows, err := parquet.ReadFile[PropertyRow](l.dir.PropertiesFile)
		if err != nil {
			l.propsErr = fmt.Errorf("read properties %s: %w", l.dir.PropertiesFile, err)
			return
		}
		tableRows := make([]feature.PropertyRow, len(rows))
		for i, r := range rows {
			tableRows[i] = feature.PropertyRow{SKU: r.SKU, Fields: r.fields()}
		}
		l.props, l.propsErr = feature.NewPropertyTable(PropertyColumns, tableRows)
	})
	return l.props, l.propsErr
}

// LoadRelevantClients 读取需要计算特征的用户列表
func (l *Loader) LoadRelevantClients(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.dir.RelevantClientsFile == "" {
		return nil, core.InvalidInputError(core.ModuleDataset, "relevant clients file is not configured")
	}
	rows, err := parquet.ReadFile[ClientRow](l.dir.RelevantClientsFile)
	if err != nil {
		return nil, fmt.Errorf("read relevant clients %s: %w", l.dir.RelevantClientsFile, err)
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ClientID
	}
	l.logger.WithField("clients", len(ids)).Info("relevant clients loaded")
	return ids, nil
}

func (l *Loader) readEvents(eventType core.EventType) ([]core.Event, error) {
	path := l.dir.EventFile(eventType)
	switch eventType {
	case core.EventPageVisit:
		return readRows(path, PageVisitRow.toEvent)
	case core.EventSearchQuery:
		return readRows(path, SearchQueryRow.toEvent)
	default:
		return readRows(path, ProductEventRow.toEvent)
	}
}

func readRows[T any](path string, toEvent func(T) core.Event) ([]core.Event, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	events := make([]core.Event, len(rows))
	for i, r := range rows {
		events[i] = toEvent(r)
	}
	return events, nil
}

// WriteEvents 把事件写成 parquet 事件表，列按事件类型选择。
// 主要用于生成样例数据与测试夹具。
func WriteEvents(path string, eventType core.EventType, events []core.Event) error {
	switch eventType {
	case core.EventPageVisit:
		rows := make([]PageVisitRow, len(events))
		for i := range events {
			url, _ := events[i].Get("url")
			rows[i] = PageVisitRow{ClientID: events[i].ClientID, Timestamp: events[i].Timestamp, URL: toInt64(url)}
		}
		return parquet.WriteFile(path, rows)
	case core.EventSearchQuery:
		rows := make([]SearchQueryRow, len(events))
		for i := range events {
			q, _ := events[i].Get("query")
			s, _ := q.(string)
			rows[i] = SearchQueryRow{ClientID: events[i].ClientID, Timestamp: events[i].Timestamp, Query: s}
		}
		return parquet.WriteFile(path, rows)
	default:
		rows := make([]ProductEventRow, len(events))
		for i := range events {
			rows[i] = ProductEventRow{ClientID: events[i].ClientID, Timestamp: events[i].Timestamp}
			if v, ok := events[i].Get(core.ColumnSKU); ok {
				sku := toInt64(v)
				rows[i].SKU = &sku
			}
		}
		return parquet.WriteFile(path, rows)
	}
}

// WriteProperties 写物品属性表
func WriteProperties(path string, rows []PropertyRow) error {
	return parquet.WriteFile(path, rows)
}

// WriteClients 写用户列表
func WriteClients(path string, ids []int64) error {
	rows := make([]ClientRow, len(ids))
	for i, id := range ids {
		rows[i] = ClientRow{ClientID: id}
	}
	return parquet.WriteFile(path, rows)
}
