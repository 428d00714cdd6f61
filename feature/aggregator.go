package feature

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/histfeat/core"
)

// FeaturesAggregator 把多个计算器的输出拼接成模型可用的特征矩阵。
//
// 每个计算器绑定一种事件类型及其事件集合；Add 的顺序决定拼接布局。
// 某个用户没有该事件类型的事件时，对应区段填零。
// 计算器本身无状态，按用户并发计算，每个 goroutine 只写自己的行。
type FeaturesAggregator struct {
	entries  []*aggregatorEntry
	size     int
	workers  int
	monitor  Monitor
	progress func(done int)
	logger   logrus.FieldLogger
}

type aggregatorEntry struct {
	eventType core.EventType
	name      string
	calc      Calculator
	groups    map[int64][]core.Event
	offset    int
}

// AggregatorOption 是聚合器的配置选项，采用函数式选项模式。
type AggregatorOption func(*FeaturesAggregator)

// WithWorkers 设置并发数（<= 0 表示不限制）
func WithWorkers(n int) AggregatorOption {
	return func(a *FeaturesAggregator) {
		a.workers = n
	}
}

// WithMonitor 启用监控
func WithMonitor(m Monitor) AggregatorOption {
	return func(a *FeaturesAggregator) {
		if m != nil {
			a.monitor = m
		}
	}
}

// WithProgress 设置进度回调，每完成一个用户调用一次（可能来自多个 goroutine）
func WithProgress(fn func(done int)) AggregatorOption {
	return func(a *FeaturesAggregator) {
		a.progress = fn
	}
}

// WithLogger 设置日志
func WithLogger(l logrus.FieldLogger) AggregatorOption {
	return func(a *FeaturesAggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewFeaturesAggregator 创建聚合器
func NewFeaturesAggregator(opts ...AggregatorOption) *FeaturesAggregator {
	a := &FeaturesAggregator{
		workers: 1,
		monitor: nopMonitor{},
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add 注册计算器及其事件集合。events 会按用户分组并按时间排序。
func (a *FeaturesAggregator) Add(eventType core.EventType, name string, calc Calculator, events []core.Event) error {
	if calc == nil {
		return core.InvalidInputError(core.ModuleFeature, "nil calculator for %s", eventType)
	}
	for _, e := range a.entries {
		if e.eventType == eventType && e.name == name {
			return core.InvalidInputError(core.ModuleFeature, "calculator %s.%s already added", eventType, name)
		}
	}
	entry := &aggregatorEntry{
		eventType: eventType,
		name:      name,
		calc:      calc,
		groups:    GroupByClient(events),
		offset:    a.size,
	}
	a.entries = append(a.entries, entry)
	a.size += calc.FeaturesSize()

	a.logger.WithFields(logrus.Fields{
		"event_type":    eventType,
		"calculator":    name,
		"events":        len(events),
		"clients":       len(entry.groups),
		"features_size": calc.FeaturesSize(),
	}).Debug("calculator added")
	return nil
}

// FeaturesSize 返回拼接后的向量长度
func (a *FeaturesAggregator) FeaturesSize() int {
	return a.size
}

// Layout 返回每个槽位的名称，形如 "<event_type>.<calculator>.<slot>"。
func (a *FeaturesAggregator) Layout() []string {
	names := make([]string, 0, a.size)
	for _, e := range a.entries {
		prefix := string(e.eventType) + "." + e.name + "."
		if namer, ok := e.calc.(LayoutNamer); ok {
			for _, n := range namer.SlotNames() {
				names = append(names, prefix+n)
			}
			continue
		}
		for i := 0; i < e.calc.FeaturesSize(); i++ {
			names = append(names, prefix+strconv.Itoa(i))
		}
	}
	return names
}

// ClientIDs 返回所有已注册事件中出现过的用户（升序）。
func (a *FeaturesAggregator) ClientIDs() []int64 {
	seen := make(map[int64]struct{})
	for _, e := range a.entries {
		for id := range e.groups {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Matrix 是按用户排列的特征矩阵，Rows[i] 对应 ClientIDs[i]。
type Matrix struct {
	ClientIDs []int64
	Rows      []core.FeatureVector
	Columns   []string
}

// GenerateFeatures 为给定用户计算拼接后的特征向量。
// 任一计算器出错时整批失败，不返回部分结果。
func (a *FeaturesAggregator) GenerateFeatures(ctx context.Context, clientIDs []int64) (*Matrix, error) {
	m := &Matrix{
		ClientIDs: append([]int64(nil), clientIDs...),
		Rows:      make([]core.FeatureVector, len(clientIDs)),
		Columns:   a.Layout(),
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		eg.SetLimit(a.workers)
	}

	var done atomic.Int64
	started := time.Now()
	for i, id := range clientIDs {
		i, id := i, id
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			row, err := a.computeRow(id)
			if err != nil {
				return err
			}
			m.Rows[i] = row
			if a.progress != nil {
				a.progress(int(done.Add(1)))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"clients":       len(clientIDs),
		"features_size": a.size,
		"elapsed":       time.Since(started).String(),
	}).Info("features generated")
	return m, nil
}

// computeRow 计算单个用户的拼接向量
func (a *FeaturesAggregator) computeRow(clientID int64) (core.FeatureVector, error) {
	row := make(core.FeatureVector, a.size)
	for _, e := range a.entries {
		events := e.groups[clientID]
		if len(events) == 0 {
			// 没有该类型事件的用户保持全零
			continue
		}
		start := time.Now()
		vec, err := e.calc.ComputeFeatures(events)
		if err != nil {
			a.monitor.RecordError(e.eventType, e.name, err)
			return nil, fmt.Errorf("client %d: %s.%s: %w", clientID, e.eventType, e.name, err)
		}
		if len(vec) != e.calc.FeaturesSize() {
			err := core.ComputationError("%s.%s returned %d features, want %d", e.eventType, e.name, len(vec), e.calc.FeaturesSize())
			a.monitor.RecordError(e.eventType, e.name, err)
			return nil, err
		}
		copy(row[e.offset:], vec)
		a.monitor.ObserveCompute(e.eventType, e.name, time.Since(start))
	}
	return row, nil
}
