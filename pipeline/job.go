package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rushteam/histfeat/config"
	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/dataset"
	"github.com/rushteam/histfeat/feature"
)

// EventsRecorder 是可选接口：监控实现可以记录每种事件类型加载的行数。
type EventsRecorder interface {
	SetEventsLoaded(eventType core.EventType, n int)
}

// Job 串起一次特征任务：加载 → 连接属性 → 拟合/计算 → 输出。
type Job struct {
	cfg      *config.JobConfig
	loader   *dataset.Loader
	monitor  feature.Monitor
	logger   logrus.FieldLogger
	progress func(total int) func(done int)
}

// JobOption 是 Job 的配置选项
type JobOption func(*Job)

// WithJobMonitor 设置计算监控
func WithJobMonitor(m feature.Monitor) JobOption {
	return func(j *Job) { j.monitor = m }
}

// WithJobLogger 设置日志
func WithJobLogger(l logrus.FieldLogger) JobOption {
	return func(j *Job) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithJobProgress 设置进度回调工厂：拿到用户总数后返回每完成一个用户调用的函数。
func WithJobProgress(fn func(total int) func(done int)) JobOption {
	return func(j *Job) { j.progress = fn }
}

// NewJob 创建任务
func NewJob(cfg *config.JobConfig, opts ...JobOption) *Job {
	j := &Job{
		cfg:    cfg,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.loader = dataset.NewLoader(cfg.Data, dataset.WithLoaderLogger(j.logger))
	return j
}

func (j *Job) loadEvents(ctx context.Context) (map[core.EventType][]core.Event, error) {
	events, err := j.loader.LoadAll(ctx, j.cfg.EventTypes()...)
	if err != nil {
		return nil, err
	}
	if rec, ok := j.monitor.(EventsRecorder); ok {
		for et, evs := range events {
			rec.SetEventsLoaded(et, len(evs))
		}
	}
	return events, nil
}

// Fit 在训练数据上计算 FitState，并写入 cfg.FitState（若配置了路径）。
func (j *Job) Fit(ctx context.Context) (*feature.FitState, error) {
	if err := config.ValidateJobConfig(j.cfg); err != nil {
		return nil, err
	}
	events, err := j.loadEvents(ctx)
	if err != nil {
		return nil, err
	}
	state, err := feature.Fit(events, j.cfg.FitConfig())
	if err != nil {
		return nil, err
	}
	if j.cfg.FitState != "" {
		if err := os.MkdirAll(filepath.Dir(j.cfg.FitState), 0o755); err != nil {
			return nil, fmt.Errorf("create fit state dir: %w", err)
		}
		if err := feature.SaveFitState(j.cfg.FitState, state); err != nil {
			return nil, err
		}
	}
	j.logger.WithFields(logrus.Fields{
		"max_date":  state.MaxDate.Format(time.RFC3339),
		"top_n":     state.TopN,
		"fit_state": j.cfg.FitState,
	}).Info("fit state computed")
	return state, nil
}

// Generate 使用已拟合的 state 计算特征矩阵，并写入配置的全部输出端。
// state 为 nil 时从 cfg.FitState 读取。
func (j *Job) Generate(ctx context.Context, state *feature.FitState) (*feature.Matrix, error) {
	if state == nil {
		if j.cfg.FitState == "" {
			return nil, core.InvalidInputError(core.ModuleFeature, "no fit state given and fit_state path is empty")
		}
		loaded, err := feature.LoadFitState(j.cfg.FitState)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	transform, err := feature.NewTransform(j.cfg.Output.Transform)
	if err != nil {
		return nil, err
	}
	m, err := j.Compute(ctx, state)
	if err != nil {
		return nil, err
	}
	if transform != nil {
		feature.ApplyTransform(m, transform)
		j.logger.WithField("transform", transform.Name()).Info("transform applied")
	}

	sinks, s, err := BuildSinks(j.cfg, state.MaxDate)
	if err != nil {
		return nil, err
	}
	if s != nil {
		defer s.Close()
	}
	p := &Pipeline{Sinks: sinks, Logger: j.logger}
	if err := p.Run(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Compute 只计算特征矩阵，不写输出。
func (j *Job) Compute(ctx context.Context, state *feature.FitState) (*feature.Matrix, error) {
	calcs, err := config.BuildCalculators(j.cfg, state)
	if err != nil {
		return nil, err
	}
	events, err := j.loadEvents(ctx)
	if err != nil {
		return nil, err
	}

	aggOpts := []feature.AggregatorOption{
		feature.WithWorkers(j.cfg.Workers),
		feature.WithLogger(j.logger),
	}
	if j.monitor != nil {
		aggOpts = append(aggOpts, feature.WithMonitor(j.monitor))
	}

	clients, err := j.clients(ctx, events)
	if err != nil {
		return nil, err
	}
	if j.progress != nil {
		aggOpts = append(aggOpts, feature.WithProgress(j.progress(len(clients))))
	}

	agg := feature.NewFeaturesAggregator(aggOpts...)
	for _, c := range calcs {
		evs := events[c.EventType]
		if c.Filter != nil {
			filtered, err := c.Filter.Apply(evs)
			if err != nil {
				return nil, fmt.Errorf("filter %s.%s: %w", c.EventType, c.Name, err)
			}
			j.logger.WithFields(logrus.Fields{
				"event_type": c.EventType,
				"calculator": c.Name,
				"filter":     c.Filter.String(),
				"kept":       len(filtered),
				"total":      len(evs),
			}).Debug("events filtered")
			evs = filtered
		}
		if err := agg.Add(c.EventType, c.Name, c.Calc, evs); err != nil {
			return nil, err
		}
	}
	return agg.GenerateFeatures(ctx, clients)
}

// clients 返回需要计算特征的用户：配置了 relevant clients 文件时读取它，
// 否则取所有事件中出现过的用户。
func (j *Job) clients(ctx context.Context, events map[core.EventType][]core.Event) ([]int64, error) {
	if j.cfg.Data.RelevantClientsFile != "" {
		return j.loader.LoadRelevantClients(ctx)
	}
	collections := make([][]core.Event, 0, len(events))
	for _, evs := range events {
		collections = append(collections, evs)
	}
	return feature.ClientIDs(collections...), nil
}
