// Package histfeat 从用户行为事件历史计算定长特征向量（Event-History Features）。
//
// 设计要点：
// - Calculator-first: 每个事件类型挂一个或多个计算器，输出长度由配置决定，与用户无关
// - Fit once: Top 值与参考时间在训练数据上拟合一次，训练与推理共用同一份 FitState
// - Sink 可扩展: 特征矩阵可写入 parquet、元数据文件以及 Redis 等 KV 存储
package histfeat

import (
	"github.com/rushteam/histfeat/config"
	_ "github.com/rushteam/histfeat/config/builders"
	"github.com/rushteam/histfeat/feature"
	"github.com/rushteam/histfeat/pipeline"
)

// 轻量 facade：便于用户直接 import "histfeat" 使用核心抽象。
type (
	Job       = pipeline.Job
	JobConfig = config.JobConfig
	Sink      = pipeline.Sink
	Kind      = pipeline.Kind
	Matrix    = feature.Matrix
	FitState  = feature.FitState
)

const (
	KindFile     = pipeline.KindFile
	KindMetadata = pipeline.KindMetadata
	KindStore    = pipeline.KindStore
)

// LoadConfig 读取任务配置并校验，内置计算器已随本包注册。
func LoadConfig(path string) (*JobConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateJobConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewJob 按配置创建特征任务
func NewJob(cfg *JobConfig, opts ...pipeline.JobOption) *Job {
	return pipeline.NewJob(cfg, opts...)
}
