package pipeline

import (
	"context"

	"github.com/rushteam/histfeat/feature"
)

// Kind 用于标记 Sink 类型，方便观测与日志。
type Kind string

const (
	KindFile     Kind = "file"     // 离线文件：parquet 特征表
	KindMetadata Kind = "metadata" // 特征元数据
	KindStore    Kind = "store"    // 线上 KV 存储
)

// Sink 是特征矩阵的输出端。
// 一个任务可以同时写多个 Sink，按注册顺序依次执行。
type Sink interface {
	Name() string
	Kind() Kind

	Write(ctx context.Context, m *feature.Matrix) error
}
