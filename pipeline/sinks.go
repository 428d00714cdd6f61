package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rushteam/histfeat/dataset"
	"github.com/rushteam/histfeat/feature"
)

// EmbeddingsSink 把特征矩阵写为 parquet 文件
type EmbeddingsSink struct {
	Path string
}

func (s *EmbeddingsSink) Name() string { return "embeddings:" + s.Path }
func (s *EmbeddingsSink) Kind() Kind   { return KindFile }

func (s *EmbeddingsSink) Write(ctx context.Context, m *feature.Matrix) error {
	if err := ensureDir(s.Path); err != nil {
		return err
	}
	return dataset.WriteEmbeddings(s.Path, m)
}

// MetadataSink 写出描述特征列的 FeatureMetadata
type MetadataSink struct {
	Path      string
	MaxDate   time.Time
	Transform string
	// WithStats 为 true 时写入各列统计
	WithStats bool
}

func (s *MetadataSink) Name() string { return "metadata:" + s.Path }
func (s *MetadataSink) Kind() Kind   { return KindMetadata }

func (s *MetadataSink) Write(ctx context.Context, m *feature.Matrix) error {
	if err := ensureDir(s.Path); err != nil {
		return err
	}
	meta := feature.NewFeatureMetadata(m, s.MaxDate)
	meta.Transform = s.Transform
	if s.WithStats {
		meta.Stats = feature.ComputeColumnStats(m)
	}
	return feature.SaveFeatureMetadata(s.Path, meta)
}

// StoreSink 通过 StoreFeatureProvider 把每个用户的向量写入 KV 存储
type StoreSink struct {
	Provider *feature.StoreFeatureProvider
}

func (s *StoreSink) Name() string { return s.Provider.Name() }
func (s *StoreSink) Kind() Kind   { return KindStore }

func (s *StoreSink) Write(ctx context.Context, m *feature.Matrix) error {
	return s.Provider.WriteMatrix(ctx, m)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
