package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/histfeat/config"
	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
	"github.com/rushteam/histfeat/store"
)

// BuildSinks 根据任务配置构建输出端。
// 返回的 core.Store（未配置时为 nil）需要调用方在任务结束后关闭。
func BuildSinks(cfg *config.JobConfig, maxDate time.Time) ([]Sink, core.Store, error) {
	var sinks []Sink
	if cfg.Output.Embeddings != "" {
		sinks = append(sinks, &EmbeddingsSink{Path: cfg.Output.Embeddings})
	}
	if cfg.Output.Metadata != "" {
		sinks = append(sinks, &MetadataSink{
			Path:      cfg.Output.Metadata,
			MaxDate:   maxDate,
			Transform: cfg.Output.Transform,
			WithStats: cfg.Output.Stats,
		})
	}
	sc := cfg.Output.Store
	if sc == nil {
		return sinks, nil, nil
	}

	serializer, err := newSerializer(sc.Serializer)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.New(sc.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	provider := feature.NewStoreFeatureProvider(s, sc.KeyPrefix, nil).
		WithSerializer(serializer).
		WithTTL(sc.TTL)
	sinks = append(sinks, &StoreSink{Provider: provider})
	return sinks, s, nil
}

func newSerializer(name string) (feature.VectorSerializer, error) {
	switch name {
	case "", "binary":
		return &feature.BinarySerializer{}, nil
	case "json":
		return &feature.JSONSerializer{}, nil
	default:
		return nil, core.InvalidInputError(core.ModuleStore, "unknown serializer %q (supported: binary, json)", name)
	}
}

// 线上读取时的缓存参数
const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = time.Minute
)

// OpenFeatureService 按任务配置打开线上读取链路：
// Store → StoreFeatureProvider → FallbackFeatureService（缺失用户返回全零）→ CachedFeatureService。
// 元数据从 output.metadata 读取，http(s) 地址走 HTTPMetadataLoader。
func OpenFeatureService(ctx context.Context, cfg *config.JobConfig) (core.FeatureService, error) {
	sc := cfg.Output.Store
	if sc == nil {
		return nil, core.InvalidInputError(core.ModuleStore, "output.store is not configured")
	}
	if cfg.Output.Metadata == "" {
		return nil, core.InvalidInputError(core.ModuleFeature, "output.metadata is not configured")
	}
	var loader feature.MetadataLoader = feature.NewFileMetadataLoader()
	if strings.HasPrefix(cfg.Output.Metadata, "http://") || strings.HasPrefix(cfg.Output.Metadata, "https://") {
		loader = feature.NewHTTPMetadataLoader(10 * time.Second)
	}
	meta, err := loader.Load(ctx, cfg.Output.Metadata)
	if err != nil {
		return nil, fmt.Errorf("load feature metadata: %w", err)
	}

	serializer, err := newSerializer(sc.Serializer)
	if err != nil {
		return nil, err
	}
	s, err := store.New(sc.Config)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	provider := feature.NewStoreFeatureProvider(s, sc.KeyPrefix, meta).WithSerializer(serializer)
	fallback := feature.NewFallbackFeatureService(provider, meta)
	return feature.NewCachedFeatureService(fallback, DefaultCacheSize, DefaultCacheTTL), nil
}
