package feature

import (
	"context"
	"errors"

	"github.com/rushteam/histfeat/core"
)

// FallbackFeatureService 是降级包装：下游找不到某个用户的特征时，
// 按 FeatureMetadata 返回全零特征，与离线计算中「没有历史事件的用户填零」一致。
// 其他错误原样返回。
type FallbackFeatureService struct {
	next core.FeatureService
	meta *FeatureMetadata
}

var _ core.FeatureService = (*FallbackFeatureService)(nil)

// NewFallbackFeatureService 创建降级特征服务
func NewFallbackFeatureService(next core.FeatureService, meta *FeatureMetadata) *FallbackFeatureService {
	return &FallbackFeatureService{next: next, meta: meta}
}

func (f *FallbackFeatureService) Name() string {
	return "fallback." + f.next.Name()
}

func (f *FallbackFeatureService) zeros() map[string]float64 {
	features := make(map[string]float64, len(f.meta.FeatureColumns))
	for _, col := range f.meta.FeatureColumns {
		features[col] = 0
	}
	return features
}

func (f *FallbackFeatureService) GetUserFeatures(ctx context.Context, clientID int64) (map[string]float64, error) {
	features, err := f.next.GetUserFeatures(ctx, clientID)
	if err != nil {
		if errors.Is(err, core.ErrFeatureNotFound) || core.IsNotFound(err) {
			return f.zeros(), nil
		}
		return nil, err
	}
	return features, nil
}

func (f *FallbackFeatureService) BatchGetUserFeatures(ctx context.Context, clientIDs []int64) (map[int64]map[string]float64, error) {
	result, err := f.next.BatchGetUserFeatures(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range clientIDs {
		if _, ok := result[id]; !ok {
			result[id] = f.zeros()
		}
	}
	return result, nil
}

func (f *FallbackFeatureService) Close(ctx context.Context) error {
	return f.next.Close(ctx)
}
