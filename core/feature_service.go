package core

import "context"

// FeatureService 是特征服务的领域接口（读取侧）。
//
// 离线任务计算出的用户特征向量写入 Store 后，线上通过此接口按用户读取。
// 返回的 map 以特征槽位名为 key（如 "product_buy.stats.d7.sku=1"）。
//
// 实现：
//   - feature.StoreFeatureProvider 实现此接口
type FeatureService interface {
	// Name 返回特征服务名称（用于日志/监控）
	Name() string

	// GetUserFeatures 获取用户特征（单个用户）
	GetUserFeatures(ctx context.Context, clientID int64) (map[string]float64, error)

	// BatchGetUserFeatures 批量获取用户特征（推荐使用，减少网络往返）
	BatchGetUserFeatures(ctx context.Context, clientIDs []int64) (map[int64]map[string]float64, error)

	// Close 关闭特征服务，释放资源
	Close(ctx context.Context) error
}

// ErrFeatureNotFound 表示用户没有已计算的特征
var ErrFeatureNotFound = NewDomainError(ModuleFeature, ErrorCodeNotFound, "feature: feature not found")
