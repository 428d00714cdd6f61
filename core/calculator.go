package core

// FeatureVector 是定长数值特征向量，长度完全由计算器配置决定。
type FeatureVector []float64

// EmbeddingInt 是量化 embedding 元素的整数类型，整个部署内保持不变。
type EmbeddingInt = int32

// IntVector 是由向量字符串解析得到的整数向量。
type IntVector []EmbeddingInt

// Calculator 是特征计算器的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由 feature 包实现
//   - ComputeFeatures 不修改计算器状态，同一计算器可以被多个 goroutine 并发调用
//
// 约定：
//   - FeaturesSize 在构造后不再变化，调用方用它预分配存储、校验配置
//   - ComputeFeatures 的输入是单个用户、单一事件类型、按时间升序的事件集合，
//     输出长度恰好为 FeaturesSize
type Calculator interface {
	// FeaturesSize 返回输出向量长度
	FeaturesSize() int

	// ComputeFeatures 计算单个事件集合的特征向量
	ComputeFeatures(events []Event) (FeatureVector, error)
}
