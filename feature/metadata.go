package feature

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rushteam/histfeat/core"
)

// FeatureMetadata 特征元数据，对应输出目录下的 feature_meta.json，
// 描述特征矩阵每一列的含义，供下游模型和线上读取使用。
type FeatureMetadata struct {
	// FeatureColumns 特征列名列表（按顺序）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// ClientCount 计算了特征的用户数
	ClientCount int `json:"client_count"`
	// MaxDate 统计窗口的参考时间
	MaxDate time.Time `json:"max_date"`
	// Transform 写出前对特征做的变换（log1p / sqrt），为空表示原始值
	Transform string `json:"transform,omitempty"`
	// Stats 各列的分布统计，顺序与 FeatureColumns 一致
	Stats []ColumnStats `json:"stats,omitempty"`
	// CreatedAt 创建时间
	CreatedAt time.Time `json:"created_at"`
}

// NewFeatureMetadata 由特征矩阵构建元数据
func NewFeatureMetadata(m *Matrix, maxDate time.Time) *FeatureMetadata {
	return &FeatureMetadata{
		FeatureColumns: append([]string(nil), m.Columns...),
		FeatureCount:   len(m.Columns),
		ClientCount:    len(m.ClientIDs),
		MaxDate:        maxDate,
		CreatedAt:      time.Now().UTC(),
	}
}

// SaveFeatureMetadata 写入 JSON 文件
func SaveFeatureMetadata(path string, meta *FeatureMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("编码特征元数据失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入特征元数据文件失败: %w", err)
	}
	return nil
}

// LoadFeatureMetadata 从文件加载特征元数据
//
// 用法：
//
//	meta, err := feature.LoadFeatureMetadata("output/feature_meta.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	named, err := meta.NamedFeatures(vector)
func LoadFeatureMetadata(path string) (*FeatureMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取特征元数据文件失败: %w", err)
	}

	var meta FeatureMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("解析特征元数据失败: %w", err)
	}
	if meta.FeatureCount != len(meta.FeatureColumns) {
		return nil, core.InvalidInputError(core.ModuleFeature, "feature_count %d does not match %d feature_columns", meta.FeatureCount, len(meta.FeatureColumns))
	}
	return &meta, nil
}

// NamedFeatures 按 feature_columns 把向量转为 map。长度不一致返回错误。
func (m *FeatureMetadata) NamedFeatures(vector core.FeatureVector) (map[string]float64, error) {
	if len(vector) != len(m.FeatureColumns) {
		return nil, core.InvalidInputError(core.ModuleFeature, "vector has %d features, metadata describes %d", len(vector), len(m.FeatureColumns))
	}
	named := make(map[string]float64, len(vector))
	for i, col := range m.FeatureColumns {
		named[col] = vector[i]
	}
	return named, nil
}
