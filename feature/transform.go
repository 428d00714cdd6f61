package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/histfeat/core"
)

// Transform 是对特征矩阵逐值做的变换。
// 计数类特征呈长尾分布，写出前可以选择压缩大值。
type Transform interface {
	Name() string
	Value(v float64) float64
}

// 支持的变换名称
const (
	TransformNone = "none"
	TransformLog  = "log1p"
	TransformSqrt = "sqrt"
)

// LogTransform x' = log(x + 1)，负值记为 0
type LogTransform struct{}

func (LogTransform) Name() string { return TransformLog }

func (LogTransform) Value(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Log1p(v)
}

// SqrtTransform x' = sqrt(x)，比 log 更温和
type SqrtTransform struct{}

func (SqrtTransform) Name() string { return TransformSqrt }

func (SqrtTransform) Value(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// NewTransform 按名称创建变换，"" 与 "none" 返回 nil。
func NewTransform(name string) (Transform, error) {
	switch name {
	case "", TransformNone:
		return nil, nil
	case TransformLog:
		return LogTransform{}, nil
	case TransformSqrt:
		return SqrtTransform{}, nil
	default:
		return nil, core.InvalidInputError(core.ModuleFeature, "unknown transform %q (supported: none, log1p, sqrt)", name)
	}
}

// ApplyTransform 原地变换矩阵中的每个值，t 为 nil 时不做任何事。
func ApplyTransform(m *Matrix, t Transform) {
	if t == nil {
		return
	}
	for _, row := range m.Rows {
		for i, v := range row {
			row[i] = t.Value(v)
		}
	}
}

// ColumnStats 是单列特征的分布统计，写入 FeatureMetadata 供下游做标准化。
type ColumnStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// ComputeColumnStats 按列计算统计信息，顺序与 m.Columns 一致。空矩阵返回 nil。
func ComputeColumnStats(m *Matrix) []ColumnStats {
	if len(m.Rows) == 0 {
		return nil
	}
	stats := make([]ColumnStats, len(m.Columns))
	values := make([]float64, len(m.Rows))
	for c := range m.Columns {
		for r, row := range m.Rows {
			values[r] = row[c]
		}
		stats[c] = computeStats(values)
	}
	return stats
}

func computeStats(values []float64) ColumnStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean, std := stat.PopMeanStdDev(sorted, nil)
	return ColumnStats{
		Mean:   mean,
		Std:    std,
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		P95:    stat.Quantile(0.95, stat.LinInterp, sorted, nil),
	}
}
