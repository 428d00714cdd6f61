package feature

import (
	"strconv"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/pkg/conv"
)

// QueryFeaturesCalculator 计算 search_query 事件的查询特征：
// 用户历史中所有查询 embedding 的逐维平均值。
type QueryFeaturesCalculator struct {
	queryColumn string
	querySize   int
}

// NewQueryFeaturesCalculator 创建查询特征计算器
//
// 参数：
//   - queryColumn: 存放量化文本 embedding 字符串的列名
//   - singleQuery: 一个样例 embedding 字符串，仅用于确定向量长度
func NewQueryFeaturesCalculator(queryColumn, singleQuery string) (*QueryFeaturesCalculator, error) {
	sample, err := ParseVector(singleQuery)
	if err != nil {
		return nil, err
	}
	return &QueryFeaturesCalculator{
		queryColumn: queryColumn,
		querySize:   len(sample),
	}, nil
}

func (c *QueryFeaturesCalculator) FeaturesSize() int {
	return c.querySize
}

// ComputeFeatures 返回所有查询 embedding 的逐维均值。
// 空事件集合没有定义均值，返回 ComputationError。
func (c *QueryFeaturesCalculator) ComputeFeatures(events []core.Event) (core.FeatureVector, error) {
	if len(events) == 0 {
		return nil, core.ComputationError("cannot average query embeddings of an empty event collection")
	}
	sums := make([]float64, c.querySize)
	for i := range events {
		raw, ok := events[i].Get(c.queryColumn)
		if !ok {
			return nil, core.ComputationError("event %d has no %q value", i, c.queryColumn)
		}
		s, ok := conv.ToString(raw)
		if !ok {
			return nil, core.ComputationError("event %d: %q is %T, want string", i, c.queryColumn, raw)
		}
		vec, err := ParseVector(s)
		if err != nil {
			return nil, err
		}
		if len(vec) != c.querySize {
			return nil, core.ComputationError("event %d: embedding has %d elements, want %d", i, len(vec), c.querySize)
		}
		for j, v := range vec {
			sums[j] += float64(v)
		}
	}
	n := float64(len(events))
	features := make(core.FeatureVector, c.querySize)
	for j, s := range sums {
		features[j] = s / n
	}
	return features, nil
}

// SlotNames 返回 "0".."n-1"。
func (c *QueryFeaturesCalculator) SlotNames() []string {
	names := make([]string, c.querySize)
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}
