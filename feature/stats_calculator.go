package feature

import (
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/histfeat/core"
)

// StatsFeaturesCalculator 计算某事件类型的统计特征：
// 在若干个时间窗口内，统计指定列取各个 Top 值的事件数。
//
// 输出布局：
//
//	[总事件数, 对每个窗口 d（外层）× 每列 c（中层）× 每个 Top 值 v（内层）: 窗口内 c == v 的事件数]
//
// 窗口是截止到 maxDate 的最近 d 天；maxDate 是整个训练集的最大时间戳，而不是单个用户的。
type StatsFeaturesCalculator struct {
	numDays []int
	maxDate time.Time
	columns []string
	unique  *UniqueValues

	// 每列「取值 → 位置」查找表，构造时生成，之后只读
	lookup []map[any]int
	size   int
}

// NewStatsFeaturesCalculator 创建统计特征计算器
//
// 参数：
//   - numDays: 时间窗口（天），顺序决定输出布局
//   - maxDate: 训练集中最新的事件时间
//   - columns: 参与统计的列，顺序决定输出布局
//   - unique: 每列选出的 Top 值
func NewStatsFeaturesCalculator(numDays []int, maxDate time.Time, columns []string, unique *UniqueValues) (*StatsFeaturesCalculator, error) {
	for _, d := range numDays {
		if d <= 0 {
			return nil, core.InvalidInputError(core.ModuleCalculator, "window length must be positive, got %d", d)
		}
	}
	if unique == nil {
		unique = NewUniqueValues()
	}
	// 只保留配置列的副本，之后调用方修改 unique 不影响布局
	unique = unique.subset(columns)
	c := &StatsFeaturesCalculator{
		numDays: append([]int(nil), numDays...),
		maxDate: maxDate,
		columns: append([]string(nil), columns...),
		unique:  unique,
		lookup:  make([]map[any]int, len(columns)),
	}
	perWindow := 0
	for i, col := range columns {
		if _, ok := unique.Get(col); !ok {
			return nil, core.InvalidInputError(core.ModuleCalculator, "no unique values for column %q", col)
		}
		c.lookup[i] = unique.indexOf(col)
		perWindow += unique.Len(col)
	}
	c.size = perWindow*len(numDays) + 1
	return c, nil
}

// FeaturesSize = Σ 每列 Top 值个数 × 窗口个数 + 1
func (c *StatsFeaturesCalculator) FeaturesSize() int {
	return c.size
}

// MaxDate 返回参考时间
func (c *StatsFeaturesCalculator) MaxDate() time.Time { return c.maxDate }

// ComputeFeatures 计算单个用户的统计特征，events 必须按时间戳升序。
func (c *StatsFeaturesCalculator) ComputeFeatures(events []core.Event) (core.FeatureVector, error) {
	if err := checkAscending(events); err != nil {
		return nil, err
	}
	features := make(core.FeatureVector, c.size)
	features[0] = float64(len(events))
	pointer := 1

	for _, days := range c.numDays {
		start := c.maxDate.Add(-time.Duration(days) * 24 * time.Hour)
		// 最左插入点：第一个时间戳 >= start 的位置
		idx := sort.Search(len(events), func(i int) bool {
			return !events[i].Timestamp.Before(start)
		})
		window := events[idx:]

		for i, col := range c.columns {
			lookup := c.lookup[i]
			block := features[pointer : pointer+len(lookup)]
			for j := range window {
				raw, ok := window[j].Get(col)
				if !ok {
					continue
				}
				v, ok := comparableValue(raw)
				if !ok {
					continue
				}
				if pos, ok := lookup[v]; ok {
					block[pos]++
				}
			}
			pointer += len(lookup)
		}
	}
	return features, nil
}

// SlotNames 返回每个槽位的名称，如 "total"、"d7.sku=1"。
func (c *StatsFeaturesCalculator) SlotNames() []string {
	names := make([]string, 0, c.size)
	names = append(names, "total")
	for _, days := range c.numDays {
		for _, col := range c.columns {
			values, _ := c.unique.Get(col)
			for _, v := range values {
				names = append(names, fmt.Sprintf("d%d.%s=%v", days, col, v))
			}
		}
	}
	return names
}
