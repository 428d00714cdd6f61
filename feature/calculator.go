package feature

import (
	"github.com/rushteam/histfeat/core"
)

// Calculator 与 core.Calculator 一致，便于直接 import feature 使用。
type Calculator = core.Calculator

var (
	_ Calculator = (*QueryFeaturesCalculator)(nil)
	_ Calculator = (*StatsFeaturesCalculator)(nil)
)

// LayoutNamer 是可选接口：计算器为输出向量的每个槽位提供名称，
// 用于特征元数据和按名读取特征。
type LayoutNamer interface {
	SlotNames() []string
}

// ZeroVector 返回计算器对应长度的全零向量。
func ZeroVector(c Calculator) core.FeatureVector {
	return make(core.FeatureVector, c.FeaturesSize())
}

// checkAscending 校验事件按时间戳升序（允许相等），窗口切分依赖该顺序。
func checkAscending(events []core.Event) error {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			return core.ComputationError("events are not sorted by timestamp: index %d (%s) is before index %d (%s)",
				i, events[i].Timestamp.Format("2006-01-02T15:04:05"), i-1, events[i-1].Timestamp.Format("2006-01-02T15:04:05"))
		}
	}
	return nil
}
