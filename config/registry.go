package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/histfeat/config/builders"
// 以触发内置计算器（calculator.stats、calculator.query）的 init 注册。

// BuildContext 是构建计算器时可用的上下文：拟合结果与任务级默认值。
type BuildContext struct {
	State   *feature.FitState
	NumDays []int
}

// CalculatorBuilder 根据配置构建计算器。
// 各计算器在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type CalculatorBuilder func(bctx BuildContext, cc CalculatorConfig) (core.Calculator, error)

// FitContributor 把计算器对拟合的需求（参与 Top 值统计的列、查询列）写入 FitConfig。
type FitContributor func(cc CalculatorConfig, fc *feature.FitConfig)

var (
	defaultBuilders   = make(map[string]CalculatorBuilder)
	defaultFitters    = make(map[string]FitContributor)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种计算器的构建逻辑。
// 建议在各组件的 init 中调用，例如：func init() { config.Register("calculator.stats", BuildStats) }
func Register(typeName string, builder CalculatorBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// RegisterFit 注册计算器类型的拟合需求，可选。
func RegisterFit(typeName string, fn FitContributor) {
	if typeName == "" || fn == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultFitters[typeName] = fn
}

// SupportedTypes 返回当前已注册的计算器类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func lookupBuilder(typeName string) (CalculatorBuilder, bool) {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	b, ok := defaultBuilders[typeName]
	return b, ok
}

func lookupFitter(typeName string) (FitContributor, bool) {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f, ok := defaultFitters[typeName]
	return f, ok
}

// ValidateJobConfig 校验任务配置：计算器类型均已注册、事件类型合法、
// 同一事件类型下计算器名称不重复、窗口与 top_n 为正。
func ValidateJobConfig(cfg *JobConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", cfg.TopN)
	}
	for _, d := range cfg.NumDays {
		if d <= 0 {
			return fmt.Errorf("num_days must be positive, got %d", d)
		}
	}
	if _, err := feature.NewTransform(cfg.Output.Transform); err != nil {
		return err
	}
	if len(cfg.Calculators) == 0 {
		return fmt.Errorf("no calculators configured")
	}
	supported := SupportedTypes()
	seen := make(map[string]struct{}, len(cfg.Calculators))
	for i, cc := range cfg.Calculators {
		if _, ok := lookupBuilder(cc.Type); !ok {
			return fmt.Errorf("calculators[%d]: unsupported calculator type %q (supported: %v)", i, cc.Type, supported)
		}
		if !cc.EventType.Valid() {
			return fmt.Errorf("calculators[%d]: unknown event type %q", i, cc.EventType)
		}
		key := string(cc.EventType) + "." + cc.DisplayName()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("calculators[%d]: duplicate calculator %s", i, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
