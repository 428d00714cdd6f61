package config

import (
	"fmt"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
	"github.com/rushteam/histfeat/pkg/dsl"
)

// Calculator 是按配置构建好的计算器及其绑定信息。
type Calculator struct {
	EventType core.EventType
	Name      string
	Calc      core.Calculator
	Filter    *dsl.EventFilter // 可为 nil
}

// BuildCalculators 根据任务配置与拟合结果构建全部计算器（顺序与配置一致）。
func BuildCalculators(cfg *JobConfig, state *feature.FitState) ([]Calculator, error) {
	if err := ValidateJobConfig(cfg); err != nil {
		return nil, err
	}
	bctx := BuildContext{State: state, NumDays: cfg.NumDays}

	out := make([]Calculator, 0, len(cfg.Calculators))
	for _, cc := range cfg.Calculators {
		builder, _ := lookupBuilder(cc.Type)
		calc, err := builder(bctx, cc)
		if err != nil {
			return nil, fmt.Errorf("build calculator %s for %s: %w", cc.Type, cc.EventType, err)
		}
		built := Calculator{EventType: cc.EventType, Name: cc.DisplayName(), Calc: calc}
		if cc.Filter != "" {
			f, err := dsl.NewEventFilter(cc.Filter)
			if err != nil {
				return nil, fmt.Errorf("calculator %s.%s filter: %w", cc.EventType, built.Name, err)
			}
			built.Filter = f
		}
		out = append(out, built)
	}
	return out, nil
}

// FitConfig 汇总各计算器的拟合需求。
func (c *JobConfig) FitConfig() feature.FitConfig {
	fc := feature.FitConfig{
		TopN:    c.TopN,
		Columns: make(map[core.EventType][]string),
	}
	for _, cc := range c.Calculators {
		if fn, ok := lookupFitter(cc.Type); ok {
			fn(cc, &fc)
		}
	}
	return fc
}
