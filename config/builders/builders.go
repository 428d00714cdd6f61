package builders

import (
	"fmt"

	"github.com/rushteam/histfeat/config"
	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
	"github.com/rushteam/histfeat/pkg/conv"
)

func init() {
	config.Register("calculator.stats", BuildStatsCalculator)
	config.RegisterFit("calculator.stats", FitStatsColumns)
	config.Register("calculator.query", BuildQueryCalculator)
	config.RegisterFit("calculator.query", FitQueryColumn)
}

// DefaultQueryColumn 是 search_query 表中 embedding 所在列
const DefaultQueryColumn = "query"

// BuildStatsCalculator 构建统计计算器。
//
// 配置：
//
//	columns: [sku, category]  # 必填
//	num_days: [1, 7]          # 可选，默认使用任务级 num_days
func BuildStatsCalculator(bctx config.BuildContext, cc config.CalculatorConfig) (core.Calculator, error) {
	if bctx.State == nil {
		return nil, fmt.Errorf("calculator.stats requires a fit state")
	}
	columns := conv.SliceAnyToString(cc.Config["columns"])
	if len(columns) == 0 {
		return nil, fmt.Errorf("columns not found or invalid")
	}
	numDays := conv.SliceAnyToInt(cc.Config["num_days"])
	if len(numDays) == 0 {
		numDays = bctx.NumDays
	}
	unique, ok := bctx.State.UniqueValues[cc.EventType]
	if !ok {
		return nil, fmt.Errorf("fit state has no top values for %s", cc.EventType)
	}
	return feature.NewStatsFeaturesCalculator(numDays, bctx.State.MaxDate, columns, unique)
}

// FitStatsColumns 声明统计计算器需要拟合 Top 值的列
func FitStatsColumns(cc config.CalculatorConfig, fc *feature.FitConfig) {
	columns := conv.SliceAnyToString(cc.Config["columns"])
	existing := fc.Columns[cc.EventType]
	for _, col := range columns {
		if !contains(existing, col) {
			existing = append(existing, col)
		}
	}
	fc.Columns[cc.EventType] = existing
}

// BuildQueryCalculator 构建查询 embedding 均值计算器。
//
// 配置：
//
//	query_column: query   # 可选
//	single_query: "[0 0 0]" # 可选，默认使用拟合时记录的样例
func BuildQueryCalculator(bctx config.BuildContext, cc config.CalculatorConfig) (core.Calculator, error) {
	column := conv.ConfigGet(cc.Config, "query_column", DefaultQueryColumn)
	sample := conv.ConfigGet(cc.Config, "single_query", "")
	if sample == "" && bctx.State != nil {
		sample = bctx.State.QuerySample
	}
	if sample == "" {
		return nil, fmt.Errorf("single_query not configured and fit state has no query sample")
	}
	return feature.NewQueryFeaturesCalculator(column, sample)
}

// FitQueryColumn 声明需要记录查询样例的列
func FitQueryColumn(cc config.CalculatorConfig, fc *feature.FitConfig) {
	fc.QueryColumn = conv.ConfigGet(cc.Config, "query_column", DefaultQueryColumn)
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
