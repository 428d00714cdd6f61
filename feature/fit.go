package feature

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/pkg/conv"
)

// FitState 是在训练数据上计算一次、之后训练与推理共用的计算器配置：
// 参考时间 MaxDate、各事件类型各列的 Top 值、以及用于确定查询向量长度的样例。
type FitState struct {
	MaxDate      time.Time                         `yaml:"max_date" json:"max_date"`
	TopN         int                               `yaml:"top_n" json:"top_n"`
	UniqueValues map[core.EventType]*UniqueValues `yaml:"unique_values" json:"unique_values"`
	QuerySample  string                            `yaml:"query_sample,omitempty" json:"query_sample,omitempty"`
	CreatedAt    time.Time                         `yaml:"created_at" json:"created_at"`
}

// FitConfig 描述要拟合的内容。
type FitConfig struct {
	// TopN 每列保留的取值个数
	TopN int
	// Columns 每种事件类型参与统计的列
	Columns map[core.EventType][]string
	// QueryColumn 查询 embedding 所在列，为空时不取样例
	QueryColumn string
}

// Fit 在训练数据上计算 FitState。MaxDate 取所有事件类型中的最大时间戳。
func Fit(events map[core.EventType][]core.Event, cfg FitConfig) (*FitState, error) {
	if cfg.TopN <= 0 {
		return nil, core.InvalidInputError(core.ModuleFeature, "top_n must be positive, got %d", cfg.TopN)
	}
	collections := make([][]core.Event, 0, len(events))
	for _, evs := range events {
		collections = append(collections, evs)
	}
	maxDate := MaxTimestamp(collections...)
	if maxDate.IsZero() {
		return nil, core.InvalidInputError(core.ModuleFeature, "cannot fit on an empty training set")
	}

	state := &FitState{
		MaxDate:      maxDate,
		TopN:         cfg.TopN,
		UniqueValues: make(map[core.EventType]*UniqueValues, len(cfg.Columns)),
		CreatedAt:    time.Now().UTC(),
	}
	for eventType, columns := range cfg.Columns {
		state.UniqueValues[eventType] = GetTopValues(events[eventType], columns, cfg.TopN)
		logrus.WithFields(logrus.Fields{
			"event_type": eventType,
			"columns":    strings.Join(columns, ","),
			"top_n":      cfg.TopN,
		}).Debug("top values selected")
	}

	if cfg.QueryColumn != "" {
		for _, ev := range events[core.EventSearchQuery] {
			raw, ok := ev.Get(cfg.QueryColumn)
			if !ok {
				continue
			}
			if s, ok := conv.ToString(raw); ok {
				state.QuerySample = s
				break
			}
		}
	}
	return state, nil
}

// SaveFitState 保存 FitState，按扩展名选择 JSON（.json）或 YAML。
func SaveFitState(path string, state *FitState) error {
	var (
		data []byte
		err  error
	)
	if filepath.Ext(path) == ".json" {
		data, err = json.MarshalIndent(state, "", "  ")
	} else {
		data, err = yaml.Marshal(state)
	}
	if err != nil {
		return fmt.Errorf("encode fit state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fit state: %w", err)
	}
	return nil
}

// LoadFitState 读取 FitState，按扩展名选择 JSON（.json）或 YAML。
func LoadFitState(path string) (*FitState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fit state: %w", err)
	}
	var state FitState
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &state)
	} else {
		err = yaml.Unmarshal(data, &state)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fit state: %w", err)
	}
	return &state, nil
}
