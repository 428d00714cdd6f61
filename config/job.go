package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/dataset"
	"github.com/rushteam/histfeat/store"
)

// JobConfig 是特征任务的配置结构（支持 YAML/JSON）。
//
// 示例：
//
//	data:
//	  input_dir: data/input
//	  target_dir: data/target
//	  properties_file: data/product_properties.parquet
//	  relevant_clients_file: data/input/relevant_clients.parquet
//	top_n: 10
//	num_days: [1, 7, 30]
//	workers: 8
//	fit_state: data/target/fit_state.yaml
//	calculators:
//	  - type: calculator.stats
//	    event_type: product_buy
//	    config:
//	      columns: [sku, category]
//	  - type: calculator.query
//	    event_type: search_query
//	    filter: "event.client_id > 0"
type JobConfig struct {
	Data        dataset.DataDir    `yaml:"data" json:"data"`
	TopN        int                `yaml:"top_n" json:"top_n"`
	NumDays     []int              `yaml:"num_days" json:"num_days"`
	Workers     int                `yaml:"workers" json:"workers"`
	FitState    string             `yaml:"fit_state" json:"fit_state"`
	Output      OutputConfig       `yaml:"output" json:"output"`
	MetricsFile string             `yaml:"metrics_file" json:"metrics_file"`
	Calculators []CalculatorConfig `yaml:"calculators" json:"calculators"`
}

// OutputConfig 描述特征输出位置
type OutputConfig struct {
	// Embeddings 特征矩阵 parquet 路径，默认 <target_dir>/embeddings.parquet
	Embeddings string `yaml:"embeddings" json:"embeddings"`
	// Metadata 特征元数据路径，默认 <target_dir>/feature_meta.json
	Metadata string `yaml:"metadata" json:"metadata"`
	// Store 线上存储，为 nil 时不写入
	Store *StoreConfig `yaml:"store" json:"store"`
	// Transform 写出前的逐值变换：none / log1p / sqrt
	Transform string `yaml:"transform" json:"transform"`
	// Stats 是否在元数据中写入各列统计
	Stats bool `yaml:"stats" json:"stats"`
}

// StoreConfig 是输出存储配置
type StoreConfig struct {
	store.Config `yaml:",inline"`
	KeyPrefix    string `yaml:"key_prefix" json:"key_prefix"`
	TTL          int    `yaml:"ttl" json:"ttl"` // 秒，0 表示不过期
	Serializer   string `yaml:"serializer" json:"serializer"` // binary / json
}

// CalculatorConfig 是单个计算器的配置。
type CalculatorConfig struct {
	Type      string         `yaml:"type" json:"type"`                         // calculator.stats / calculator.query
	EventType core.EventType `yaml:"event_type" json:"event_type"`             // 计算器读取的事件类型
	Name      string         `yaml:"name,omitempty" json:"name,omitempty"`     // 布局中的名称，默认取 type 的后缀
	Filter    string         `yaml:"filter,omitempty" json:"filter,omitempty"` // 可选的 CEL 事件过滤表达式
	Config    map[string]any `yaml:"config" json:"config"`                     // 计算器特定配置
}

// DisplayName 返回计算器在特征布局中的名称
func (c CalculatorConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if i := strings.LastIndex(c.Type, "."); i >= 0 {
		return c.Type[i+1:]
	}
	return c.Type
}

// 默认值
const (
	DefaultTopN    = 10
	DefaultWorkers = 4
)

// DefaultNumDays 是默认的统计窗口（天）
var DefaultNumDays = []int{1, 7, 30}

// Load 按扩展名加载配置：.json 使用 JSON，其余按 YAML 解析。
func Load(path string) (*JobConfig, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadFromJSON(path)
	}
	return LoadFromYAML(path)
}

// LoadFromYAML 从 YAML 文件加载任务配置。
func LoadFromYAML(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg JobConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载任务配置。
func LoadFromJSON(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg JobConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults 填充未设置的字段
func (c *JobConfig) ApplyDefaults() {
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if len(c.NumDays) == 0 {
		c.NumDays = append([]int(nil), DefaultNumDays...)
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.FitState == "" && c.Data.TargetDir != "" {
		c.FitState = filepath.Join(c.Data.TargetDir, "fit_state.yaml")
	}
	if c.Output.Embeddings == "" && c.Data.TargetDir != "" {
		c.Output.Embeddings = c.Data.TargetFile("embeddings.parquet")
	}
	if c.Output.Metadata == "" && c.Data.TargetDir != "" {
		c.Output.Metadata = c.Data.TargetFile("feature_meta.json")
	}
}

// EventTypes 返回计算器涉及的事件类型（按首次出现顺序，去重）
func (c *JobConfig) EventTypes() []core.EventType {
	seen := make(map[core.EventType]struct{})
	var out []core.EventType
	for _, cc := range c.Calculators {
		if _, ok := seen[cc.EventType]; ok {
			continue
		}
		seen[cc.EventType] = struct{}{}
		out = append(out, cc.EventType)
	}
	return out
}
