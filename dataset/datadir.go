package dataset

import (
	"path/filepath"

	"github.com/rushteam/histfeat/core"
)

// DataDir 描述原始数据与输出目录的位置。
type DataDir struct {
	// InputDir 存放 <event_type>.parquet 事件表
	InputDir string `yaml:"input_dir" json:"input_dir"`
	// TargetDir 特征输出目录
	TargetDir string `yaml:"target_dir" json:"target_dir"`
	// PropertiesFile 物品属性表
	PropertiesFile string `yaml:"properties_file" json:"properties_file"`
	// RelevantClientsFile 需要计算特征的用户列表，可为空
	RelevantClientsFile string `yaml:"relevant_clients_file" json:"relevant_clients_file"`
}

// NewDataDir 按默认布局创建 DataDir：
//
//	<root>/input/<event_type>.parquet
//	<root>/input/relevant_clients.parquet
//	<root>/product_properties.parquet
//	<root>/target/
func NewDataDir(root string) DataDir {
	input := filepath.Join(root, "input")
	return DataDir{
		InputDir:            input,
		TargetDir:           filepath.Join(root, "target"),
		PropertiesFile:      filepath.Join(root, "product_properties.parquet"),
		RelevantClientsFile: filepath.Join(input, "relevant_clients.parquet"),
	}
}

// EventFile 返回事件类型对应的 parquet 文件路径
func (d DataDir) EventFile(eventType core.EventType) string {
	return filepath.Join(d.InputDir, string(eventType)+".parquet")
}

// TargetFile 返回输出目录下的文件路径
func (d DataDir) TargetFile(name string) string {
	return filepath.Join(d.TargetDir, name)
}
