package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 接口。
//
// 示例：
//   var s core.Store = NewMemoryStore()
//   provider := feature.NewStoreFeatureProvider(s, "", meta)

import (
	"fmt"

	"github.com/rushteam/histfeat/core"
)

// Config 是输出存储的配置
type Config struct {
	Type     string `yaml:"type" json:"type"` // memory / redis
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// New 根据配置创建 Store
func New(cfg Config) (core.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		rs, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unknown store type %q", cfg.Type))
	}
}
