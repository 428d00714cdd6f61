package feature

import (
	"sync"
	"time"

	"github.com/rushteam/histfeat/core"
)

// Monitor 是特征计算监控接口，记录每个计算器的耗时与错误。
// 生产环境使用 metrics.PrometheusMonitor。
type Monitor interface {
	// ObserveCompute 记录一次 ComputeFeatures 的耗时
	ObserveCompute(eventType core.EventType, calculator string, d time.Duration)

	// RecordError 记录一次计算错误
	RecordError(eventType core.EventType, calculator string, err error)
}

type nopMonitor struct{}

func (nopMonitor) ObserveCompute(core.EventType, string, time.Duration) {}
func (nopMonitor) RecordError(core.EventType, string, error)            {}

// MemoryMonitor 是内存实现，用于测试和调试。
type MemoryMonitor struct {
	mu       sync.Mutex
	computed map[string]int64
	errors   map[string]int64
	total    map[string]time.Duration
}

// NewMemoryMonitor 创建内存监控
func NewMemoryMonitor() *MemoryMonitor {
	return &MemoryMonitor{
		computed: make(map[string]int64),
		errors:   make(map[string]int64),
		total:    make(map[string]time.Duration),
	}
}

func (m *MemoryMonitor) ObserveCompute(eventType core.EventType, calculator string, d time.Duration) {
	key := string(eventType) + "." + calculator
	m.mu.Lock()
	defer m.mu.Unlock()
	m.computed[key]++
	m.total[key] += d
}

func (m *MemoryMonitor) RecordError(eventType core.EventType, calculator string, err error) {
	key := string(eventType) + "." + calculator
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// Computed 返回某计算器成功计算的次数，key 形如 "product_buy.stats"
func (m *MemoryMonitor) Computed(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computed[key]
}

// Errors 返回某计算器的错误次数
func (m *MemoryMonitor) Errors(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[key]
}

// Elapsed 返回某计算器累计耗时
func (m *MemoryMonitor) Elapsed(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total[key]
}
