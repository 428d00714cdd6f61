package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/histfeat/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/原型。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*entry
	ttl   map[string]time.Time
	clean *time.Ticker
	done  chan struct{}
	once  sync.Once
}

type entry struct {
	value []byte
	ttl   *time.Time
}

var _ core.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:  make(map[string]*entry),
		ttl:   make(map[string]time.Time),
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if e.ttl != nil && time.Now().After(*e.ttl) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		expire := time.Now().Add(time.Duration(ttl[0]) * time.Second)
		e.ttl = &expire
		m.ttl[key] = expire
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.ttl, key)
	return nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	now := time.Now()
	for _, k := range keys {
		e, ok := m.data[k]
		if !ok {
			continue
		}
		if e.ttl != nil && now.After(*e.ttl) {
			continue
		}
		result[k] = e.value
	}
	return result, nil
}

func (m *MemoryStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expire *time.Time
	if len(ttl) > 0 && ttl[0] > 0 {
		t := time.Now().Add(time.Duration(ttl[0]) * time.Second)
		expire = &t
	}

	for k, v := range kvs {
		e := &entry{value: v, ttl: expire}
		m.data[k] = e
		if expire != nil {
			m.ttl[k] = *expire
		}
	}
	return nil
}

// Len 返回当前保存的 key 数量（含未清理的过期 key）
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.clean.C:
			m.mu.Lock()
			now := time.Now()
			for k, expire := range m.ttl {
				if now.After(expire) {
					delete(m.data, k)
					delete(m.ttl, k)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
