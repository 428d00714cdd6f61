package feature

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/histfeat/core"
)

// CachedFeatureService 在任意 core.FeatureService 前加一层内存缓存，采用 TTL + LRU 策略。
// 用于线上读取，减少对 Redis 等远程存储的访问。未命中（ErrFeatureNotFound）不缓存。
type CachedFeatureService struct {
	next core.FeatureService

	mu          sync.Mutex
	entries     map[int64]*cacheEntry
	maxSize     int
	ttl         time.Duration
	stopCleanup chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

type cacheEntry struct {
	features   map[string]float64
	expireTime time.Time
	accessTime time.Time
}

var _ core.FeatureService = (*CachedFeatureService)(nil)

// NewCachedFeatureService 创建带缓存的特征服务
//
// 参数：
//   - next: 被缓存的特征服务
//   - maxSize: 最多缓存的用户数
//   - ttl: 缓存有效期
func NewCachedFeatureService(next core.FeatureService, maxSize int, ttl time.Duration) *CachedFeatureService {
	if maxSize <= 0 {
		maxSize = 10000
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &CachedFeatureService{
		next:        next,
		entries:     make(map[int64]*cacheEntry),
		maxSize:     maxSize,
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}
	go c.cleanup(time.Minute)
	return c
}

func (c *CachedFeatureService) Name() string {
	return "cached." + c.next.Name()
}

func (c *CachedFeatureService) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *CachedFeatureService) cleanExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.entries {
		if now.After(entry.expireTime) {
			delete(c.entries, id)
		}
	}
}

// evictLRU 删除最久未访问的条目，调用方持有锁
func (c *CachedFeatureService) evictLRU() {
	var oldestKey int64
	var oldestTime time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.accessTime.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.accessTime
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

func (c *CachedFeatureService) get(clientID int64) (map[string]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[clientID]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.After(entry.expireTime) {
		delete(c.entries, clientID)
		return nil, false
	}
	entry.accessTime = now
	return entry.features, true
}

func (c *CachedFeatureService) set(clientID int64, features map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[clientID]; !exists && len(c.entries) >= c.maxSize {
		c.evictLRU()
	}
	now := c.now()
	c.entries[clientID] = &cacheEntry{
		features:   features,
		expireTime: now.Add(c.ttl),
		accessTime: now,
	}
}

func (c *CachedFeatureService) GetUserFeatures(ctx context.Context, clientID int64) (map[string]float64, error) {
	if features, ok := c.get(clientID); ok {
		return features, nil
	}
	features, err := c.next.GetUserFeatures(ctx, clientID)
	if err != nil {
		return nil, err
	}
	c.set(clientID, features)
	return features, nil
}

func (c *CachedFeatureService) BatchGetUserFeatures(ctx context.Context, clientIDs []int64) (map[int64]map[string]float64, error) {
	result := make(map[int64]map[string]float64, len(clientIDs))
	var missing []int64
	for _, id := range clientIDs {
		if features, ok := c.get(id); ok {
			result[id] = features
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}
	fetched, err := c.next.BatchGetUserFeatures(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, features := range fetched {
		c.set(id, features)
		result[id] = features
	}
	return result, nil
}

// Invalidate 删除某个用户的缓存
func (c *CachedFeatureService) Invalidate(clientID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, clientID)
}

// Len 返回当前缓存的用户数
func (c *CachedFeatureService) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close 停止清理协程并关闭下游服务
func (c *CachedFeatureService) Close(ctx context.Context) error {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	return c.next.Close(ctx)
}
