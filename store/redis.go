package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/histfeat/core"
)

// RedisStore 是 Redis 实现的 Store，用于把离线计算的特征向量推送给线上服务。
// BatchSet 使用 pipeline，一批 key 只有一次网络往返。
type RedisStore struct {
	client *redis.Client
}

// 确保 RedisStore 实现了 core.Store 接口
var _ core.Store = (*RedisStore)(nil)

// NewRedisStore 连接 Redis 并做一次 PING 检查
func NewRedisStore(cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &core.DomainError{
			Module:  core.ModuleStore,
			Code:    core.ErrorCodeUnavailable,
			Message: fmt.Sprintf("store: redis %s unavailable", cfg.Addr),
			Err:     err,
		}
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient 使用已有的客户端
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrStoreNotFound
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	return r.client.Set(ctx, key, value, expiration(ttl)).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(keys))
	for i, k := range keys {
		if s, ok := vals[i].(string); ok {
			result[k] = []byte(s)
		}
	}
	return result, nil
}

func (r *RedisStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	if len(kvs) == 0 {
		return nil
	}
	exp := expiration(ttl)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range kvs {
			pipe.Set(ctx, k, v, exp)
		}
		return nil
	})
	return err
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func expiration(ttl []int) time.Duration {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Duration(ttl[0]) * time.Second
	}
	return 0
}
