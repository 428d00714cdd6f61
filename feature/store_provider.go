package feature

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rushteam/histfeat/core"
)

// StoreFeatureProvider 是基于 Store 的特征读写实现，采用适配器模式。
//
// 写入侧：离线任务把每个用户的特征向量写入 Store（key = 前缀 + client_id）。
// 读取侧：实现 core.FeatureService，按 FeatureMetadata 的列名返回命名特征。
type StoreFeatureProvider struct {
	store      core.Store
	keyPrefix  string
	serializer VectorSerializer
	meta       *FeatureMetadata
	ttl        int
	batchSize  int
}

var _ core.FeatureService = (*StoreFeatureProvider)(nil)

// DefaultUserKeyPrefix 是用户特征 key 的默认前缀
const DefaultUserKeyPrefix = "user:features:"

// NewStoreFeatureProvider 创建基于 Store 的特征提供者。
// meta 可以为 nil，此时读取返回以下标命名的特征。
func NewStoreFeatureProvider(store core.Store, keyPrefix string, meta *FeatureMetadata) *StoreFeatureProvider {
	if keyPrefix == "" {
		keyPrefix = DefaultUserKeyPrefix
	}
	return &StoreFeatureProvider{
		store:      store,
		keyPrefix:  keyPrefix,
		serializer: &BinarySerializer{},
		meta:       meta,
		batchSize:  1000,
	}
}

// WithSerializer 设置序列化器
func (p *StoreFeatureProvider) WithSerializer(serializer VectorSerializer) *StoreFeatureProvider {
	p.serializer = serializer
	return p
}

// WithTTL 设置写入的过期时间（秒），0 表示不过期
func (p *StoreFeatureProvider) WithTTL(seconds int) *StoreFeatureProvider {
	p.ttl = seconds
	return p
}

func (p *StoreFeatureProvider) Name() string {
	return fmt.Sprintf("store.%s", p.store.Name())
}

func (p *StoreFeatureProvider) key(clientID int64) string {
	return p.keyPrefix + strconv.FormatInt(clientID, 10)
}

// WriteMatrix 把特征矩阵按用户分批写入 Store
func (p *StoreFeatureProvider) WriteMatrix(ctx context.Context, m *Matrix) error {
	batch := make(map[string][]byte, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.BatchSet(ctx, batch, p.ttl); err != nil {
			return fmt.Errorf("write vectors to %s: %w", p.store.Name(), err)
		}
		batch = make(map[string][]byte, p.batchSize)
		return nil
	}
	for i, id := range m.ClientIDs {
		data, err := p.serializer.Serialize(m.Rows[i])
		if err != nil {
			return fmt.Errorf("serialize client %d: %w", id, err)
		}
		batch[p.key(id)] = data
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// GetUserVector 读取单个用户的原始特征向量
func (p *StoreFeatureProvider) GetUserVector(ctx context.Context, clientID int64) (core.FeatureVector, error) {
	data, err := p.store.Get(ctx, p.key(clientID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrFeatureNotFound
		}
		return nil, err
	}
	return p.serializer.Deserialize(data)
}

func (p *StoreFeatureProvider) GetUserFeatures(ctx context.Context, clientID int64) (map[string]float64, error) {
	vector, err := p.GetUserVector(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return p.named(vector)
}

func (p *StoreFeatureProvider) BatchGetUserFeatures(ctx context.Context, clientIDs []int64) (map[int64]map[string]float64, error) {
	if len(clientIDs) == 0 {
		return make(map[int64]map[string]float64), nil
	}

	// 构建 keys
	keys := make([]string, len(clientIDs))
	keyToClientID := make(map[string]int64, len(clientIDs))
	for i, id := range clientIDs {
		key := p.key(id)
		keys[i] = key
		keyToClientID[key] = id
	}

	// 批量获取
	dataMap, err := p.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	// 反序列化
	result := make(map[int64]map[string]float64, len(dataMap))
	for key, data := range dataMap {
		vector, err := p.serializer.Deserialize(data)
		if err != nil {
			continue // 跳过反序列化失败的特征
		}
		named, err := p.named(vector)
		if err != nil {
			continue
		}
		result[keyToClientID[key]] = named
	}
	return result, nil
}

func (p *StoreFeatureProvider) Close(ctx context.Context) error {
	return p.store.Close()
}

func (p *StoreFeatureProvider) named(vector core.FeatureVector) (map[string]float64, error) {
	if p.meta != nil {
		return p.meta.NamedFeatures(vector)
	}
	named := make(map[string]float64, len(vector))
	for i, v := range vector {
		named[strconv.Itoa(i)] = v
	}
	return named, nil
}
