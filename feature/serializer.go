package feature

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/snappy"

	"github.com/rushteam/histfeat/core"
)

// VectorSerializer 是特征向量序列化接口，支持不同的序列化格式。
type VectorSerializer interface {
	Serialize(vector core.FeatureVector) ([]byte, error)
	Deserialize(data []byte) (core.FeatureVector, error)
}

// JSONSerializer 是 JSON 序列化实现，便于调试
type JSONSerializer struct{}

func (j *JSONSerializer) Serialize(vector core.FeatureVector) ([]byte, error) {
	return json.Marshal(vector)
}

func (j *JSONSerializer) Deserialize(data []byte) (core.FeatureVector, error) {
	var vector core.FeatureVector
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// BinarySerializer 按 float32 小端编码后做 snappy 压缩。
// 计数类特征大多为 0，压缩后体积很小；float32 精度对下游模型足够。
type BinarySerializer struct{}

func (b *BinarySerializer) Serialize(vector core.FeatureVector) ([]byte, error) {
	raw := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
	}
	return snappy.Encode(nil, raw), nil
}

func (b *BinarySerializer) Deserialize(data []byte) (core.FeatureVector, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector payload: %d bytes", len(raw))
	}
	vector := make(core.FeatureVector, len(raw)/4)
	for i := range vector {
		vector[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	return vector, nil
}
