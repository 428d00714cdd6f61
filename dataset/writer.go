package dataset

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
	"github.com/rushteam/histfeat/pkg/conv"
)

// EmbeddingRow 是特征输出表的一行
type EmbeddingRow struct {
	ClientID int64     `parquet:"client_id"`
	Features []float32 `parquet:"features,list"`
}

// WriteEmbeddings 把特征矩阵写为 parquet（client_id, features）
func WriteEmbeddings(path string, m *feature.Matrix) error {
	rows := make([]EmbeddingRow, len(m.ClientIDs))
	for i, id := range m.ClientIDs {
		features := make([]float32, len(m.Rows[i]))
		for j, v := range m.Rows[i] {
			features[j] = float32(v)
		}
		rows[i] = EmbeddingRow{ClientID: id, Features: features}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write embeddings %s: %w", path, err)
	}
	return nil
}

// ReadEmbeddings 读取 WriteEmbeddings 写出的特征表，返回的矩阵不带列名
func ReadEmbeddings(path string) (*feature.Matrix, error) {
	rows, err := parquet.ReadFile[EmbeddingRow](path)
	if err != nil {
		return nil, fmt.Errorf("read embeddings %s: %w", path, err)
	}
	m := &feature.Matrix{
		ClientIDs: make([]int64, len(rows)),
		Rows:      make([]core.FeatureVector, len(rows)),
	}
	for i, r := range rows {
		m.ClientIDs[i] = r.ClientID
		vec := make(core.FeatureVector, len(r.Features))
		for j, v := range r.Features {
			vec[j] = float64(v)
		}
		m.Rows[i] = vec
	}
	return m, nil
}

func toInt64(v any) int64 {
	n, _ := conv.ToInt64(v)
	return n
}
