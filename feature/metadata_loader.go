package feature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rushteam/histfeat/core"
)

// MetadataLoader 特征元数据加载器接口
// 线上读取特征时需要与离线任务一致的列名，元数据可以来自本地文件或 HTTP 接口。
type MetadataLoader interface {
	// Load 加载特征元数据
	// source 是数据源标识（文件路径、URL 等）
	Load(ctx context.Context, source string) (*FeatureMetadata, error)
}

// FileMetadataLoader 本地文件特征元数据加载器
type FileMetadataLoader struct{}

// NewFileMetadataLoader 创建本地文件特征元数据加载器
func NewFileMetadataLoader() *FileMetadataLoader {
	return &FileMetadataLoader{}
}

// Load 从本地文件加载特征元数据
func (l *FileMetadataLoader) Load(ctx context.Context, filePath string) (*FeatureMetadata, error) {
	return LoadFeatureMetadata(filePath)
}

// HTTPMetadataLoader HTTP 接口特征元数据加载器
type HTTPMetadataLoader struct {
	client *http.Client
}

// NewHTTPMetadataLoader 创建 HTTP 接口特征元数据加载器
//
// 用法：
//
//	loader := feature.NewHTTPMetadataLoader(5 * time.Second)
//	meta, err := loader.Load(ctx, "http://features.internal/histfeat/feature_meta.json")
func NewHTTPMetadataLoader(timeout time.Duration) *HTTPMetadataLoader {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMetadataLoader{client: &http.Client{Timeout: timeout}}
}

// NewHTTPMetadataLoaderWithClient 使用自定义 HTTP 客户端创建加载器
func NewHTTPMetadataLoaderWithClient(client *http.Client) *HTTPMetadataLoader {
	return &HTTPMetadataLoader{client: client}
}

// Load 从 HTTP 接口加载特征元数据
func (l *HTTPMetadataLoader) Load(ctx context.Context, url string) (*FeatureMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("HTTP 请求失败: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var meta FeatureMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("解析特征元数据失败: %w", err)
	}
	if meta.FeatureCount != len(meta.FeatureColumns) {
		return nil, core.InvalidInputError(core.ModuleFeature, "feature_count %d does not match %d feature_columns", meta.FeatureCount, len(meta.FeatureColumns))
	}
	return &meta, nil
}
