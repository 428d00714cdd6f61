package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），包装过的错误（%w）同样可以识别
//
// 使用场景：
//   - 向量字符串格式错误：FORMAT_ERROR
//   - 属性表连接完整性错误：JOIN_INTEGRITY
//   - 计算错误（如空事件集合求均值）：COMPUTATION_ERROR
type DomainError struct {
	Code    string // 错误代码（如 "FORMAT_ERROR", "JOIN_INTEGRITY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "vector", "join", "calculator"）
	Err     error  // 底层错误，可为 nil
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 特征计算相关
	ErrorCodeFormat        = "FORMAT_ERROR"      // 向量字符串格式不合法
	ErrorCodeJoinIntegrity = "JOIN_INTEGRITY"    // 事件引用了不存在的物品，或属性表 key 重复
	ErrorCodeComputation   = "COMPUTATION_ERROR" // 计算前置条件不满足
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleFeature    = "feature"    // 特征模块
	ModuleVector     = "vector"     // 向量字符串解析
	ModuleJoin       = "join"       // 属性表连接
	ModuleCalculator = "calculator" // 特征计算器
	ModuleDataset    = "dataset"    // 数据加载
)

// FormatError 创建向量格式错误，消息中包含出错的原始字符串。
func FormatError(s string, format string, args ...any) *DomainError {
	return NewDomainError(ModuleVector, ErrorCodeFormat,
		"vector: "+s+": "+fmt.Sprintf(format, args...))
}

// JoinIntegrityError 创建连接完整性错误。
func JoinIntegrityError(format string, args ...any) *DomainError {
	return NewDomainError(ModuleJoin, ErrorCodeJoinIntegrity, "join: "+fmt.Sprintf(format, args...))
}

// ComputationError 创建计算错误。
func ComputationError(format string, args ...any) *DomainError {
	return NewDomainError(ModuleCalculator, ErrorCodeComputation, "calculator: "+fmt.Sprintf(format, args...))
}

// InvalidInputError 创建输入无效错误（通常是配置问题）。
func InvalidInputError(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, module+": "+fmt.Sprintf(format, args...))
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsFormatError 检查错误是否为向量格式错误
func IsFormatError(err error) bool { return hasCode(err, ErrorCodeFormat) }

// IsJoinIntegrityError 检查错误是否为连接完整性错误
func IsJoinIntegrityError(err error) bool { return hasCode(err, ErrorCodeJoinIntegrity) }

// IsComputationError 检查错误是否为计算错误
func IsComputationError(err error) bool { return hasCode(err, ErrorCodeComputation) }
