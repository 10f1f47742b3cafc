package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message），Err 保留底层原因
//   - 支持错误检查函数（IsXXX），对 fmt.Errorf("%w") 包装后的错误同样有效
//
// 使用场景：
//   - Schema 错误：DATA_QUALITY（缺少 join key、列不存在、行数异常膨胀）
//   - Feature 错误：UNKNOWN_CATEGORY、MISSING_FEATURE
//   - Model 错误：SHAPE_MISMATCH、OUT_OF_RANGE、DATA_LEAKAGE
//   - Split 错误：DEGENERATE_SPLIT
type DomainError struct {
	Code    string // 错误代码（如 "UNKNOWN_CATEGORY", "DATA_QUALITY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "schema", "feature", "model"）
	Err     error  // 底层原因（可选）
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

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果不存在则返回 nil
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

// Errorf 按格式创建领域错误
func Errorf(module, code, format string, args ...any) *DomainError {
	return NewDomainError(module, code, fmt.Sprintf(format, args...))
}

// Wrap 用领域错误包装底层错误
func Wrap(module, code string, err error, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 数据与模型错误代码
	ErrorCodeDataQuality     = "DATA_QUALITY"     // 数据质量问题，流水线构建期直接失败
	ErrorCodeUnknownCategory = "UNKNOWN_CATEGORY" // 类别值不在训练期映射中
	ErrorCodeMissingFeature  = "MISSING_FEATURE"  // 推理记录缺少必需特征
	ErrorCodeShapeMismatch   = "SHAPE_MISMATCH"   // 特征列数量/顺序与模型不一致
	ErrorCodeOutOfRange      = "OUT_OF_RANGE"     // 类别编码超出编码器范围
	ErrorCodeDegenerateSplit = "DEGENERATE_SPLIT" // 切分后某个子集为空
	ErrorCodeDataLeakage     = "DATA_LEAKAGE"     // 校准集与训练集存在重叠
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleDataset  = "dataset"  // 数据集模块
	ModuleSchema   = "schema"   // 列规范化模块
	ModuleFeature  = "feature"  // 特征编码模块
	ModuleSplit    = "split"    // 数据切分模块
	ModuleModel    = "model"    // 模型模块
	ModuleEvaluate = "evaluate" // 评估模块
	ModuleService  = "service"  // 服务模块
	ModulePipeline = "pipeline" // 训练流水线
	ModuleAPI      = "api"      // HTTP 接口
	ModuleConfig   = "config"   // 配置加载
)

// HasCode 检查错误链中的 DomainError 是否为指定代码
func HasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return HasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return HasCode(err, ErrorCodeNotSupported)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return HasCode(err, ErrorCodeInvalidInput)
}

// IsDataQuality 检查错误是否为 DATA_QUALITY
func IsDataQuality(err error) bool {
	return HasCode(err, ErrorCodeDataQuality)
}

// IsUnknownCategory 检查错误是否为 UNKNOWN_CATEGORY。
// 推理侧据此区分“客户端数据超出训练类别空间”和一般失败。
func IsUnknownCategory(err error) bool {
	return HasCode(err, ErrorCodeUnknownCategory)
}

// IsMissingFeature 检查错误是否为 MISSING_FEATURE
func IsMissingFeature(err error) bool {
	return HasCode(err, ErrorCodeMissingFeature)
}

// IsShapeMismatch 检查错误是否为 SHAPE_MISMATCH
func IsShapeMismatch(err error) bool {
	return HasCode(err, ErrorCodeShapeMismatch)
}
