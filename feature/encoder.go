package feature

import (
	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
	"github.com/rushteam/airsat/pkg/conv"
)

// Encoder 是基于 Mapping 的类别编码器（Label 编码）。
//
// 离线评估与在线推理共用同一个 Encoder：两条路径都通过 Encode 完成编码，
// 推理侧的 EncodeRecord 只是把单条记录组装成一行 Dataset 再调用 Encode。
// Encoder 构造后只读，可在并发请求间共享。
type Encoder struct {
	mapping *Mapping
	codes   map[string]map[string]int
}

// NewEncoder 根据已计算或已加载的 Mapping 创建编码器
func NewEncoder(m *Mapping) (*Encoder, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	codes := make(map[string]map[string]int, len(m.Categories))
	for name, values := range m.Categories {
		idx := make(map[string]int, len(values))
		for i, v := range values {
			idx[v] = i
		}
		codes[name] = idx
	}
	return &Encoder{mapping: m, codes: codes}, nil
}

// Mapping 返回底层映射（只读）
func (e *Encoder) Mapping() *Mapping { return e.mapping }

// IsCategorical 判断特征列是否需要类别编码（标签列除外）
func (e *Encoder) IsCategorical(name string) bool {
	if name == e.mapping.Label {
		return false
	}
	_, ok := e.codes[name]
	return ok
}

// Cardinality 返回每个类别特征列的取值数（不含标签列），供训练器校验编码范围
func (e *Encoder) Cardinality() map[string]int {
	out := make(map[string]int, len(e.mapping.Columns))
	for _, name := range e.mapping.Columns {
		if name == e.mapping.Label {
			continue
		}
		out[name] = len(e.mapping.Categories[name])
	}
	return out
}

// Code 返回类别值的编码；训练期未见过的值返回 UNKNOWN_CATEGORY 错误，不存在默认编码
func (e *Encoder) Code(column, value string) (int, error) {
	idx, ok := e.codes[column]
	if !ok {
		return 0, core.Errorf(core.ModuleFeature, core.ErrorCodeNotFound, "encoder: column %q has no mapping", column)
	}
	code, ok := idx[value]
	if !ok {
		return 0, core.Errorf(core.ModuleFeature, core.ErrorCodeUnknownCategory,
			"encoder: unknown category %q for column %q", value, column)
	}
	return code, nil
}

// Encode 将映射中的每个类别列替换为编码后的数值列，返回新数据集。
// 标签列允许缺失（推理场景），其余映射列缺失时返回 MISSING_FEATURE 错误。
func (e *Encoder) Encode(ds *dataset.Dataset) (*dataset.Dataset, error) {
	out := ds
	for _, name := range e.mapping.Columns {
		c, ok := ds.Column(name)
		if !ok {
			if name == e.mapping.Label {
				continue
			}
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeMissingFeature, "encoder: column %q missing", name)
		}
		codes := make([]float64, c.Len())
		for i := 0; i < c.Len(); i++ {
			code, err := e.Code(name, c.StringAt(i))
			if err != nil {
				return nil, err
			}
			codes[i] = float64(code)
		}
		next, err := out.WithColumn(dataset.NewNumeric(name, codes))
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// DecodeLabel 将类别编码还原为原始标签
func (e *Encoder) DecodeLabel(code int) (string, error) {
	classes := e.mapping.LabelClasses()
	if code < 0 || code >= len(classes) {
		return "", core.Errorf(core.ModuleFeature, core.ErrorCodeOutOfRange,
			"encoder: label code %d out of range [0,%d)", code, len(classes))
	}
	return classes[code], nil
}

// EncodeRecord 按训练期的列顺序把单条原始记录转换为一行已编码的 Dataset。
//
// 记录中多余的字段被忽略；order 中的字段缺失或为 null 时返回 MISSING_FEATURE，
// 类别值未见过时返回 UNKNOWN_CATEGORY，数值列无法解析时返回 INVALID_INPUT。
func (e *Encoder) EncodeRecord(record map[string]any, order []string) (*dataset.Dataset, error) {
	cols := make([]*dataset.Column, 0, len(order))
	for _, name := range order {
		v, ok := record[name]
		if !ok || v == nil {
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeMissingFeature, "record: feature %q missing", name)
		}
		if e.IsCategorical(name) {
			s, ok := conv.ToString(v)
			if !ok {
				return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "record: feature %q has unsupported value %v", name, v)
			}
			cols = append(cols, dataset.NewCategorical(name, []string{s}))
			continue
		}
		f, ok := conv.ToFloat64(v)
		if !ok {
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "record: feature %q is not numeric: %v", name, v)
		}
		cols = append(cols, dataset.NewNumeric(name, []float64{f}))
	}

	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, err
	}
	return e.Encode(ds)
}
