package feature

import (
	"sort"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// OrderStrategy 决定类别值在编码表中的排列方式。
// 编码值即类别在列表中的位置，因此策略变更会改变已训练模型所依赖的编码，
// 必须通过 Mapping.Strategy 显式记录，不能静默切换。
type OrderStrategy string

const (
	// OrderFirstOccurrence 按数据中首次出现的顺序排列（默认，编码依赖数据到达顺序）
	OrderFirstOccurrence OrderStrategy = "first_occurrence"
	// OrderSorted 按字典序排列（与行顺序无关）
	OrderSorted OrderStrategy = "sorted"
)

// MappingVersion 是类别映射产物的格式版本
const MappingVersion = 1

// Mapping 是类别映射：每个类别列对应一个有序的取值列表，取值在列表中的下标即编码。
// 标签列使用同一机制，其列表同时作为预测类别的解码表。
//
// Mapping 只在离线流水线中计算一次并持久化，推理侧只读加载，绝不能重新计算。
type Mapping struct {
	Version    int                 `json:"version"`
	Strategy   OrderStrategy       `json:"strategy"`
	Label      string              `json:"label"`
	Columns    []string            `json:"columns"` // 编码列顺序（标签列在最后）
	Categories map[string][]string `json:"categories"`
}

// MappingOption 配置 ComputeMapping
type MappingOption func(*mappingOptions)

type mappingOptions struct {
	strategy OrderStrategy
}

// WithOrder 设置类别排列策略
func WithOrder(strategy OrderStrategy) MappingOption {
	return func(o *mappingOptions) {
		if strategy != "" {
			o.strategy = strategy
		}
	}
}

// ComputeMapping 为每个类别列（以及追加在末尾的标签列）收集不同取值。
// 默认按首次出现顺序排列；categorical 不会被修改。
func ComputeMapping(ds *dataset.Dataset, categorical []string, label string, opts ...MappingOption) (*Mapping, error) {
	o := mappingOptions{strategy: OrderFirstOccurrence}
	for _, opt := range opts {
		opt(&o)
	}
	if o.strategy != OrderFirstOccurrence && o.strategy != OrderSorted {
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeNotSupported, "mapping: unknown order strategy %q", o.strategy)
	}

	columns := make([]string, 0, len(categorical)+1)
	seen := make(map[string]struct{}, len(categorical)+1)
	for _, name := range categorical {
		if name == label {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "mapping: column %q listed twice", name)
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}
	columns = append(columns, label)

	m := &Mapping{
		Version:    MappingVersion,
		Strategy:   o.strategy,
		Label:      label,
		Columns:    columns,
		Categories: make(map[string][]string, len(columns)),
	}
	for _, name := range columns {
		c, ok := ds.Column(name)
		if !ok {
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeDataQuality, "mapping: column %q not found", name)
		}
		m.Categories[name] = distinct(c, o.strategy)
	}
	return m, nil
}

func distinct(c *dataset.Column, strategy OrderStrategy) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for i := 0; i < c.Len(); i++ {
		v := c.StringAt(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	if strategy == OrderSorted {
		sort.Strings(values)
	}
	return values
}

// LabelClasses 返回标签解码表
func (m *Mapping) LabelClasses() []string {
	return m.Categories[m.Label]
}

// Validate 校验映射结构：版本、策略、列表非空且无重复
func (m *Mapping) Validate() error {
	if m == nil {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "mapping: nil")
	}
	if m.Version != MappingVersion {
		return core.Errorf(core.ModuleFeature, core.ErrorCodeNotSupported, "mapping: version %d not supported", m.Version)
	}
	if m.Strategy != OrderFirstOccurrence && m.Strategy != OrderSorted {
		return core.Errorf(core.ModuleFeature, core.ErrorCodeNotSupported, "mapping: unknown order strategy %q", m.Strategy)
	}
	if _, ok := m.Categories[m.Label]; !ok {
		return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "mapping: label %q has no categories", m.Label)
	}
	for _, name := range m.Columns {
		values, ok := m.Categories[name]
		if !ok || len(values) == 0 {
			return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "mapping: column %q has no categories", name)
		}
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "mapping: column %q lists %q twice", name, v)
			}
			seen[v] = struct{}{}
		}
	}
	return nil
}
