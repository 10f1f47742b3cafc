package feature

import (
	"time"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// Metadata 特征元数据，对应 data_columns_order 产物。
// 推理时单条记录必须按 FeatureColumns 的顺序组装，标签列不属于特征。
type Metadata struct {
	// FeatureColumns 特征列名列表（按顺序）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// LabelColumn 标签列名
	LabelColumn string `json:"label_column"`
	// CreatedAt 创建时间
	CreatedAt string `json:"created_at"`
}

// ColumnOrder 返回除标签列外的全部列名（保持数据集中的顺序）
func ColumnOrder(ds *dataset.Dataset, label string) []string {
	names := ds.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != label {
			out = append(out, n)
		}
	}
	return out
}

// NewMetadata 根据编码后的数据集生成特征元数据
func NewMetadata(ds *dataset.Dataset, label string) *Metadata {
	order := ColumnOrder(ds, label)
	return &Metadata{
		FeatureColumns: order,
		FeatureCount:   len(order),
		LabelColumn:    label,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}

// Validate 校验元数据一致性
func (m *Metadata) Validate() error {
	if m == nil || len(m.FeatureColumns) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "metadata: no feature columns")
	}
	if m.FeatureCount != len(m.FeatureColumns) {
		return core.Errorf(core.ModuleFeature, core.ErrorCodeShapeMismatch,
			"metadata: feature_count %d != %d columns", m.FeatureCount, len(m.FeatureColumns))
	}
	seen := make(map[string]struct{}, len(m.FeatureColumns))
	for _, c := range m.FeatureColumns {
		if c == m.LabelColumn {
			return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "metadata: label %q listed as feature", c)
		}
		if _, dup := seen[c]; dup {
			return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "metadata: column %q listed twice", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
