package pipeline

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/feature"
	"github.com/rushteam/airsat/split"
)

// Params 是训练流水线参数（对应 conf/parameters.yml）。
// 列名可以写原始列名或规范化后的列名，流水线会在重命名后统一解析。
type Params struct {
	JoinKey            string      `yaml:"join_key" validate:"required"`
	ColumnsToDelete    []string    `yaml:"columns_to_delete" validate:"dive,required"`
	CategoricalColumns []string    `yaml:"categorical_columns" validate:"dive,required"`
	Label              string      `yaml:"label" validate:"required"`
	RandomState        int64       `yaml:"random_state"`
	Split              SplitParams `yaml:"split"`
	Threshold          float64     `yaml:"threshold" validate:"gte=0,lte=1"`
	MappingOrder       string      `yaml:"mapping_order" validate:"oneof=first_occurrence sorted"`
	QualityChecks      []string    `yaml:"quality_checks" validate:"dive,required"`
	Model              ModelParams `yaml:"model"`
}

// SplitParams 切分比例
type SplitParams struct {
	TestSize            float64 `yaml:"test_size" validate:"gt=0,lt=1"`
	CalibrationTestSize float64 `yaml:"calibration_test_size" validate:"gt=0,lt=1"`
}

// ModelParams 提升模型超参数
type ModelParams struct {
	Rounds         int     `yaml:"rounds" validate:"gt=0"`
	LearningRate   float64 `yaml:"learning_rate" validate:"gt=0"`
	MaxBins        int     `yaml:"max_bins" validate:"gte=2"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf" validate:"gte=1"`
	L2             float64 `yaml:"l2" validate:"gte=0"`
}

// DefaultParams 返回默认参数
func DefaultParams() *Params {
	return &Params{
		JoinKey:      "id",
		Label:        "satisfaction",
		RandomState:  42,
		Threshold:    0.5,
		MappingOrder: string(feature.OrderFirstOccurrence),
		Split: SplitParams{
			TestSize:            split.DefaultTestSize,
			CalibrationTestSize: split.DefaultCalibrationTestSize,
		},
		Model: ModelParams{
			Rounds:         300,
			LearningRate:   0.05,
			MaxBins:        64,
			MinSamplesLeaf: 2,
			L2:             1.0,
		},
	}
}

// LoadParams 从 YAML 文件加载参数，未出现的字段保持默认值
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	return ParseParams(data)
}

// ParseParams 解析 YAML 参数并校验
func ParseParams(data []byte) (*Params, error) {
	p := DefaultParams()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, core.Wrap(core.ModulePipeline, core.ErrorCodeInvalidInput, err, "parse params yaml")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验参数取值
func (p *Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return core.Wrap(core.ModulePipeline, core.ErrorCodeInvalidInput, err, "invalid params")
	}
	for _, c := range p.CategoricalColumns {
		if c == p.Label {
			return core.Errorf(core.ModulePipeline, core.ErrorCodeInvalidInput, "params: label %q must not be listed as categorical", c)
		}
	}
	return nil
}
