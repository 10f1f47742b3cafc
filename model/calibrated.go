package model

import (
	"github.com/goccy/go-json"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// Calibrated 是带保序校准的模型：先由基础模型给出原始概率，再经 Isotonic 映射修正。
// 校准后的概率与原始概率单调相关，原始得分更高时校准概率不会更低。
type Calibrated struct {
	base Classifier
	iso  *Isotonic
}

// Calibrate 在校准集上拟合保序映射。
// 校准集必须与训练集不相交，基础模型记得训练行时会检测重叠并返回 DATA_LEAKAGE。
func Calibrate(x *dataset.Dataset, y []int, base Classifier) (*Calibrated, error) {
	if base == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "calibrate: nil base model")
	}
	if x.Rows() != len(y) {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeShapeMismatch,
			"calibrate: %d feature rows but %d labels", x.Rows(), len(y))
	}
	if rt, ok := base.(rowTracker); ok {
		overlap := 0
		for _, id := range x.RowIDs() {
			if rt.trainedOn(x.Source(), id) {
				overlap++
			}
		}
		if overlap > 0 {
			return nil, core.Errorf(core.ModuleModel, core.ErrorCodeDataLeakage,
				"calibrate: %d calibration rows were used for training", overlap)
		}
	}

	raw, err := base.PredictProba(x)
	if err != nil {
		return nil, err
	}
	iso, err := FitIsotonic(raw, y)
	if err != nil {
		return nil, err
	}
	return &Calibrated{base: base, iso: iso}, nil
}

// NewCalibrated 由已有的基础模型与映射组装校准模型（用于加载持久化产物）
func NewCalibrated(base Classifier, iso *Isotonic) (*Calibrated, error) {
	if base == nil || iso == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "calibrated: base and isotonic map are required")
	}
	if err := iso.Validate(); err != nil {
		return nil, err
	}
	return &Calibrated{base: base, iso: iso}, nil
}

func (c *Calibrated) Name() string { return "calibrated_" + c.base.Name() }

func (c *Calibrated) Features() []string { return c.base.Features() }

// Base 返回未校准的基础模型
func (c *Calibrated) Base() Classifier { return c.base }

// Isotonic 返回校准映射
func (c *Calibrated) Isotonic() *Isotonic { return c.iso }

func (c *Calibrated) PredictProba(x *dataset.Dataset) ([]float64, error) {
	raw, err := c.base.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, p := range raw {
		out[i] = clip01(c.iso.Transform(p))
	}
	return out, nil
}

type calibratedJSON struct {
	Method string    `json:"method"`
	Base   *Booster  `json:"base"`
	Map    *Isotonic `json:"map"`
}

// MarshalJSON 仅支持以 Booster 为基础模型的校准模型
func (c *Calibrated) MarshalJSON() ([]byte, error) {
	b, ok := c.base.(*Booster)
	if !ok {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeNotSupported, "calibrated: cannot persist base model %q", c.base.Name())
	}
	return json.Marshal(calibratedJSON{Method: "isotonic", Base: b, Map: c.iso})
}

func (c *Calibrated) UnmarshalJSON(data []byte) error {
	var raw calibratedJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Method != "isotonic" {
		return core.Errorf(core.ModuleModel, core.ErrorCodeNotSupported, "calibrated: method %q not supported", raw.Method)
	}
	if raw.Base == nil {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "calibrated: missing base model")
	}
	if err := raw.Base.Validate(); err != nil {
		return err
	}
	next, err := NewCalibrated(raw.Base, raw.Map)
	if err != nil {
		return err
	}
	*c = *next
	return nil
}

func clip01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
