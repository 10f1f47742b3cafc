package service

import (
	"context"
	"slices"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/evaluate"
	"github.com/rushteam/airsat/feature"
	"github.com/rushteam/airsat/model"
	"github.com/rushteam/airsat/store"
)

// Predictor 是本地推理服务：持有训练期产出的编码器、列顺序与校准模型。
//
// 加载后所有字段只读，可被并发请求共享，无需加锁。
// 预处理完全复用 feature.Encoder.EncodeRecord，与离线评估走同一条编码路径。
type Predictor struct {
	encoder   *feature.Encoder
	order     []string
	model     model.Classifier
	threshold float64
	runID     string
}

// NewPredictor 组装 Predictor，并校验模型期望的特征顺序与列顺序一致
func NewPredictor(enc *feature.Encoder, order []string, m model.Classifier, threshold float64) (*Predictor, error) {
	if enc == nil || m == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "predictor: encoder and model are required")
	}
	if !(threshold >= 0 && threshold <= 1) {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "predictor: threshold %v outside [0,1]", threshold)
	}
	if !slices.Equal(m.Features(), order) {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeShapeMismatch,
			"predictor: model features %v differ from column order %v", m.Features(), order)
	}
	if n := len(enc.Mapping().LabelClasses()); n != 2 {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "predictor: label has %d classes, want 2", n)
	}
	return &Predictor{
		encoder:   enc,
		order:     slices.Clone(order),
		model:     m,
		threshold: threshold,
	}, nil
}

// LoadOption 配置 LoadPredictor
type LoadOption func(*loadOptions)

type loadOptions struct {
	threshold *float64
}

// WithThreshold 显式覆盖训练时记录在 score 产物中的决策阈值
func WithThreshold(t float64) LoadOption {
	return func(o *loadOptions) { o.threshold = &t }
}

// LoadPredictor 从 catalog 一次性加载类别映射、列顺序、校准模型与评估分数。
// 四个产物必须来自同一次训练运行；映射只读加载，绝不在推理侧重新计算。
// 决策阈值默认取评估时使用的阈值，只有传入 WithThreshold 才会改变。
func LoadPredictor(ctx context.Context, catalog *store.Catalog, opts ...LoadOption) (*Predictor, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	var (
		mapping feature.Mapping
		meta    feature.Metadata
		cal     model.Calibrated
		scores  evaluate.Scores
	)
	runID, err := catalog.LoadAll(ctx, map[string]any{
		store.ArtifactMapping:         &mapping,
		store.ArtifactColumnOrder:     &meta,
		store.ArtifactCalibratedModel: &cal,
		store.ArtifactScore:           &scores,
	})
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	enc, err := feature.NewEncoder(&mapping)
	if err != nil {
		return nil, err
	}
	threshold := scores.Threshold
	if o.threshold != nil {
		threshold = *o.threshold
	}
	p, err := NewPredictor(enc, meta.FeatureColumns, &cal, threshold)
	if err != nil {
		return nil, err
	}
	p.runID = runID
	return p, nil
}

// Predict 按列顺序编码单条记录，计算校准概率，以严格大于阈值判定类别并解码
func (p *Predictor) Predict(ctx context.Context, record map[string]any) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	x, err := p.encoder.EncodeRecord(record, p.order)
	if err != nil {
		return nil, err
	}
	probs, err := p.model.PredictProba(x)
	if err != nil {
		return nil, err
	}
	class, err := p.encoder.DecodeLabel(model.Classify(probs[0], p.threshold))
	if err != nil {
		return nil, err
	}
	return &Prediction{Probability: probs[0], Class: class}, nil
}

// Health 模型已加载即视为健康
func (p *Predictor) Health(ctx context.Context) error { return ctx.Err() }

func (p *Predictor) Close() error { return nil }

// RunID 返回产物所属的训练运行 id
func (p *Predictor) RunID() string { return p.runID }

// Threshold 返回决策阈值
func (p *Predictor) Threshold() float64 { return p.threshold }

// Features 返回期望的特征列顺序
func (p *Predictor) Features() []string { return slices.Clone(p.order) }

var _ MLService = (*Predictor)(nil)
