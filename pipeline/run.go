package pipeline

import (
	"context"

	"github.com/rushteam/airsat/evaluate"
	"github.com/rushteam/airsat/feature"
	"github.com/rushteam/airsat/metrics"
	"github.com/rushteam/airsat/model"
	"github.com/rushteam/airsat/store"
)

// Result 一次训练运行的摘要
type Result struct {
	RunID       string
	Scores      *evaluate.Scores
	Mapping     *feature.Mapping
	ColumnOrder []string
	ColumnNames map[string]string
	Importances []model.Importance
	Model       *model.Calibrated
}

// New 构建完整的训练流水线；catalog 为 nil 时不写入产物
func New(catalog *store.Catalog) *Pipeline {
	p := &Pipeline{Name: "airline_passenger_satisfaction"}
	p.Add(DataProcessing()...)
	p.Add(ModelTraining()...)
	if catalog != nil {
		p.Add(Persist(catalog))
	}
	return p
}

// Run 执行训练流水线：原始表 → 规范化 → 编码 → 切分 → 训练 → 校准 → 评估 → 持久化
func Run(ctx context.Context, inputs Inputs, params *Params, catalog *store.Catalog) (res *Result, err error) {
	defer func() { metrics.RecordRun(err) }()

	if params == nil {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	st := &State{Params: params, Inputs: inputs}
	if err := New(catalog).Run(ctx, st); err != nil {
		return nil, err
	}

	metrics.RecordScores(map[string]float64{
		"accuracy_score":      st.Scores.Accuracy,
		"f1_score":            st.Scores.F1,
		"roc_auc_score":       st.Scores.ROCAUC,
		"roc_auc_proba_score": st.Scores.ROCAUCProba,
	})
	res = &Result{
		Scores:      st.Scores,
		Mapping:     st.Mapping,
		ColumnOrder: st.Metadata.FeatureColumns,
		ColumnNames: st.ColumnNames,
		Importances: st.Uncalibrated.Importances(),
		Model:       st.Calibrated,
	}
	if catalog != nil {
		res.RunID = catalog.RunID()
	}
	return res, nil
}
