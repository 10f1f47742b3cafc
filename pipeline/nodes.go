package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
	"github.com/rushteam/airsat/evaluate"
	"github.com/rushteam/airsat/feature"
	"github.com/rushteam/airsat/logging"
	"github.com/rushteam/airsat/model"
	"github.com/rushteam/airsat/schema"
	"github.com/rushteam/airsat/split"
	"github.com/rushteam/airsat/store"
)

// Inputs 原始输入表：特征表与标签表，通过 JoinKey 关联
type Inputs struct {
	Features *dataset.Dataset
	Labels   *dataset.Dataset
}

// State 在节点间传递的中间产物，每个节点只写入自己负责的字段
type State struct {
	Params *Params
	Inputs Inputs

	Merged      *dataset.Dataset
	Normalized  *dataset.Dataset
	ColumnNames map[string]string // 原始列名 -> 规范列名
	Profile     map[string]*feature.Statistics
	Mapping     *feature.Mapping
	Encoder     *feature.Encoder
	Encoded     *dataset.Dataset
	Metadata    *feature.Metadata

	TrainX, CalibrationX, TestX *dataset.Dataset
	TrainY, CalibrationY, TestY []int

	Uncalibrated *model.Booster
	Calibrated   *model.Calibrated
	Scores       *evaluate.Scores
}

// resolve 将参数中的列名解析为规范化后的列名
func (st *State) resolve(name string) string {
	if n, ok := st.ColumnNames[name]; ok {
		return n
	}
	c := schema.CanonicalName(name)
	if r, ok := schema.DefaultReserved[c]; ok {
		return r
	}
	return c
}

// Rows 返回当前阶段工作表的行数，用于逐节点日志
func (st *State) Rows() int {
	for _, ds := range []*dataset.Dataset{st.Encoded, st.Normalized, st.Merged} {
		if ds != nil {
			return ds.Rows()
		}
	}
	return 0
}

func (st *State) resolveAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = st.resolve(n)
	}
	return out
}

// DataProcessing 返回数据处理阶段的节点
func DataProcessing() []Node {
	return []Node{
		NewNode("merge_features_and_labels", KindDataProcessing, mergeNode),
		NewNode("rename_columns", KindDataProcessing, renameNode),
		NewNode("check_data_quality", KindDataProcessing, qualityNode),
		NewNode("delete_columns", KindDataProcessing, deleteNode),
		NewNode("compute_mapping", KindDataProcessing, mappingNode),
		NewNode("encode_categorical_features", KindDataProcessing, encodeNode),
		NewNode("data_columns_order", KindDataProcessing, orderNode),
		NewNode("split_dataset", KindDataProcessing, splitNode),
		NewNode("profile_data", KindDataProcessing, profileNode),
	}
}

// ModelTraining 返回训练阶段的节点
func ModelTraining() []Node {
	return []Node{
		NewNode("train_uncalibrated_model", KindModelTraining, trainNode),
		NewNode("calibrate_the_model", KindModelTraining, calibrateNode),
		NewNode("evaluation", KindModelTraining, evaluateNode),
	}
}

// Persist 返回写入全部产物的节点
func Persist(catalog *store.Catalog) Node {
	return NewNode("save_artifacts", KindPersist, func(ctx context.Context, st *State) error {
		return saveArtifacts(ctx, catalog, st)
	})
}

func mergeNode(_ context.Context, st *State) error {
	if st.Inputs.Features == nil || st.Inputs.Labels == nil {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeDataQuality, "features and labels are required")
	}
	merged, err := schema.Merge(st.Inputs.Features, st.Inputs.Labels, st.Params.JoinKey)
	if err != nil {
		return err
	}
	st.Merged = merged
	logging.Debug().Int("rows", merged.Rows()).Int("columns", merged.Width()).Msg("merged features and labels")
	return nil
}

func renameNode(_ context.Context, st *State) error {
	renamed, names, err := schema.RenameColumns(st.Merged, schema.DefaultReserved)
	if err != nil {
		return err
	}
	st.Normalized, st.ColumnNames = renamed, names
	return nil
}

func qualityNode(_ context.Context, st *State) error {
	return schema.CheckQuality(st.Normalized, st.Params.QualityChecks)
}

func deleteNode(_ context.Context, st *State) error {
	out, err := schema.DeleteColumns(st.Normalized, st.resolveAll(st.Params.ColumnsToDelete))
	if err != nil {
		return err
	}
	st.Normalized = out
	return nil
}

// profileNode 统计训练集行在编码前的取值分布
func profileNode(_ context.Context, st *State) error {
	train, err := st.Normalized.TakeRowIDs(st.TrainX.RowIDs())
	if err != nil {
		return err
	}
	st.Profile = feature.Profile(train)
	return nil
}

func mappingNode(_ context.Context, st *State) error {
	label := st.resolve(st.Params.Label)
	m, err := feature.ComputeMapping(st.Normalized, st.resolveAll(st.Params.CategoricalColumns), label,
		feature.WithOrder(feature.OrderStrategy(st.Params.MappingOrder)))
	if err != nil {
		return err
	}
	if n := len(m.LabelClasses()); n != 2 {
		return core.Errorf(core.ModulePipeline, core.ErrorCodeDataQuality,
			"label %q has %d classes, want 2", label, n)
	}
	enc, err := feature.NewEncoder(m)
	if err != nil {
		return err
	}
	st.Mapping, st.Encoder = m, enc
	return nil
}

func encodeNode(_ context.Context, st *State) error {
	encoded, err := st.Encoder.Encode(st.Normalized)
	if err != nil {
		return err
	}
	st.Encoded = encoded
	return nil
}

func orderNode(_ context.Context, st *State) error {
	st.Metadata = feature.NewMetadata(st.Encoded, st.Mapping.Label)
	return st.Metadata.Validate()
}

func splitNode(_ context.Context, st *State) error {
	res, err := split.Split(st.Encoded, st.Params.RandomState,
		split.WithTestSize(st.Params.Split.TestSize),
		split.WithCalibrationTestSize(st.Params.Split.CalibrationTestSize))
	if err != nil {
		return err
	}
	label := st.Mapping.Label
	if st.TrainX, st.TrainY, err = split.SeparateLabel(res.Train, label); err != nil {
		return err
	}
	if st.CalibrationX, st.CalibrationY, err = split.SeparateLabel(res.Calibration, label); err != nil {
		return err
	}
	if st.TestX, st.TestY, err = split.SeparateLabel(res.Test, label); err != nil {
		return err
	}
	logging.Info().
		Int("train", st.TrainX.Rows()).
		Int("calibration", st.CalibrationX.Rows()).
		Int("test", st.TestX.Rows()).
		Msg("dataset split")
	return nil
}

func trainNode(_ context.Context, st *State) error {
	mp := st.Params.Model
	trainer := model.NewBoostingTrainer(
		model.WithSeed(st.Params.RandomState),
		model.WithRounds(mp.Rounds),
		model.WithLearningRate(mp.LearningRate),
		model.WithMaxBins(mp.MaxBins),
		model.WithMinSamplesLeaf(mp.MinSamplesLeaf),
		model.WithL2(mp.L2),
		model.WithCardinality(st.Encoder.Cardinality()),
	)
	b, err := trainer.FitBooster(st.TrainX, st.TrainY)
	if err != nil {
		return err
	}
	st.Uncalibrated = b
	return nil
}

func calibrateNode(_ context.Context, st *State) error {
	c, err := model.Calibrate(st.CalibrationX, st.CalibrationY, st.Uncalibrated)
	if err != nil {
		return err
	}
	st.Calibrated = c
	return nil
}

func evaluateNode(_ context.Context, st *State) error {
	scores, err := evaluate.Evaluate(st.Calibrated, st.TestX, st.TestY, st.Params.Threshold)
	if err != nil {
		return err
	}
	st.Scores = scores
	logging.Info().
		Float64("accuracy_score", scores.Accuracy).
		Float64("f1_score", scores.F1).
		Float64("roc_auc_score", scores.ROCAUC).
		Float64("roc_auc_proba_score", scores.ROCAUCProba).
		Msg("performance of the calibrated model")
	return nil
}

func saveArtifacts(ctx context.Context, catalog *store.Catalog, st *State) error {
	artifacts := map[string]any{
		store.ArtifactUncalibratedModel:  st.Uncalibrated,
		store.ArtifactCalibratedModel:    st.Calibrated,
		store.ArtifactMapping:            st.Mapping,
		store.ArtifactColumnOrder:        st.Metadata,
		store.ArtifactScore:              st.Scores,
		store.ArtifactColumnNamesMapping: st.ColumnNames,
		store.ArtifactFeatureImportances: st.Uncalibrated.Importances(),
		store.ArtifactDataProfile:        st.Profile,
	}
	g, gctx := errgroup.WithContext(ctx)
	for name, v := range artifacts {
		name, v := name, v
		g.Go(func() error {
			return catalog.Save(gctx, name, v)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logging.Info().
		Str("run_id", catalog.RunID()).
		Str("store", catalog.Store().Name()).
		Int("artifacts", len(artifacts)).
		Msg("artifacts saved")
	return nil
}
