// Package evaluate 在测试集上评估模型：准确率、F1 与 ROC-AUC。
package evaluate

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
	"github.com/rushteam/airsat/model"
)

// Scores 评估结果，JSON 键名即 score 产物中的字段名。
// ROCAUC 按阈值化后的类别计算；ROCAUCProba 按概率计算，反映排序能力。
// Threshold 是计算这些指标时使用的决策阈值，推理服务默认沿用它。
type Scores struct {
	Accuracy    float64 `json:"accuracy_score"`
	F1          float64 `json:"f1_score"`
	ROCAUC      float64 `json:"roc_auc_score"`
	ROCAUCProba float64 `json:"roc_auc_proba_score"`
	Threshold   float64 `json:"threshold"`
}

// Evaluate 计算测试集每行概率，以严格大于 threshold 判定正类，并计算各项指标。
// 不修改任何输入。
func Evaluate(m model.Classifier, x *dataset.Dataset, y []int, threshold float64) (*Scores, error) {
	if !(threshold >= 0 && threshold <= 1) {
		return nil, core.Errorf(core.ModuleEvaluate, core.ErrorCodeInvalidInput, "evaluate: threshold %v outside [0,1]", threshold)
	}
	if x.Rows() != len(y) {
		return nil, core.Errorf(core.ModuleEvaluate, core.ErrorCodeShapeMismatch,
			"evaluate: %d feature rows but %d labels", x.Rows(), len(y))
	}
	probs, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	pred := model.ClassifyAll(probs, threshold)

	hard := make([]float64, len(pred))
	for i, p := range pred {
		hard[i] = float64(p)
	}
	auc, err := ROCAUC(y, hard)
	if err != nil {
		return nil, err
	}
	aucProba, err := ROCAUC(y, probs)
	if err != nil {
		return nil, err
	}
	return &Scores{
		Accuracy:    Accuracy(y, pred),
		F1:          F1(y, pred),
		ROCAUC:      auc,
		ROCAUCProba: aucProba,
		Threshold:   threshold,
	}, nil
}

// Accuracy 计算预测正确的比例
func Accuracy(y, pred []int) float64 {
	if len(y) == 0 {
		return 0
	}
	hit := 0
	for i := range y {
		if y[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(y))
}

// F1 计算正类（编码 1）的 F1；没有任何正类预测或正类样本时为 0
func F1(y, pred []int) float64 {
	var tp, fp, fn float64
	for i := range y {
		switch {
		case pred[i] == 1 && y[i] == 1:
			tp++
		case pred[i] == 1:
			fp++
		case y[i] == 1:
			fn++
		}
	}
	if tp == 0 {
		return 0
	}
	precision := tp / (tp + fp)
	recall := tp / (tp + fn)
	return 2 * precision * recall / (precision + recall)
}

// ROCAUC 计算 ROC 曲线下面积。测试集只含单一类别时无定义，返回错误。
func ROCAUC(y []int, scores []float64) (float64, error) {
	if len(y) != len(scores) {
		return 0, core.Errorf(core.ModuleEvaluate, core.ErrorCodeShapeMismatch,
			"evaluate: %d labels but %d scores", len(y), len(scores))
	}
	s := make([]float64, len(scores))
	copy(s, scores)
	classes := make([]bool, len(y))
	pos := 0
	for i, v := range y {
		if v != 0 && v != 1 {
			return 0, core.Errorf(core.ModuleEvaluate, core.ErrorCodeInvalidInput, "evaluate: label %d at row %d is not binary", v, i)
		}
		if math.IsNaN(s[i]) {
			return 0, core.Errorf(core.ModuleEvaluate, core.ErrorCodeInvalidInput, "evaluate: score at row %d is NaN", i)
		}
		classes[i] = v == 1
		pos += v
	}
	if pos == 0 || pos == len(y) {
		return 0, core.NewDomainError(core.ModuleEvaluate, core.ErrorCodeDegenerateSplit,
			"evaluate: ROC-AUC undefined for a test set with a single class")
	}

	stat.SortWeightedLabeled(s, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, s, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
