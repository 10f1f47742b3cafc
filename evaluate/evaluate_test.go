package evaluate

import (
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// fixedClassifier 按行返回预设概率
type fixedClassifier struct {
	probs []float64
}

func (f *fixedClassifier) Name() string       { return "fixed" }
func (f *fixedClassifier) Features() []string { return []string{"x"} }
func (f *fixedClassifier) PredictProba(x *dataset.Dataset) ([]float64, error) {
	out := make([]float64, x.Rows())
	copy(out, f.probs)
	return out, nil
}

func rows(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(dataset.NewNumeric("x", make([]float64, n)))
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}
	return ds
}

func TestEvaluate(t *testing.T) {
	m := &fixedClassifier{probs: []float64{0.1, 0.4, 0.35, 0.8}}
	y := []int{0, 0, 1, 1}
	yCopy := append([]int(nil), y...)

	got, err := Evaluate(m, rows(t, 4), y, 0.5)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	want := &Scores{Accuracy: 0.75, F1: 2.0 / 3.0, ROCAUC: 0.75, ROCAUCProba: 0.75}
	for name, pair := range map[string][2]float64{
		"accuracy":  {got.Accuracy, want.Accuracy},
		"f1":        {got.F1, want.F1},
		"roc_auc":   {got.ROCAUC, want.ROCAUC},
		"roc_proba": {got.ROCAUCProba, want.ROCAUCProba},
	} {
		if math.Abs(pair[0]-pair[1]) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, pair[0], pair[1])
		}
	}
	if got.Threshold != 0.5 {
		t.Errorf("Threshold = %v, want 0.5", got.Threshold)
	}
	if !reflect.DeepEqual(y, yCopy) {
		t.Errorf("labels mutated: %v", y)
	}
}

func TestEvaluate_ThresholdIsStrict(t *testing.T) {
	m := &fixedClassifier{probs: []float64{0.5, 0.5, 0.9, 0.1}}
	got, err := Evaluate(m, rows(t, 4), []int{1, 1, 1, 0}, 0.5)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// 0.5 恰好等于阈值，判为 0：只有第 3、4 行预测正确
	if got.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", got.Accuracy)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	m := &fixedClassifier{probs: []float64{0.2, 0.7}}
	tests := []struct {
		name      string
		y         []int
		threshold float64
		code      string
	}{
		{name: "single class", y: []int{1, 1}, threshold: 0.5, code: core.ErrorCodeDegenerateSplit},
		{name: "row mismatch", y: []int{1}, threshold: 0.5, code: core.ErrorCodeShapeMismatch},
		{name: "threshold out of range", y: []int{0, 1}, threshold: 1.5, code: core.ErrorCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(m, rows(t, 2), tt.y, tt.threshold)
			if !core.HasCode(err, tt.code) {
				t.Fatalf("Evaluate() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name   string
		y      []int
		scores []float64
		want   float64
	}{
		{name: "perfect", y: []int{0, 0, 1, 1}, scores: []float64{0.1, 0.2, 0.8, 0.9}, want: 1},
		{name: "inverted", y: []int{1, 1, 0, 0}, scores: []float64{0.1, 0.2, 0.8, 0.9}, want: 0},
		{name: "ties", y: []int{0, 1}, scores: []float64{0.5, 0.5}, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]float64(nil), tt.scores...)
			got, err := ROCAUC(tt.y, in)
			if err != nil {
				t.Fatalf("ROCAUC() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ROCAUC() = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(in, tt.scores) {
				t.Errorf("scores mutated: %v", in)
			}
		})
	}
}

func TestF1_NoPositivePredictions(t *testing.T) {
	if got := F1([]int{1, 0}, []int{0, 0}); got != 0 {
		t.Errorf("F1() = %v, want 0", got)
	}
}
