package model

import (
	"math"
	"sort"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// Booster 实现了可解释的加性提升模型（Explainable Boosting Machine 风格）。
//
// 预测原理：
// 1. 每个特征对应一个分段常数的形状函数 Term，按特征值所在分箱取分数
// 2. 加性求和: z = Intercept + sum(Term_i(x_i))
// 3. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 每个 Term 的分数可以直接解读为该特征对对数几率的贡献，模型因此是可解释的。
type Booster struct {
	Intercept float64 `json:"intercept"`
	Terms     []*Term `json:"terms"`

	// 训练行来源，仅在内存中保留，用于校准时的重叠检测
	source    uint64
	trainRows map[int]struct{}
}

// Term 是单个特征的形状函数。
// 数值特征按 Cuts 分箱：第 i 箱为 (Cuts[i-1], Cuts[i]]，NaN 落入 Missing；
// 类别特征直接以编码作为箱号，编码必须落在 [0, len(Scores)) 内。
type Term struct {
	Feature     string    `json:"feature"`
	Categorical bool      `json:"categorical"`
	Cuts        []float64 `json:"cuts,omitempty"`
	Scores      []float64 `json:"scores"`
	Missing     float64   `json:"missing"`
	Importance  float64   `json:"importance"`
}

// bin 返回取值所在箱号，缺失值返回 -1
func (t *Term) bin(v float64) (int, error) {
	if math.IsNaN(v) {
		return -1, nil
	}
	if !t.Categorical {
		return sort.SearchFloat64s(t.Cuts, v), nil
	}
	if v != math.Trunc(v) || v < 0 || int(v) >= len(t.Scores) {
		return 0, core.Errorf(core.ModuleModel, core.ErrorCodeOutOfRange,
			"booster: feature %q code %v out of range [0,%d)", t.Feature, v, len(t.Scores))
	}
	return int(v), nil
}

func (t *Term) score(b int) float64 {
	if b < 0 {
		return t.Missing
	}
	return t.Scores[b]
}

func (b *Booster) Name() string { return "ebm" }

// Features 返回模型要求的特征列顺序
func (b *Booster) Features() []string {
	out := make([]string, len(b.Terms))
	for i, t := range b.Terms {
		out[i] = t.Feature
	}
	return out
}

// Cardinality 返回类别特征的编码范围
func (b *Booster) Cardinality() map[string]int {
	out := make(map[string]int)
	for _, t := range b.Terms {
		if t.Categorical {
			out[t.Feature] = len(t.Scores)
		}
	}
	return out
}

// Logits 返回每行的加性得分（对数几率）
func (b *Booster) Logits(x *dataset.Dataset) ([]float64, error) {
	rows, err := x.Matrix(b.Features())
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		z := b.Intercept
		for j, t := range b.Terms {
			bin, err := t.bin(row[j])
			if err != nil {
				return nil, err
			}
			z += t.score(bin)
		}
		out[i] = z
	}
	return out, nil
}

func (b *Booster) PredictProba(x *dataset.Dataset) ([]float64, error) {
	z, err := b.Logits(x)
	if err != nil {
		return nil, err
	}
	for i := range z {
		z[i] = sigmoid(z[i])
	}
	return z, nil
}

// Importance 特征重要性：训练集上该特征贡献绝对值的均值
type Importance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// Importances 按重要性从高到低返回各特征
func (b *Booster) Importances() []Importance {
	out := make([]Importance, len(b.Terms))
	for i, t := range b.Terms {
		out[i] = Importance{Feature: t.Feature, Score: t.Importance}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Explanation 单行预测的分解：Intercept 加上各特征贡献即为 Logit
type Explanation struct {
	Intercept     float64            `json:"intercept"`
	Contributions map[string]float64 `json:"contributions"`
	Logit         float64            `json:"logit"`
	Probability   float64            `json:"probability"`
}

// Explain 返回第 row 行的逐特征贡献
func (b *Booster) Explain(x *dataset.Dataset, row int) (*Explanation, error) {
	if row < 0 || row >= x.Rows() {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeOutOfRange, "booster: row %d out of range [0,%d)", row, x.Rows())
	}
	rows, err := x.Matrix(b.Features())
	if err != nil {
		return nil, err
	}
	e := &Explanation{Intercept: b.Intercept, Contributions: make(map[string]float64, len(b.Terms))}
	z := b.Intercept
	for j, t := range b.Terms {
		bin, err := t.bin(rows[row][j])
		if err != nil {
			return nil, err
		}
		s := t.score(bin)
		e.Contributions[t.Feature] = s
		z += s
	}
	e.Logit = z
	e.Probability = sigmoid(z)
	return e, nil
}

// Validate 校验（反序列化得到的）模型结构
func (b *Booster) Validate() error {
	if len(b.Terms) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "booster: no terms")
	}
	seen := make(map[string]struct{}, len(b.Terms))
	for _, t := range b.Terms {
		if t == nil {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "booster: nil term")
		}
		if _, dup := seen[t.Feature]; dup {
			return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "booster: feature %q has two terms", t.Feature)
		}
		seen[t.Feature] = struct{}{}
		want := len(t.Cuts) + 1
		if t.Categorical {
			want = len(t.Scores)
			if want == 0 || len(t.Cuts) != 0 {
				return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "booster: categorical term %q is malformed", t.Feature)
			}
		}
		if len(t.Scores) != want {
			return core.Errorf(core.ModuleModel, core.ErrorCodeShapeMismatch,
				"booster: term %q has %d scores, want %d", t.Feature, len(t.Scores), want)
		}
		if !sort.Float64sAreSorted(t.Cuts) {
			return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "booster: term %q cuts not sorted", t.Feature)
		}
	}
	return nil
}

func (b *Booster) trainedOn(source uint64, id int) bool {
	if b.trainRows == nil || source != b.source {
		return false
	}
	_, ok := b.trainRows[id]
	return ok
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
