package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

// BoostingTrainer 以循环提升（cyclic boosting）拟合 Booster：
// 每一轮按随机顺序逐个特征做一次带收缩的牛顿更新，每次只修改该特征的形状函数。
// 给定 seed 时训练结果是确定的。
type BoostingTrainer struct {
	seed           int64
	rounds         int
	learningRate   float64
	maxBins        int
	minSamplesLeaf int
	l2             float64
	cardinality    map[string]int
}

// BoostingOption 配置 BoostingTrainer
type BoostingOption func(*BoostingTrainer)

// WithSeed 设置随机种子（影响每轮的特征顺序）
func WithSeed(seed int64) BoostingOption {
	return func(t *BoostingTrainer) { t.seed = seed }
}

// WithRounds 设置提升轮数
func WithRounds(n int) BoostingOption {
	return func(t *BoostingTrainer) { t.rounds = n }
}

// WithLearningRate 设置收缩系数
func WithLearningRate(lr float64) BoostingOption {
	return func(t *BoostingTrainer) { t.learningRate = lr }
}

// WithMaxBins 设置数值特征最大分箱数
func WithMaxBins(n int) BoostingOption {
	return func(t *BoostingTrainer) { t.maxBins = n }
}

// WithMinSamplesLeaf 设置箱内最少样本数，不足的箱不更新
func WithMinSamplesLeaf(n int) BoostingOption {
	return func(t *BoostingTrainer) { t.minSamplesLeaf = n }
}

// WithL2 设置牛顿步的 L2 正则
func WithL2(v float64) BoostingOption {
	return func(t *BoostingTrainer) { t.l2 = v }
}

// WithCardinality 声明类别特征及其编码范围（通常来自 feature.Encoder.Cardinality）
func WithCardinality(card map[string]int) BoostingOption {
	return func(t *BoostingTrainer) {
		t.cardinality = make(map[string]int, len(card))
		for k, v := range card {
			t.cardinality[k] = v
		}
	}
}

// NewBoostingTrainer 创建训练器
func NewBoostingTrainer(opts ...BoostingOption) *BoostingTrainer {
	t := &BoostingTrainer{
		rounds:         300,
		learningRate:   0.05,
		maxBins:        64,
		minSamplesLeaf: 2,
		l2:             1.0,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit 实现 Trainer
func (t *BoostingTrainer) Fit(x *dataset.Dataset, y []int) (Classifier, error) {
	return t.FitBooster(x, y)
}

// FitBooster 在训练集上拟合 Booster。
// 行数不一致、标签不是 {0,1} 或只有单一类别、类别编码越界时直接失败。
func (t *BoostingTrainer) FitBooster(x *dataset.Dataset, y []int) (*Booster, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	n := x.Rows()
	if n != len(y) {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeShapeMismatch,
			"trainer: %d feature rows but %d labels", n, len(y))
	}
	if n == 0 || x.Width() == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: empty training set")
	}
	positives := 0
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: label %d at row %d is not binary", v, i)
		}
		positives += v
	}
	if positives == 0 || positives == n {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: training labels contain a single class")
	}

	names := x.Names()
	rows, err := x.Matrix(names)
	if err != nil {
		return nil, err
	}
	for name := range t.cardinality {
		if !x.Has(name) {
			return nil, core.Errorf(core.ModuleModel, core.ErrorCodeShapeMismatch, "trainer: categorical feature %q not in training set", name)
		}
	}

	terms := make([]*Term, len(names))
	bins := make([][]int, len(names))
	for j, name := range names {
		values := make([]float64, n)
		for i := range rows {
			values[i] = rows[i][j]
		}
		term := &Term{Feature: name}
		if card, ok := t.cardinality[name]; ok {
			term.Categorical = true
			term.Scores = make([]float64, card)
		} else {
			term.Cuts = cutPoints(values, t.maxBins)
			term.Scores = make([]float64, len(term.Cuts)+1)
		}
		bins[j] = make([]int, n)
		for i, v := range values {
			b, err := term.bin(v)
			if err != nil {
				return nil, err
			}
			bins[j][i] = b
		}
		terms[j] = term
	}

	base := float64(positives) / float64(n)
	intercept := math.Log(base / (1 - base))
	f := make([]float64, n)
	for i := range f {
		f[i] = intercept
	}

	rng := rand.New(rand.NewSource(t.seed))
	for r := 0; r < t.rounds; r++ {
		for _, j := range rng.Perm(len(terms)) {
			t.boostTerm(terms[j], bins[j], y, f)
		}
	}

	// 将每个形状函数在训练集上的均值并入截距，使各 Term 的贡献相对平均水平可比
	for j, term := range terms {
		mean := 0.0
		for _, b := range bins[j] {
			mean += term.score(b)
		}
		mean /= float64(n)
		for k := range term.Scores {
			term.Scores[k] -= mean
		}
		term.Missing -= mean
		intercept += mean

		abs := 0.0
		for _, b := range bins[j] {
			abs += math.Abs(term.score(b))
		}
		term.Importance = abs / float64(n)
	}

	train := make(map[int]struct{}, n)
	for _, id := range x.RowIDs() {
		train[id] = struct{}{}
	}
	return &Booster{
		Intercept: intercept,
		Terms:     terms,
		source:    x.Source(),
		trainRows: train,
	}, nil
}

// boostTerm 对单个特征做一次牛顿更新，同时更新全体样本的当前得分 f
func (t *BoostingTrainer) boostTerm(term *Term, bins []int, y []int, f []float64) {
	nb := len(term.Scores)
	g := make([]float64, nb+1)
	h := make([]float64, nb+1)
	cnt := make([]int, nb+1)
	slot := func(b int) int {
		if b < 0 {
			return nb
		}
		return b
	}
	for i, b := range bins {
		p := sigmoid(f[i])
		k := slot(b)
		g[k] += p - float64(y[i])
		h[k] += p * (1 - p)
		cnt[k]++
	}
	delta := make([]float64, nb+1)
	for k := range delta {
		if cnt[k] >= t.minSamplesLeaf {
			delta[k] = -t.learningRate * g[k] / (h[k] + t.l2)
		}
	}
	for k := 0; k < nb; k++ {
		term.Scores[k] += delta[k]
	}
	term.Missing += delta[nb]
	for i, b := range bins {
		f[i] += delta[slot(b)]
	}
}

func (t *BoostingTrainer) validate() error {
	switch {
	case t.rounds <= 0:
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: rounds must be positive, got %d", t.rounds)
	case !(t.learningRate > 0):
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: learning rate must be positive, got %v", t.learningRate)
	case t.maxBins < 2:
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: max bins must be >= 2, got %d", t.maxBins)
	case t.minSamplesLeaf < 1:
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: min samples leaf must be >= 1, got %d", t.minSamplesLeaf)
	case t.l2 < 0:
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: l2 must be >= 0, got %v", t.l2)
	}
	for name, card := range t.cardinality {
		if card <= 0 {
			return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "trainer: feature %q has cardinality %d", name, card)
		}
	}
	return nil
}

// cutPoints 计算数值特征的分箱边界。
// 不同取值不超过 maxBins 时取相邻取值的中点，否则取分位点。
func cutPoints(values []float64, maxBins int) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	uniq := sorted[:1:1]
	for _, v := range sorted[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) <= maxBins {
		cuts := make([]float64, 0, len(uniq)-1)
		for i := 0; i+1 < len(uniq); i++ {
			cuts = append(cuts, uniq[i]+(uniq[i+1]-uniq[i])/2)
		}
		return cuts
	}

	last := sorted[len(sorted)-1]
	cuts := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		c := sorted[k*len(sorted)/maxBins]
		if c >= last {
			break
		}
		if len(cuts) == 0 || c > cuts[len(cuts)-1] {
			cuts = append(cuts, c)
		}
	}
	return cuts
}
