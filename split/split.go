// Package split 将编码后的数据集切分为训练集、校准集与测试集。
package split

import (
	"math"
	"math/rand"

	"github.com/rushteam/airsat/core"
	"github.com/rushteam/airsat/dataset"
)

const (
	// DefaultTestSize 首次切分时留出的比例（其余 60% 用于训练）
	DefaultTestSize = 0.4
	// DefaultCalibrationTestSize 留出部分再次切分时测试集所占比例（其余用于校准）
	DefaultCalibrationTestSize = 0.33
)

// Option 配置 Split
type Option func(*options)

type options struct {
	testSize            float64
	calibrationTestSize float64
}

// WithTestSize 设置首次切分留出的比例
func WithTestSize(v float64) Option {
	return func(o *options) { o.testSize = v }
}

// WithCalibrationTestSize 设置留出部分中测试集的比例
func WithCalibrationTestSize(v float64) Option {
	return func(o *options) { o.calibrationTestSize = v }
}

// Result 切分结果，三个子集两两不相交且覆盖全部行
type Result struct {
	Train       *dataset.Dataset
	Calibration *dataset.Dataset
	Test        *dataset.Dataset
}

// Split 以 seed 驱动的洗牌切分数据集：先留出 testSize 作为剩余部分，
// 剩余部分再按 calibrationTestSize 切出测试集，其余作为校准集。
// 同一 seed 与同一输入顺序得到完全相同的切分；任一子集为空时返回 DEGENERATE_SPLIT。
func Split(ds *dataset.Dataset, seed int64, opts ...Option) (*Result, error) {
	o := options{testSize: DefaultTestSize, calibrationTestSize: DefaultCalibrationTestSize}
	for _, opt := range opts {
		opt(&o)
	}
	for _, v := range []float64{o.testSize, o.calibrationTestSize} {
		if !(v > 0 && v < 1) {
			return nil, core.Errorf(core.ModuleSplit, core.ErrorCodeInvalidInput, "split: size %v must be in (0,1)", v)
		}
	}

	all := make([]int, ds.Rows())
	for i := range all {
		all[i] = i
	}
	rest, train := partition(all, o.testSize, seed)
	test, calib := partition(rest, o.calibrationTestSize, seed)

	res := &Result{}
	for _, p := range []struct {
		name string
		idx  []int
		dst  **dataset.Dataset
	}{
		{"train", train, &res.Train},
		{"calibration", calib, &res.Calibration},
		{"test", test, &res.Test},
	} {
		if len(p.idx) == 0 {
			return nil, core.Errorf(core.ModuleSplit, core.ErrorCodeDegenerateSplit,
				"split: %s subset is empty (%d rows total)", p.name, ds.Rows())
		}
		sub, err := ds.Take(p.idx)
		if err != nil {
			return nil, err
		}
		*p.dst = sub
	}
	return res, nil
}

// partition 洗牌后取前 ceil(size*n) 个作为留出部分，其余为保留部分
func partition(idx []int, size float64, seed int64) (heldOut, kept []int) {
	n := len(idx)
	nHeld := int(math.Ceil(size * float64(n)))
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	heldOut = make([]int, 0, nHeld)
	kept = make([]int, 0, n-nHeld)
	for i, p := range perm {
		if i < nHeld {
			heldOut = append(heldOut, idx[p])
		} else {
			kept = append(kept, idx[p])
		}
	}
	return heldOut, kept
}

// SeparateLabel 将子集拆分为仅含特征的数据集与按行对齐的标签序列。
// 标签列必须已编码为非负整数。
func SeparateLabel(ds *dataset.Dataset, label string) (*dataset.Dataset, []int, error) {
	c, ok := ds.Column(label)
	if !ok {
		return nil, nil, core.Errorf(core.ModuleSplit, core.ErrorCodeDataQuality, "split: label column %q not found", label)
	}
	if c.Kind != dataset.Numeric {
		return nil, nil, core.Errorf(core.ModuleSplit, core.ErrorCodeInvalidInput, "split: label column %q is not encoded", label)
	}
	y := make([]int, len(c.Numbers))
	for i, v := range c.Numbers {
		if v < 0 || v != math.Trunc(v) {
			return nil, nil, core.Errorf(core.ModuleSplit, core.ErrorCodeInvalidInput,
				"split: label %v at row %d is not a class code", v, i)
		}
		y[i] = int(v)
	}
	features, err := ds.Drop(label)
	if err != nil {
		return nil, nil, err
	}
	return features, y, nil
}
