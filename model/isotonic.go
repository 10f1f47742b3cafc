package model

import (
	"math"
	"sort"

	"github.com/rushteam/airsat/core"
)

// Isotonic 是单调非减的分段线性映射，由保序回归（PAVA）拟合得到。
// 输入落在 [X[0], X[len-1]] 之外时截断到端点取值。
type Isotonic struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// FitIsotonic 拟合从原始得分到正类频率的保序映射
func FitIsotonic(scores []float64, y []int) (*Isotonic, error) {
	if len(scores) != len(y) {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeShapeMismatch,
			"isotonic: %d scores but %d labels", len(scores), len(y))
	}
	if len(scores) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "isotonic: no samples")
	}

	type point struct{ x, y float64 }
	pts := make([]point, len(scores))
	for i, s := range scores {
		if math.IsNaN(s) {
			return nil, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "isotonic: score at row %d is NaN", i)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "isotonic: label %d at row %d is not binary", y[i], i)
		}
		pts[i] = point{s, float64(y[i])}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	// 相同得分先合并为一个加权点
	type block struct {
		lo, hi  float64
		sum, wt float64
	}
	var blocks []block
	for i := 0; i < len(pts); {
		j := i
		b := block{lo: pts[i].x, hi: pts[i].x}
		for j < len(pts) && pts[j].x == pts[i].x {
			b.sum += pts[j].y
			b.wt++
			j++
		}
		i = j

		blocks = append(blocks, b)
		// 违反单调性时与前一块合并
		for len(blocks) > 1 {
			last, prev := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if prev.sum/prev.wt < last.sum/last.wt {
				break
			}
			blocks = blocks[:len(blocks)-1]
			blocks[len(blocks)-1] = block{lo: prev.lo, hi: last.hi, sum: prev.sum + last.sum, wt: prev.wt + last.wt}
		}
	}

	m := &Isotonic{}
	for _, b := range blocks {
		v := b.sum / b.wt
		m.X = append(m.X, b.lo)
		m.Y = append(m.Y, v)
		if b.hi != b.lo {
			m.X = append(m.X, b.hi)
			m.Y = append(m.Y, v)
		}
	}
	return m, nil
}

// Transform 将原始得分映射为校准后的概率
func (m *Isotonic) Transform(v float64) float64 {
	n := len(m.X)
	switch {
	case n == 0:
		return v
	case v <= m.X[0]:
		return m.Y[0]
	case v >= m.X[n-1]:
		return m.Y[n-1]
	}
	// X[i-1] < v < X[i]，或 v == X[i]
	i := sort.SearchFloat64s(m.X, v)
	if m.X[i] == v {
		return m.Y[i]
	}
	x0, x1 := m.X[i-1], m.X[i]
	y0, y1 := m.Y[i-1], m.Y[i]
	return y0 + (y1-y0)*(v-x0)/(x1-x0)
}

// Validate 校验（反序列化得到的）映射：长度一致、X 严格递增、Y 单调非减且位于 [0,1]
func (m *Isotonic) Validate() error {
	if len(m.X) == 0 || len(m.X) != len(m.Y) {
		return core.Errorf(core.ModuleModel, core.ErrorCodeShapeMismatch, "isotonic: %d thresholds but %d values", len(m.X), len(m.Y))
	}
	for i := range m.X {
		if m.Y[i] < 0 || m.Y[i] > 1 {
			return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "isotonic: value %v outside [0,1]", m.Y[i])
		}
		if i > 0 && (m.X[i] <= m.X[i-1] || m.Y[i] < m.Y[i-1]) {
			return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "isotonic: not monotonic at %d", i)
		}
	}
	return nil
}
