package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/airsat/dataset"
)

// Statistics 单列统计信息。
// 数值列填充 Mean 到 P99（均跳过 NaN），类别列只填充 Distinct。
type Statistics struct {
	Kind     string  `json:"kind"`
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Distinct int     `json:"distinct"`
	Mean     float64 `json:"mean,omitempty"`
	Std      float64 `json:"std,omitempty"`
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Median   float64 `json:"median,omitempty"`
	P25      float64 `json:"p25,omitempty"`
	P75      float64 `json:"p75,omitempty"`
	P95      float64 `json:"p95,omitempty"`
	P99      float64 `json:"p99,omitempty"`
}

// Profile 计算数据集每一列的统计信息，作为训练数据的快照随模型一起保存
func Profile(ds *dataset.Dataset) map[string]*Statistics {
	out := make(map[string]*Statistics, ds.Width())
	for _, c := range ds.Columns() {
		if c.Kind == dataset.Categorical {
			out[c.Name] = categoricalStatistics(c.Strings)
			continue
		}
		out[c.Name] = ComputeStatistics(c.Numbers)
	}
	return out
}

func categoricalStatistics(values []string) *Statistics {
	s := &Statistics{Kind: "categorical", Count: len(values)}
	seen := make(map[string]struct{})
	for _, v := range values {
		if v == "" {
			s.Missing++
			continue
		}
		seen[v] = struct{}{}
	}
	s.Distinct = len(seen)
	return s
}

// ComputeStatistics 计算数值列统计信息，NaN 计入 Missing
func ComputeStatistics(values []float64) *Statistics {
	s := &Statistics{Kind: "numeric", Count: len(values)}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			s.Missing++
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return s
	}
	sort.Float64s(sorted)

	distinct := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			distinct++
		}
	}
	s.Distinct = distinct
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	s.Mean, s.Std = stat.PopMeanStdDev(sorted, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.P75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	s.P99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return s
}
