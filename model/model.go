package model

import "github.com/rushteam/airsat/dataset"

// Classifier 是二分类模型的最小抽象：按训练期列顺序输入已编码特征，输出每行的正类概率。
// 具体实现有训练得到的 Booster 以及包装它的校准模型 Calibrated。
type Classifier interface {
	Name() string
	// Features 返回模型要求的特征列顺序
	Features() []string
	PredictProba(x *dataset.Dataset) ([]float64, error)
}

// Trainer 在训练集上拟合 Classifier
type Trainer interface {
	Fit(x *dataset.Dataset, y []int) (Classifier, error)
}

// rowTracker 由记得训练行的模型实现，用于检测校准集与训练集重叠
type rowTracker interface {
	trainedOn(source uint64, id int) bool
}

// Classify 按阈值将概率转为类别编码，严格大于阈值才判为 1
func Classify(p, threshold float64) int {
	if p > threshold {
		return 1
	}
	return 0
}

// ClassifyAll 对一组概率逐个调用 Classify
func ClassifyAll(probs []float64, threshold float64) []int {
	out := make([]int, len(probs))
	for i, p := range probs {
		out[i] = Classify(p, threshold)
	}
	return out
}
