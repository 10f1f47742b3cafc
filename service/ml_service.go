package service

import "context"

// MLService 是推理服务的统一接口，HTTP 层只依赖此接口。
//
// 使用示例：
//
//	p, err := service.LoadPredictor(ctx, catalog)
//	pred, err := p.Predict(ctx, map[string]any{"gender": "Male", "age": 30.0})
type MLService interface {
	// Predict 对单条原始记录（特征名 -> 未编码的值）做预测
	Predict(ctx context.Context, record map[string]any) (*Prediction, error)

	// Health 健康检查
	Health(ctx context.Context) error

	// Close 释放资源
	Close() error
}

// Prediction 预测结果，JSON 形态即接口响应体
type Prediction struct {
	// Probability 校准后的正类概率
	Probability float64 `json:"probability"`
	// Class 解码后的类别标签
	Class string `json:"class"`
}
