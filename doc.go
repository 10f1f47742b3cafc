// Package airsat 是航空旅客满意度预测的训练与推理工具包。
//
// 设计要点：
// - Pipeline-first: 训练流程由 Node 串联（数据处理 → 模型训练 → 产物持久化）
// - 编码共享: 类别映射与列顺序只在训练时计算一次，推理侧只读加载，离线评估与在线预测走同一个 Encoder
// - 显式错误: 未知类别、缺失特征、列顺序不一致都返回带错误码的 core.DomainError，绝不静默降级
package airsat

import "github.com/rushteam/airsat/pipeline"

// 轻量 facade：便于直接 import "airsat" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Params = pipeline.Params

const (
	KindDataProcessing = pipeline.KindDataProcessing
	KindModelTraining  = pipeline.KindModelTraining
	KindPersist        = pipeline.KindPersist
)

// Run 执行完整的训练流水线，见 pipeline.Run
var Run = pipeline.Run
