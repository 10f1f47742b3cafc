package pipeline

import "context"

// Kind 用于标记 Node 所属阶段，方便按阶段打点与日志检索。
type Kind string

const (
	KindDataProcessing Kind = "data_processing" // 合并、重命名、质量校验、编码、切分
	KindModelTraining  Kind = "model_training"  // 训练、校准、评估
	KindPersist        Kind = "persist"         // 写入产物
)

// Node 是 Pipeline 的最小可扩展单元：读取 State 中上游节点的产物，写入自己负责的字段。
type Node interface {
	Name() string
	Kind() Kind
	Process(ctx context.Context, st *State) error
}

// NodeFunc 将函数包装为 Node
type NodeFunc struct {
	name string
	kind Kind
	fn   func(ctx context.Context, st *State) error
}

func NewNode(name string, kind Kind, fn func(ctx context.Context, st *State) error) *NodeFunc {
	return &NodeFunc{name: name, kind: kind, fn: fn}
}

func (n *NodeFunc) Name() string { return n.name }

func (n *NodeFunc) Kind() Kind { return n.kind }

func (n *NodeFunc) Process(ctx context.Context, st *State) error { return n.fn(ctx, st) }
