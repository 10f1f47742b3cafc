package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/airsat/logging"
	"github.com/rushteam/airsat/metrics"
)

// Pipeline 把训练流程拆成顺序执行的 Node 链。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Add 追加节点
func (p *Pipeline) Add(nodes ...Node) *Pipeline {
	p.Nodes = append(p.Nodes, nodes...)
	return p
}

// Run 依次执行各节点，任一节点失败立即停止，不产生部分成功的结果
func (p *Pipeline) Run(ctx context.Context, st *State) error {
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := node.Process(ctx, st)
		elapsed := time.Since(start)
		metrics.RecordStage(node.Name(), string(node.Kind()), elapsed)
		if err != nil {
			logging.Error().Err(err).
				Str("pipeline", p.Name).
				Str("node", node.Name()).
				Dur("duration", elapsed).
				Msg("node failed")
			return fmt.Errorf("pipeline %s: node %s: %w", p.Name, node.Name(), err)
		}
		logging.Info().
			Str("pipeline", p.Name).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("rows", st.Rows()).
			Dur("duration", elapsed).
			Msg("node finished")
	}
	return nil
}
