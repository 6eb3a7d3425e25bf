package policy

import (
	"context"
	"sync/atomic"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// RoundRobinSource 轮询候选邻居的基线决策源
//
// 不看状态，依次把流量分散到每个候选邻居上。
// 用作参考决策服务的默认后端，也便于对比学习型策略的收益。
type RoundRobinSource struct {
	next atomic.Uint64
}

var _ interfaces.DecisionSource = (*RoundRobinSource)(nil)

// NewRoundRobinSource 创建轮询决策源
func NewRoundRobinSource() *RoundRobinSource {
	return &RoundRobinSource{}
}

// Decide 选择下一个候选
func (r *RoundRobinSource) Decide(_ context.Context, _ types.EnvState, candidates []types.NodeID) (types.AgentAction, error) {
	if len(candidates) == 0 {
		return types.AgentAction{}, ErrNoCandidates
	}
	i := (r.next.Add(1) - 1) % uint64(len(candidates))

	action := types.NoAction("roundrobin")
	action.NextHop = candidates[i]
	return action, nil
}
