package policy

import (
	"context"
	"math"

	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              几何启发式
// ============================================================================

// Heuristic 几何启发式策略
//
// 对每个有位置的候选邻居计算它到参考点的欧氏距离，取最小者；
// 距离相同时取先出现的候选。参考点依次为：
//  1. 目的节点位置（可解析时）
//  2. 本节点位置
//  3. 坐标原点
//
// 没有位置的候选被排除；全部被排除时返回 NoNode。
type Heuristic struct{}

// NewHeuristic 创建启发式策略
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name 策略名
func (h *Heuristic) Name() string {
	return NameHeuristic
}

// Decide 产生动作（发射功率 1.0，优先级 0）
func (h *Heuristic) Decide(_ context.Context, req *Request) types.AgentAction {
	action := types.NoAction(NameHeuristic)
	if req == nil {
		return action
	}
	action.DecisionID = req.DecisionID
	action.NextHop = h.Select(req)
	return action
}

// Select 选择下一跳
func (h *Heuristic) Select(req *Request) types.NodeID {
	if req == nil || req.Env == nil || len(req.Candidates) == 0 {
		return types.NoNode
	}

	ref := h.referencePoint(req)

	best := types.NoNode
	bestDist := math.Inf(1)
	for _, c := range req.Candidates {
		pos, ok := req.Env.Position(c)
		if !ok {
			continue
		}
		if d := pos.DistanceTo(ref); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// referencePoint 参考点
func (h *Heuristic) referencePoint(req *Request) types.Vector {
	if !req.DestNode.IsNone() {
		if pos, ok := req.Env.Position(req.DestNode); ok {
			return pos
		}
	}
	if pos, ok := req.Env.Position(req.Self); ok {
		return pos
	}
	return types.Vector{}
}
