package interfaces

import (
	"context"

	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              决策策略
// ============================================================================

// DecisionRequest 一次下一跳决策的输入
type DecisionRequest struct {
	// DecisionID 决策标识
	DecisionID string

	// Self 本节点
	Self types.NodeID

	// Destination 报文目的地址（可为空）
	Destination types.Address

	// DestNode 目的地址解析出的节点，无法解析为 types.NoNode
	DestNode types.NodeID

	// Packet 待转发报文（可为 nil）
	Packet *types.Packet

	// State 刚刷新的环境状态
	State types.EnvState

	// Candidates 活跃邻居（查询顺序，非空）
	Candidates []types.NodeID

	// Env 节点上下文
	Env NodeContext
}

// Policy 下一跳决策策略
//
// Decide 不返回错误：任何失败都必须降级为有效动作（最差为 NoNode）。
type Policy interface {
	// Name 策略名
	Name() string

	// Decide 产生一个动作
	Decide(ctx context.Context, req *DecisionRequest) types.AgentAction
}

// ============================================================================
//                              外部决策源
// ============================================================================

// DecisionSource 外部（学习型）决策源
//
// 可能是进程外服务，也可能是进程内模型；返回值由适配器校验。
type DecisionSource interface {
	// Decide 根据状态和候选邻居给出动作
	Decide(ctx context.Context, state types.EnvState, candidates []types.NodeID) (types.AgentAction, error)
}

// Transition 一次决策及其结果（用于在线学习反馈）
type Transition struct {
	DecisionID string
	State      types.EnvState
	Action     types.AgentAction
	Success    bool
	Delay      float64
	Reward     float64
}

// OutcomeObserver 接收投递结果反馈
//
// Policy 或 DecisionSource 均可实现；Agent 在 UpdateStatistics 后转发。
type OutcomeObserver interface {
	Observe(ctx context.Context, tr Transition) error
}
