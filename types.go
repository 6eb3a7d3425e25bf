package drlrouting

import (
	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/internal/agent"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// NodeID 节点标识
	NodeID = types.NodeID
	// Address 报文目的地址
	Address = types.Address
	// Packet 待转发报文
	Packet = types.Packet
	// EnvState 环境状态向量
	EnvState = types.EnvState
	// AgentAction 决策动作
	AgentAction = types.AgentAction

	// NodeContext 环境协作方
	NodeContext = interfaces.NodeContext
	// DecisionSource 学习型决策源
	DecisionSource = interfaces.DecisionSource
	// Policy 决策策略
	Policy = interfaces.Policy
	// Transition 决策结果反馈
	Transition = interfaces.Transition

	// Agent 路由 Agent
	Agent = agent.Agent
	// Snapshot Agent 状态快照
	Snapshot = agent.Snapshot
	// Counters Agent 累计计数
	Counters = agent.Counters

	// Config 统一配置
	Config = config.Config
)

// NoNode 表示没有下一跳
const NoNode = types.NoNode
