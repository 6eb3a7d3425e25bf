package types

import (
	"fmt"
	"math"
)

// 动作取值范围
const (
	MinPriority = 0
	MaxPriority = 2

	// MinTxPower 发射功率下限（归一化），外部策略给出的更小值会被钳到这里
	MinTxPower = 0.1
	// MaxTxPower 发射功率上限（归一化）
	MaxTxPower = 1.0
)

// AgentAction 一次决策的结果
//
// 构造后不再修改；Agent 只保留最近一次。
type AgentAction struct {
	// NextHop 选中的邻居，NoNode 表示无决策
	NextHop NodeID

	// TxPower 发射功率 (0,1]
	TxPower float64

	// Priority 分配给报文的优先级 {0,1,2}
	Priority int

	// Policy 产生该动作的策略名
	Policy string

	// DecisionID 决策标识，用于关联日志与远端调用
	DecisionID string

	// Fallback 非空表示动作来自启发式回退路径，值为回退原因
	Fallback string
}

// NoAction 返回"无决策"动作
func NoAction(policy string) AgentAction {
	return AgentAction{
		NextHop:  NoNode,
		TxPower:  MaxTxPower,
		Priority: MinPriority,
		Policy:   policy,
	}
}

// HasNextHop 检查是否选出了下一跳
func (a AgentAction) HasNextHop() bool {
	return !a.NextHop.IsNone()
}

// IsFallback 检查是否走了回退路径
func (a AgentAction) IsFallback() bool {
	return a.Fallback != ""
}

// Validate 检查动作是否满足取值约束
//
// candidates 为 nil 时不检查下一跳归属。
func (a AgentAction) Validate(candidates []NodeID) error {
	if math.IsNaN(a.TxPower) || a.TxPower <= 0 || a.TxPower > MaxTxPower {
		return fmt.Errorf("%w: tx_power=%v out of (0,1]", ErrInvalidAction, a.TxPower)
	}
	if a.Priority < MinPriority || a.Priority > MaxPriority {
		return fmt.Errorf("%w: priority=%d out of {0,1,2}", ErrInvalidAction, a.Priority)
	}
	if candidates != nil && !a.NextHop.IsNone() && !ContainsNode(candidates, a.NextHop) {
		return fmt.Errorf("%w: next hop %s is not a candidate", ErrInvalidAction, a.NextHop)
	}
	return nil
}
