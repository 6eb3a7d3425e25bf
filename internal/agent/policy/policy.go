package policy

import (
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
)

var logger = log.Logger("agent/policy")

// Request 决策输入
type Request = interfaces.DecisionRequest

// 策略名
const (
	NameHeuristic = "heuristic"
	NameExternal  = "external"
	NameAdaptive  = "adaptive"
)

// 回退原因（AgentAction.Fallback）
const (
	FallbackNoSource  = "no_source"
	FallbackError     = "error"
	FallbackTimeout   = "timeout"
	FallbackInvalid   = "invalid"
	FallbackThrottled = "throttled"
	FallbackSuspended = "suspended"
)

// 奖励参数
const (
	rewardSuccess    = 1.0
	rewardFailure    = -1.0
	rewardDelayScale = 0.005
)

// Reward 计算一次投递结果的奖励
//
// 成功 +1，失败 -1，再按时延（毫秒）扣减 0.005/ms。
func Reward(success bool, delay float64) float64 {
	r := rewardFailure
	if success {
		r = rewardSuccess
	}
	if delay > 0 {
		r -= rewardDelayScale * delay
	}
	return r
}
