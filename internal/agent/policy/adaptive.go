package policy

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              自适应策略
// ============================================================================

// Adaptive 自适应策略
//
// 节点表现良好时使用启发式，窗口投递率低于 PDRThreshold
// 或平均时延高于 DelayThreshold 时切换到学习型策略。
type Adaptive struct {
	heuristic *Heuristic
	learned   interfaces.Policy

	pdrThreshold   float64
	delayThreshold float64

	usingLearned atomic.Bool
	switches     atomic.Int64
}

var (
	_ interfaces.Policy          = (*Adaptive)(nil)
	_ interfaces.OutcomeObserver = (*Adaptive)(nil)
)

// NewAdaptive 创建自适应策略
func NewAdaptive(learned interfaces.Policy, cfg config.AdaptiveConfig) *Adaptive {
	return &Adaptive{
		heuristic:      NewHeuristic(),
		learned:        learned,
		pdrThreshold:   cfg.PDRThreshold,
		delayThreshold: cfg.DelayThreshold,
	}
}

// Name 策略名
func (a *Adaptive) Name() string {
	return NameAdaptive
}

// ShouldUseLearned 根据状态判断是否使用学习型策略
func (a *Adaptive) ShouldUseLearned(s types.EnvState) bool {
	return s.RecentPDR < a.pdrThreshold || s.RecentDelay > a.delayThreshold
}

// Switches 返回策略切换次数
func (a *Adaptive) Switches() int64 {
	return a.switches.Load()
}

// Decide 产生动作
func (a *Adaptive) Decide(ctx context.Context, req *Request) types.AgentAction {
	if req == nil {
		return a.heuristic.Decide(ctx, req)
	}

	useLearned := a.learned != nil && a.ShouldUseLearned(req.State)
	if a.usingLearned.Swap(useLearned) != useLearned {
		a.switches.Add(1)
		logger.Info("自适应策略切换",
			"node", req.Self,
			"learned", useLearned,
			"pdr", req.State.RecentPDR,
			"delay", req.State.RecentDelay)
	}

	if useLearned {
		return a.learned.Decide(ctx, req)
	}
	return a.heuristic.Decide(ctx, req)
}

// Observe 转发结果反馈给学习型策略
func (a *Adaptive) Observe(ctx context.Context, tr interfaces.Transition) error {
	if obs, ok := a.learned.(interfaces.OutcomeObserver); ok {
		return obs.Observe(ctx, tr)
	}
	return nil
}

// Close 关闭学习型策略
func (a *Adaptive) Close() error {
	if c, ok := a.learned.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
