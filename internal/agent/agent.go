package agent

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/internal/agent/policy"
	"github.com/dep2p/go-drlrouting/internal/agent/state"
	"github.com/dep2p/go-drlrouting/internal/agent/stats"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var logger = log.Logger("agent")

// ============================================================================
//                              路由 Agent
// ============================================================================

// Agent 每节点的路由决策 Agent
//
// 设计上由单个事件循环驱动；内部用互斥锁保护，
// 多个 Agent 可以在各自的 goroutine 上并发运行。
type Agent struct {
	mu sync.Mutex

	// 组件
	tracker   *stats.Tracker
	builder   *state.Builder
	policy    interfaces.Policy
	heuristic *policy.Heuristic
	metrics   *Metrics
	newID     func() string

	// 环境（不持有所有权）
	env  interfaces.NodeContext
	self types.NodeID

	// 状态
	enabled    bool
	state      types.EnvState
	lastAction types.AgentAction
	hasAction  bool
	lastTarget state.Target
	counters   Counters
	decisions  int64
	fallbacks  int64
	closed     bool
}

// Option Agent 选项
type Option func(*Agent)

// WithPolicy 设置决策策略（默认启发式）
func WithPolicy(p interfaces.Policy) Option {
	return func(a *Agent) {
		if p != nil {
			a.policy = p
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithStateConfig 设置状态构建配置
func WithStateConfig(cfg config.StateConfig) Option {
	return func(a *Agent) {
		a.builder = state.NewBuilder(cfg)
	}
}

// WithDecisionIDs 设置决策 ID 生成器（默认 uuid）
func WithDecisionIDs(fn func() string) Option {
	return func(a *Agent) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// New 创建 Agent
//
// 初始状态：投递率 1.0，能量 1.0，计数器为零，尚未绑定环境。
func New(cfg config.AgentConfig, opts ...Option) *Agent {
	heuristic := policy.NewHeuristic()
	a := &Agent{
		tracker:   stats.NewTracker(cfg.HistorySize),
		builder:   state.NewBuilder(config.DefaultStateConfig()),
		policy:    heuristic,
		heuristic: heuristic,
		newID:     uuid.NewString,
		self:      types.NoNode,
		enabled:   cfg.Enabled,
		state:     types.DefaultEnvState(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ============================================================================
//                              生命周期
// ============================================================================

// Initialize 绑定环境并刷新一次状态
//
// 重复调用会重新绑定并重新刷新。
func (a *Agent) Initialize(env interfaces.NodeContext) error {
	if env == nil {
		return ErrNilEnvironment
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	rebind := a.env != nil
	a.env = env
	a.self = env.LocalNode()
	a.builder.Resolver().Purge()
	a.refreshLocked()

	logger.Info("路由 Agent 已初始化",
		"node", a.self,
		"policy", a.policy.Name(),
		"rebind", rebind,
		"neighbors", a.state.NumNeighbors)
	return nil
}

// Close 关闭 Agent 及其策略
func (a *Agent) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	p := a.policy
	a.mu.Unlock()

	var err error
	if c, ok := p.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// ============================================================================
//                              决策
// ============================================================================

// SelectNextHop 为报文选择下一跳
//
// 未启用、未初始化或没有活跃邻居时返回 NoNode；
// 不修改窗口统计和累计计数。
func (a *Agent) SelectNextHop(ctx context.Context, pkt *types.Packet, dest types.Address) types.NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled || a.closed {
		a.metrics.recordSkipped(a.self, outcomeDisabled)
		return types.NoNode
	}
	if a.env == nil {
		a.metrics.recordSkipped(a.self, outcomeUninit)
		return types.NoNode
	}

	a.lastTarget = state.Target{Destination: dest, Packet: pkt}
	a.refreshLocked()

	candidates := a.env.ActiveNeighbors(a.self)
	if len(candidates) == 0 {
		logger.Debug("没有活跃邻居", "node", a.self, "dest", dest)
		a.metrics.recordSkipped(a.self, outcomeNoNeighbor)
		return types.NoNode
	}

	destNode, ok := a.builder.ResolveDestination(a.env, dest)
	if !ok {
		destNode = types.NoNode
	}

	req := &interfaces.DecisionRequest{
		DecisionID:  a.newID(),
		Self:        a.self,
		Destination: dest,
		DestNode:    destNode,
		Packet:      pkt,
		State:       a.state,
		Candidates:  candidates,
		Env:         a.env,
	}

	start := time.Now()
	action := a.policy.Decide(ctx, req)
	if err := action.Validate(candidates); err != nil {
		logger.Warn("策略返回无效动作，回退到启发式",
			"node", a.self,
			"policy", a.policy.Name(),
			"err", err)
		action = a.heuristic.Decide(ctx, req)
		action.Fallback = policy.FallbackInvalid
	}
	took := time.Since(start)

	a.lastAction = action
	a.hasAction = true
	a.decisions++
	if action.IsFallback() {
		a.fallbacks++
	}

	outcome := outcomeForwarded
	if action.NextHop.IsNone() {
		outcome = outcomeNoHop
	}
	a.metrics.recordDecision(a.self, action, outcome, took)

	logger.Debug("下一跳决策",
		"node", a.self,
		"dest", dest,
		"nextHop", action.NextHop,
		"policy", action.Policy,
		"fallback", action.Fallback,
		"decisionID", log.ShortID(action.DecisionID, 8))

	return action.NextHop
}

// ============================================================================
//                              统计
// ============================================================================

// UpdateStatistics 记录一次投递结果
func (a *Agent) UpdateStatistics(success bool, delay float64) {
	a.UpdateStatisticsContext(context.Background(), success, delay)
}

// UpdateStatisticsContext 记录一次投递结果，并把结果反馈给策略
//
// 累计发送数总是加一；成功时累计接收数加一、累计时延加上 delay。
// 无论成败都写入窗口并刷新状态。
func (a *Agent) UpdateStatisticsContext(ctx context.Context, success bool, delay float64) {
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		delay = 0
	}

	a.mu.Lock()
	a.counters.PacketsSent++
	if success {
		a.counters.PacketsReceived++
		a.counters.TotalDelay += delay
	}
	a.tracker.Record(success, delay)

	decided := a.state
	action, hasAction := a.lastAction, a.hasAction
	// 报文已离开队列，只保留目的地址
	a.lastTarget.Packet = nil
	a.refreshLocked()

	self, p := a.self, a.policy
	a.metrics.recordOutcome(self, success, a.state.RecentPDR, a.state.RecentDelay)
	a.mu.Unlock()

	obs, ok := p.(interfaces.OutcomeObserver)
	if !ok || !hasAction {
		return
	}
	tr := interfaces.Transition{
		DecisionID: action.DecisionID,
		State:      decided,
		Action:     action,
		Success:    success,
		Delay:      delay,
		Reward:     policy.Reward(success, delay),
	}
	if err := obs.Observe(ctx, tr); err != nil {
		logger.Debug("结果反馈失败", "node", self, "err", err)
	}
}

// refreshLocked 刷新环境状态
func (a *Agent) refreshLocked() {
	a.state = a.builder.Build(a.env, a.self, a.tracker, a.lastTarget)
}

// ============================================================================
//                              访问器
// ============================================================================

// SetEnabled 设置是否参与决策
func (a *Agent) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled 是否参与决策
func (a *Agent) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// GetCurrentState 返回最近一次刷新的状态
func (a *Agent) GetCurrentState() types.EnvState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastAction 返回最近一次决策的动作
func (a *Agent) LastAction() (types.AgentAction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAction, a.hasAction
}

// Counters 返回累计计数
func (a *Agent) Counters() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}

// Node 返回绑定的节点，未初始化时为 NoNode
func (a *Agent) Node() types.NodeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.self
}

// Policy 返回当前策略
func (a *Agent) Policy() interfaces.Policy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.policy
}

// SetPolicy 替换决策策略，nil 表示恢复启发式
//
// 旧策略不会被关闭，由调用方负责。
func (a *Agent) SetPolicy(p interfaces.Policy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p == nil {
		p = a.heuristic
	}
	a.policy = p
}

// SetHistorySize 调整窗口容量
func (a *Agent) SetHistorySize(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.tracker.SetCapacity(n); err != nil {
		return err
	}
	a.refreshLocked()
	return nil
}

// Snapshot 返回状态快照
func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Node:        a.self,
		Enabled:     a.enabled,
		Initialized: a.env != nil,
		Policy:      a.policy.Name(),
		State:       a.state,
		LastAction:  a.lastAction,
		HasAction:   a.hasAction,
		Counters:    a.counters,
		Window:      a.tracker.Snapshot(),
		Decisions:   a.decisions,
		Fallbacks:   a.fallbacks,
	}
}
