package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-drlrouting/internal/agent"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              仿真结果
// ============================================================================

// Decision 一次决策记录
type Decision struct {
	Step        int
	Node        types.NodeID
	Destination types.NodeID
	NextHop     types.NodeID
	Policy      string
	Fallback    string
	Success     bool
	Delay       float64
}

// Result 仿真结果
type Result struct {
	Steps     int
	Elapsed   time.Duration
	Agents    []agent.Snapshot
	Decisions []Decision
}

// PDR 全网投递率
func (r *Result) PDR() float64 {
	var sent, received uint64
	for _, s := range r.Agents {
		sent += s.Counters.PacketsSent
		received += s.Counters.PacketsReceived
	}
	if sent == 0 {
		return 1.0
	}
	return float64(received) / float64(sent)
}

// ============================================================================
//                              仿真驱动
// ============================================================================

// Runner 仿真驱动
type Runner struct {
	world  *World
	agents []*agent.Agent
	rngs   []*rand.Rand
	record bool
}

// RunnerOption 驱动选项
type RunnerOption func(*Runner)

// WithDecisionLog 是否记录每一次决策（默认记录）
func WithDecisionLog(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.record = enabled
	}
}

// NewRunner 为每个节点创建 Agent
func NewRunner(world *World, factory *agent.Factory, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		world:  world,
		record: true,
	}
	seed := uint64(world.Config().Seed)
	for _, id := range world.Nodes() {
		view, err := world.View(id)
		if err != nil {
			return nil, err
		}
		a, err := factory.NewAgent(view)
		if err != nil {
			return nil, fmt.Errorf("create agent for node %s: %w", id, err)
		}
		r.agents = append(r.agents, a)
		r.rngs = append(r.rngs, rand.New(rand.NewPCG(seed, uint64(id)+1)))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Agents 返回节点 Agent（下标即节点 ID）
func (r *Runner) Agents() []*agent.Agent {
	return r.agents
}

// Run 运行 steps 步
//
// 每步所有节点并发决策一次，全部完成后推进世界。
// ctx 取消时在当前步结束后返回已完成部分的结果和 ctx 错误。
func (r *Runner) Run(ctx context.Context, steps int) (*Result, error) {
	clk := r.world.Clock()
	start := clk.Now()

	logs := make([][]Decision, len(r.agents))
	done := 0
	var runErr error

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := range r.agents {
			g.Go(func() error {
				d, ok := r.stepNode(gctx, step, i)
				if ok && r.record {
					logs[i] = append(logs[i], d)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			runErr = err
			break
		}

		r.world.Step()
		done++
	}

	res := &Result{
		Steps:   done,
		Elapsed: clk.Since(start),
	}
	for _, a := range r.agents {
		res.Agents = append(res.Agents, a.Snapshot())
	}
	for _, l := range logs {
		res.Decisions = append(res.Decisions, l...)
	}
	sort.SliceStable(res.Decisions, func(i, j int) bool {
		if res.Decisions[i].Step != res.Decisions[j].Step {
			return res.Decisions[i].Step < res.Decisions[j].Step
		}
		return res.Decisions[i].Node < res.Decisions[j].Node
	})

	logger.Info("仿真完成",
		"steps", done,
		"pdr", res.PDR(),
		"decisions", len(res.Decisions))
	return res, runErr
}

// stepNode 节点 i 的一次决策与发送
func (r *Runner) stepNode(ctx context.Context, step, i int) (Decision, bool) {
	a := r.agents[i]
	if !a.IsEnabled() {
		return Decision{}, false
	}
	rng := r.rngs[i]
	self := types.NodeID(i)

	// 随机选择其他节点作为目的地
	n := r.world.Size()
	dest := types.NodeID(rng.IntN(n - 1))
	if dest >= self {
		dest++
	}

	pkt := &types.Packet{
		ID:         uint64(step*n + i),
		Size:       512,
		Priority:   rng.IntN(types.MaxPriority + 1),
		EnqueuedAt: r.world.Clock().Now(),
	}

	next := a.SelectNextHop(ctx, pkt, AddressOf(dest))
	d := Decision{
		Step:        step,
		Node:        self,
		Destination: dest,
		NextHop:     next,
	}
	if action, ok := a.LastAction(); ok && !next.IsNone() {
		d.Policy = action.Policy
		d.Fallback = action.Fallback
	}

	// 无下一跳视为丢弃
	if next.IsNone() {
		a.UpdateStatisticsContext(ctx, false, 0)
		return d, true
	}

	tx := types.MaxTxPower
	if action, ok := a.LastAction(); ok {
		tx = action.TxPower
	}
	delivery := r.world.Transmit(self, next, dest, tx, rng)
	a.UpdateStatisticsContext(ctx, delivery.Success, delivery.Delay)

	d.Success = delivery.Success
	d.Delay = delivery.Delay
	return d, true
}
