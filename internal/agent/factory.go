package agent

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/internal/agent/policy"
	"github.com/dep2p/go-drlrouting/internal/agent/source/grpcsource"
	"github.com/dep2p/go-drlrouting/internal/agent/source/onnxsource"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              策略构建
// ============================================================================

// PolicyDeps 构建策略所需的依赖
type PolicyDeps struct {
	// Source 学习型决策源；heuristic 策略不需要
	Source interfaces.DecisionSource

	// Clock 健康追踪使用的时钟，nil 表示真实时钟
	Clock clock.Clock

	// TracerProvider 外部决策追踪，nil 表示全局
	TracerProvider trace.TracerProvider
}

// NewPolicy 按配置构建决策策略
//
// external 与 onnx 都通过外部适配器包装决策源，
// 共享超时、限流、健康检查和答案校验。
func NewPolicy(cfg config.PolicyConfig, deps PolicyDeps) (interfaces.Policy, error) {
	switch cfg.Kind {
	case config.PolicyHeuristic, "":
		return policy.NewHeuristic(), nil

	case config.PolicyExternal, config.PolicyOnnx:
		if deps.Source == nil {
			return nil, fmt.Errorf("%w: %s policy", policy.ErrNoSource, cfg.Kind)
		}
		clk := deps.Clock
		if clk == nil {
			clk = clock.New()
		}
		opts := []policy.ExternalOption{policy.WithName(string(cfg.Kind))}
		if deps.TracerProvider != nil {
			opts = append(opts, policy.WithTracerProvider(deps.TracerProvider))
		}
		return policy.NewExternalFromConfig(deps.Source, cfg.External, clk, opts...), nil

	case config.PolicyAdaptive:
		inner := cfg
		inner.Kind = cfg.Adaptive.Learned
		if !inner.Kind.Learned() {
			return nil, fmt.Errorf("%w: adaptive.learned=%q", ErrUnknownPolicy, cfg.Adaptive.Learned)
		}
		learned, err := NewPolicy(inner, deps)
		if err != nil {
			return nil, err
		}
		return policy.NewAdaptive(learned, cfg.Adaptive), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, cfg.Kind)
}

// OpenSource 按配置打开学习型决策源
//
// 不需要决策源时返回 (nil, nil)。
func OpenSource(cfg config.PolicyConfig) (interfaces.DecisionSource, error) {
	switch {
	case cfg.UsesExternal():
		client, err := grpcsource.Dial(cfg.External.Address)
		if err != nil {
			return nil, err
		}
		return client, nil
	case cfg.UsesOnnx():
		src, err := onnxsource.Open(onnxsource.OptionsFromConfig(cfg.Onnx))
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return nil, nil
}

// sharedSource 多个 Agent 共享的决策源
//
// 不暴露 Close，关闭由 Factory 统一负责。
type sharedSource struct {
	inner interfaces.DecisionSource
}

func (s sharedSource) Decide(ctx context.Context, st types.EnvState, candidates []types.NodeID) (types.AgentAction, error) {
	return s.inner.Decide(ctx, st, candidates)
}

func (s sharedSource) Observe(ctx context.Context, tr interfaces.Transition) error {
	if obs, ok := s.inner.(interfaces.OutcomeObserver); ok {
		return obs.Observe(ctx, tr)
	}
	return nil
}

// ============================================================================
//                              Agent 工厂
// ============================================================================

// Factory 按统一配置创建 Agent
//
// 同一工厂创建的 Agent 共享指标和学习型决策源。
type Factory struct {
	cfg     *config.Config
	metrics *Metrics
	deps    PolicyDeps

	mu          sync.Mutex
	source      interfaces.DecisionSource
	ownedSource bool
	agents      []*Agent
	closed      bool
}

// NewFactory 创建工厂
//
// deps.Source 为空且配置需要学习型策略时，首次创建 Agent 时打开决策源。
func NewFactory(cfg *config.Config, metrics *Metrics, deps PolicyDeps) *Factory {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Factory{
		cfg:     cfg,
		metrics: metrics,
		deps:    deps,
		source:  deps.Source,
	}
}

// Config 返回工厂配置
func (f *Factory) Config() *config.Config {
	return f.cfg
}

// Metrics 返回共享指标（可能为 nil）
func (f *Factory) Metrics() *Metrics {
	return f.metrics
}

// NewAgent 创建并初始化一个 Agent
//
// env 为 nil 时只创建不初始化。
func (f *Factory) NewAgent(env interfaces.NodeContext) (*Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	deps := f.deps
	if f.cfg.Policy.Kind != config.PolicyHeuristic {
		if f.source == nil {
			src, err := OpenSource(f.cfg.Policy)
			if err != nil {
				return nil, fmt.Errorf("open decision source: %w", err)
			}
			f.source = src
			f.ownedSource = true
		}
		deps.Source = sharedSource{inner: f.source}
	}

	p, err := NewPolicy(f.cfg.Policy, deps)
	if err != nil {
		return nil, err
	}

	a := New(f.cfg.Agent,
		WithPolicy(p),
		WithMetrics(f.metrics),
		WithStateConfig(f.cfg.State),
	)
	if env != nil {
		if err := a.Initialize(env); err != nil {
			return nil, err
		}
	}
	f.agents = append(f.agents, a)
	return a, nil
}

// Agents 返回已创建的 Agent
func (f *Factory) Agents() []*Agent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Agent, len(f.agents))
	copy(out, f.agents)
	return out
}

// Close 关闭所有 Agent 和工厂打开的决策源
func (f *Factory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	agents := f.agents
	f.agents = nil
	src, owned := f.source, f.ownedSource
	f.mu.Unlock()

	var err error
	for _, a := range agents {
		err = multierr.Append(err, a.Close())
	}
	if c, ok := src.(io.Closer); ok && owned {
		err = multierr.Append(err, c.Close())
	}
	return err
}
