package drlrouting

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/fx"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/internal/agent"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
)

var logger = log.Logger("drlrouting")

// ════════════════════════════════════════════════════════════════════════════
//                              运行时
// ════════════════════════════════════════════════════════════════════════════

// Runtime 持有配置、共享决策源和指标，为每个节点创建 Agent
type Runtime struct {
	cfg     *config.Config
	app     *fx.App
	factory *agent.Factory

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建运行时（未启动）
func New(opts ...Option) (*Runtime, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	cfg, err := o.toConfig()
	if err != nil {
		return nil, err
	}

	r := &Runtime{cfg: cfg}
	r.app = buildFxApp(cfg, o, &r.factory)
	if err := r.app.Err(); err != nil {
		return nil, fmt.Errorf("build runtime: %w", err)
	}
	return r, nil
}

// Start 创建并启动运行时
func Start(ctx context.Context, opts ...Option) (*Runtime, error) {
	r, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Start(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Start 启动运行时
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}
	if err := r.app.Start(ctx); err != nil {
		return fmt.Errorf("start runtime: %w", err)
	}
	r.started = true

	logger.Info("运行时已启动",
		"policy", r.cfg.Policy.Kind,
		"historySize", r.cfg.Agent.HistorySize,
		"metrics", r.cfg.Metrics.Enabled)
	return nil
}

// Stop 停止运行时并关闭所有 Agent，可重复调用
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if !r.started {
		return r.factory.Close()
	}
	return r.app.Stop(ctx)
}

// Close 使用后台上下文停止运行时
func (r *Runtime) Close() error {
	return r.Stop(context.Background())
}

// Config 返回生效的配置
func (r *Runtime) Config() *config.Config {
	return r.cfg
}

// NewAgent 为一个节点创建 Agent
//
// env 非空时立即初始化；否则调用方稍后调用 Agent.Initialize。
func (r *Runtime) NewAgent(env NodeContext) (*Agent, error) {
	r.mu.Lock()
	started, closed := r.started, r.closed
	r.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if !started {
		return nil, ErrNotStarted
	}
	return r.factory.NewAgent(env)
}

// Agents 返回已创建的 Agent
func (r *Runtime) Agents() []*Agent {
	return r.factory.Agents()
}

// Factory 返回内部 Agent 工厂（仿真等内部工具使用）
func (r *Runtime) Factory() *agent.Factory {
	return r.factory
}
