package agent

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
)

// ============================================================================
//
//	Fx 模块定义
//
// ============================================================================

// Module 路由 Agent Fx 模块
var Module = fx.Module("agent",
	fx.Provide(
		NewMetricsFromParams,
		NewFactoryFromParams,
	),
	fx.Invoke(registerLifecycle),
)

// ============================================================================
//
//	Fx 参数和结果
//
// ============================================================================

// MetricsParams 指标依赖参数
type MetricsParams struct {
	fx.In

	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// MetricsResult 指标导出结果
type MetricsResult struct {
	fx.Out

	Metrics *Metrics
}

// FactoryParams 工厂依赖参数
type FactoryParams struct {
	fx.In

	UnifiedCfg     *config.Config            `optional:"true"`
	Metrics        *Metrics                  `optional:"true"`
	Source         interfaces.DecisionSource `optional:"true"`
	Clock          clock.Clock               `optional:"true"`
	TracerProvider trace.TracerProvider      `optional:"true"`
}

// FactoryResult 工厂导出结果
type FactoryResult struct {
	fx.Out

	Factory *Factory
}

// ============================================================================
//
//	构造函数
//
// ============================================================================

// NewMetricsFromParams 从 Fx 参数创建指标
//
// 指标被关闭时返回 nil，Agent 按无指标运行。
func NewMetricsFromParams(p MetricsParams) MetricsResult {
	cfg := config.DefaultMetricsConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Metrics
	}
	if !cfg.Enabled {
		return MetricsResult{}
	}
	reg := p.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return MetricsResult{Metrics: NewMetrics(reg, cfg.Namespace)}
}

// NewFactoryFromParams 从 Fx 参数创建工厂
func NewFactoryFromParams(p FactoryParams) (FactoryResult, error) {
	cfg := p.UnifiedCfg
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return FactoryResult{}, err
	}
	factory := NewFactory(cfg, p.Metrics, PolicyDeps{
		Source:         p.Source,
		Clock:          p.Clock,
		TracerProvider: p.TracerProvider,
	})
	return FactoryResult{Factory: factory}, nil
}

// ============================================================================
//
//	生命周期管理
//
// ============================================================================

// lifecycleInput Lifecycle 注册输入
type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Factory *Factory
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Factory.Close()
		},
	})
}
