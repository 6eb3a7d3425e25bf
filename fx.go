package drlrouting

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/internal/agent"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 可选协作方（注册器、决策源、时钟、追踪）只在用户提供时注入，
// 其余由 agent 模块按配置补齐。
func buildFxApp(cfg *config.Config, o *options, factory **agent.Factory) *fx.App {
	modules := []fx.Option{
		fx.Supply(cfg),
	}

	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}
	if o.source != nil {
		src := o.source
		modules = append(modules, fx.Provide(func() interfaces.DecisionSource { return src }))
	}
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.tracerProvider != nil {
		tp := o.tracerProvider
		modules = append(modules, fx.Provide(func() trace.TracerProvider { return tp }))
	}

	fxLogger := o.fxLogger
	if fxLogger == nil {
		fxLogger = zap.NewNop()
	}

	modules = append(modules,
		agent.Module,
		fx.Populate(factory),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: fxLogger}
		}),
	)

	return fx.New(modules...)
}
