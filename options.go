package drlrouting

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置（三选一，优先级：config > configFile > 默认）
	config     *config.Config
	configFile string
	preset     string

	// Agent 覆盖
	historySize *int
	enabled     *bool

	// 策略覆盖
	policy          config.PolicyKind
	externalAddress string
	onnxModel       string

	// 指标
	metricsEnabled *bool
	registerer     prometheus.Registerer

	// 注入的协作方
	source         interfaces.DecisionSource
	clock          clock.Clock
	tracerProvider trace.TracerProvider

	// Fx 事件日志
	fxLogger *zap.Logger
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// toConfig 合并出最终配置
//
// 顺序：基础配置 → 预设 → 逐项覆盖 → 校验。
func (o *options) toConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case o.config != nil:
		cfg = o.config.Clone()
	case o.configFile != "":
		loaded, err := config.Load(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.NewConfig()
	}

	if o.preset != "" {
		if err := config.ApplyPreset(cfg, o.preset); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
		}
	}

	if o.historySize != nil {
		cfg.Agent.HistorySize = *o.historySize
	}
	if o.enabled != nil {
		cfg.Agent.Enabled = *o.enabled
	}
	if o.policy != "" {
		cfg.Policy.Kind = o.policy
	}
	if o.externalAddress != "" {
		cfg.Policy.External.Address = o.externalAddress
	}
	if o.onnxModel != "" {
		cfg.Policy.Onnx.ModelPath = o.onnxModel
	}
	if o.metricsEnabled != nil {
		cfg.Metrics.Enabled = *o.metricsEnabled
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置（会被复制）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("%w: config is nil", ErrInvalidOption)
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 或 YAML 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return fmt.Errorf("%w: config file path is empty", ErrInvalidOption)
		}
		o.configFile = path
		return nil
	}
}

// WithPreset 应用预设（default / learned / adaptive）
func WithPreset(name string) Option {
	return func(o *options) error {
		switch name {
		case PresetDefault, PresetLearned, PresetAdaptive:
			o.preset = name
			return nil
		}
		return fmt.Errorf("%w: unknown preset %q", ErrInvalidOption, name)
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Agent
// ════════════════════════════════════════════════════════════════════════════

// WithHistorySize 设置投递结果窗口容量
func WithHistorySize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("%w: history size must be positive, got %d", ErrInvalidOption, n)
		}
		o.historySize = &n
		return nil
	}
}

// WithEnabled 设置新建 Agent 是否参与决策
func WithEnabled(enabled bool) Option {
	return func(o *options) error {
		o.enabled = &enabled
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              策略
// ════════════════════════════════════════════════════════════════════════════

// WithPolicy 设置策略类型
func WithPolicy(kind config.PolicyKind) Option {
	return func(o *options) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: unknown policy %q", ErrInvalidOption, kind)
		}
		o.policy = kind
		return nil
	}
}

// WithExternalAddress 设置外部决策服务地址
func WithExternalAddress(addr string) Option {
	return func(o *options) error {
		o.externalAddress = addr
		return nil
	}
}

// WithOnnxModel 设置 ONNX 模型路径
func WithOnnxModel(path string) Option {
	return func(o *options) error {
		o.onnxModel = path
		return nil
	}
}

// WithDecisionSource 注入学习型决策源
//
// 注入后不再按配置打开决策源，关闭由调用方负责。
func WithDecisionSource(src interfaces.DecisionSource) Option {
	return func(o *options) error {
		if src == nil {
			return fmt.Errorf("%w: decision source is nil", ErrInvalidOption)
		}
		o.source = src
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              可观测性
// ════════════════════════════════════════════════════════════════════════════

// WithMetrics 启用或关闭指标
func WithMetrics(enabled bool) Option {
	return func(o *options) error {
		o.metricsEnabled = &enabled
		return nil
	}
}

// WithRegisterer 指定指标注册器（默认 prometheus.DefaultRegisterer）
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithTracerProvider 指定外部决策的追踪提供者
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) error {
		o.tracerProvider = tp
		return nil
	}
}

// WithClock 指定时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithFxLogger 输出 Fx 装配事件（默认丢弃）
func WithFxLogger(l *zap.Logger) Option {
	return func(o *options) error {
		o.fxLogger = l
		return nil
	}
}
