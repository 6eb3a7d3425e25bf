// Package config 提供 drlrouting 的统一配置
//
// 主 Config 嵌入所有子配置，每个子配置在独立文件中定义：
//   - Agent: 路由 Agent（历史窗口、启用开关）
//   - Policy: 决策策略（启发式/外部/ONNX/自适应）
//   - State: 状态构建（目的地址解析缓存）
//   - Metrics: Prometheus 指标
//   - Log: 日志级别与格式
//   - Simulation: 参考仿真环境
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Policy.Kind = config.PolicyExternal
//
//	// 预设
//	_ = config.ApplyPreset(cfg, "adaptive")
//
//	// 从文件加载（按扩展名选择 JSON 或 YAML）
//	cfg, err := config.Load("drlrouting.yaml")
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 配置无效
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config 完整配置
type Config struct {
	// Agent 路由 Agent 配置
	Agent AgentConfig `json:"agent" yaml:"agent"`

	// Policy 决策策略配置
	Policy PolicyConfig `json:"policy" yaml:"policy"`

	// State 状态构建配置
	State StateConfig `json:"state" yaml:"state"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`

	// Simulation 参考仿真配置
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Agent:      DefaultAgentConfig(),
		Policy:     DefaultPolicyConfig(),
		State:      DefaultStateConfig(),
		Metrics:    DefaultMetricsConfig(),
		Log:        DefaultLogConfig(),
		Simulation: DefaultSimulationConfig(),
	}
}

// Validate 验证全部子配置
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	validators := []interface{ Validate() error }{
		&c.Agent,
		&c.Policy,
		&c.State,
		&c.Metrics,
		&c.Log,
		&c.Simulation,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Clone 深拷贝
//
// 所有子配置都是值类型，浅拷贝即为深拷贝。
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cloned := *c
	return &cloned
}
