package config

import (
	"fmt"
	"time"
)

// PolicyKind 决策策略类型
type PolicyKind string

const (
	// PolicyHeuristic 几何启发式（默认）
	PolicyHeuristic PolicyKind = "heuristic"
	// PolicyExternal 外部决策服务（gRPC）
	PolicyExternal PolicyKind = "external"
	// PolicyOnnx 进程内 ONNX 模型
	PolicyOnnx PolicyKind = "onnx"
	// PolicyAdaptive 表现良好时启发式，恶化时切换到学习型策略
	PolicyAdaptive PolicyKind = "adaptive"
)

// Valid 是否为已知策略
func (k PolicyKind) Valid() bool {
	switch k {
	case PolicyHeuristic, PolicyExternal, PolicyOnnx, PolicyAdaptive:
		return true
	}
	return false
}

// Learned 是否为学习型策略
func (k PolicyKind) Learned() bool {
	return k == PolicyExternal || k == PolicyOnnx
}

// PolicyConfig 决策策略配置
type PolicyConfig struct {
	// Kind 策略类型
	// 默认值: heuristic
	Kind PolicyKind `json:"kind" yaml:"kind"`

	// External 外部决策源配置
	External ExternalConfig `json:"external" yaml:"external"`

	// Onnx ONNX 模型配置
	Onnx OnnxConfig `json:"onnx" yaml:"onnx"`

	// Adaptive 自适应切换配置
	Adaptive AdaptiveConfig `json:"adaptive" yaml:"adaptive"`
}

// ExternalConfig 外部决策源配置
type ExternalConfig struct {
	// Address gRPC 服务地址
	Address string `json:"address" yaml:"address"`

	// Timeout 单次决策超时，超时后回退到启发式
	// 默认值: 50ms
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// RatePerSecond 每秒允许的远程调用数，0 表示不限流
	// 默认值: 0
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`

	// Burst 令牌桶容量
	// 默认值: 1
	Burst int `json:"burst" yaml:"burst"`

	// FailureThreshold 窗口内失败多少次后暂停该决策源
	// 默认值: 5
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// FailureWindow 失败计数窗口
	// 默认值: 10s
	FailureWindow Duration `json:"failure_window" yaml:"failure_window"`

	// Recovery 暂停时长
	// 默认值: 30s
	Recovery Duration `json:"recovery" yaml:"recovery"`
}

// OnnxConfig ONNX 模型配置
type OnnxConfig struct {
	// ModelPath 模型文件路径
	ModelPath string `json:"model_path" yaml:"model_path"`

	// LibraryPath onnxruntime 共享库路径，空表示使用系统默认
	LibraryPath string `json:"library_path" yaml:"library_path"`

	// InputName 输入张量名
	// 默认值: state
	InputName string `json:"input_name" yaml:"input_name"`

	// OutputName 输出张量名
	// 默认值: probs
	OutputName string `json:"output_name" yaml:"output_name"`

	// ActionDim 动作维度（模型输出的候选槽位数）
	// 默认值: 8
	ActionDim int `json:"action_dim" yaml:"action_dim"`
}

// AdaptiveConfig 自适应切换配置
type AdaptiveConfig struct {
	// Learned 恶化时切换到的学习型策略（external 或 onnx）
	// 默认值: external
	Learned PolicyKind `json:"learned" yaml:"learned"`

	// PDRThreshold 窗口投递率低于该值时切换
	// 默认值: 0.8
	PDRThreshold float64 `json:"pdr_threshold" yaml:"pdr_threshold"`

	// DelayThreshold 窗口平均时延高于该值时切换
	// 默认值: 150
	DelayThreshold float64 `json:"delay_threshold" yaml:"delay_threshold"`
}

// DefaultPolicyConfig 返回默认策略配置
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Kind: PolicyHeuristic,
		External: ExternalConfig{
			Address:          "127.0.0.1:50051",
			Timeout:          Duration(50 * time.Millisecond),
			Burst:            1,
			FailureThreshold: 5,
			FailureWindow:    Duration(10 * time.Second),
			Recovery:         Duration(30 * time.Second),
		},
		Onnx: OnnxConfig{
			InputName:  "state",
			OutputName: "probs",
			ActionDim:  8,
		},
		Adaptive: AdaptiveConfig{
			Learned:        PolicyExternal,
			PDRThreshold:   0.8,
			DelayThreshold: 150,
		},
	}
}

// UsesExternal 是否需要外部决策服务
func (c *PolicyConfig) UsesExternal() bool {
	return c.Kind == PolicyExternal || (c.Kind == PolicyAdaptive && c.Adaptive.Learned == PolicyExternal)
}

// UsesOnnx 是否需要 ONNX 模型
func (c *PolicyConfig) UsesOnnx() bool {
	return c.Kind == PolicyOnnx || (c.Kind == PolicyAdaptive && c.Adaptive.Learned == PolicyOnnx)
}

// Validate 验证策略配置
func (c *PolicyConfig) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("policy: unknown kind %q", c.Kind)
	}
	if c.Kind == PolicyAdaptive && !c.Adaptive.Learned.Learned() {
		return fmt.Errorf("policy: adaptive.learned must be external or onnx, got %q", c.Adaptive.Learned)
	}
	if c.Adaptive.PDRThreshold < 0 || c.Adaptive.PDRThreshold > 1 {
		return fmt.Errorf("policy: adaptive.pdr_threshold must be between 0 and 1")
	}
	if c.Adaptive.DelayThreshold < 0 {
		return fmt.Errorf("policy: adaptive.delay_threshold must be >= 0")
	}

	ext := c.External
	if c.UsesExternal() && ext.Address == "" {
		return fmt.Errorf("policy: external.address is required")
	}
	if ext.Timeout <= 0 {
		return fmt.Errorf("policy: external.timeout must be positive")
	}
	if ext.RatePerSecond < 0 {
		return fmt.Errorf("policy: external.rate_per_second must be >= 0")
	}
	if ext.RatePerSecond > 0 && ext.Burst < 1 {
		return fmt.Errorf("policy: external.burst must be >= 1 when rate limited")
	}
	if ext.FailureThreshold < 1 {
		return fmt.Errorf("policy: external.failure_threshold must be >= 1")
	}
	if ext.FailureWindow <= 0 || ext.Recovery <= 0 {
		return fmt.Errorf("policy: external.failure_window and external.recovery must be positive")
	}

	if c.UsesOnnx() {
		if c.Onnx.ModelPath == "" {
			return fmt.Errorf("policy: onnx.model_path is required")
		}
		if c.Onnx.InputName == "" || c.Onnx.OutputName == "" {
			return fmt.Errorf("policy: onnx.input_name and onnx.output_name are required")
		}
	}
	if c.Onnx.ActionDim < 1 {
		return fmt.Errorf("policy: onnx.action_dim must be >= 1")
	}
	return nil
}
