package config

import "fmt"

// DefaultHistorySize 默认历史窗口容量
const DefaultHistorySize = 100

// AgentConfig 路由 Agent 配置
type AgentConfig struct {
	// HistorySize 投递结果滑动窗口容量
	// 默认值: 100
	HistorySize int `json:"history_size" yaml:"history_size"`

	// Enabled 是否参与路由决策
	// 默认值: true
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DefaultAgentConfig 返回默认 Agent 配置
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		HistorySize: DefaultHistorySize,
		Enabled:     true,
	}
}

// Validate 验证 Agent 配置
func (c *AgentConfig) Validate() error {
	if c.HistorySize <= 0 {
		return fmt.Errorf("agent: history_size must be positive, got %d", c.HistorySize)
	}
	return nil
}
