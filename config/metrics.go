package config

import (
	"fmt"
	"regexp"
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否采集指标
	// 默认值: true
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Namespace 指标命名空间
	// 默认值: drlrouting
	Namespace string `json:"namespace" yaml:"namespace"`

	// Addr /metrics 监听地址，空表示不暴露
	Addr string `json:"addr" yaml:"addr"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "drlrouting",
	}
}

// Validate 验证指标配置
func (c *MetricsConfig) Validate() error {
	if c.Enabled && !namespacePattern.MatchString(c.Namespace) {
		return fmt.Errorf("metrics: invalid namespace %q", c.Namespace)
	}
	return nil
}
