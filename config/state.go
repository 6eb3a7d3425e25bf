package config

import (
	"fmt"
	"time"
)

// StateConfig 状态构建配置
type StateConfig struct {
	// ResolverCacheSize 目的地址解析缓存容量，0 表示不缓存
	// 默认值: 256
	ResolverCacheSize int `json:"resolver_cache_size" yaml:"resolver_cache_size"`

	// ResolverCacheTTL 解析结果有效期（节点移动/地址变更后需要重新解析）
	// 默认值: 30s
	ResolverCacheTTL Duration `json:"resolver_cache_ttl" yaml:"resolver_cache_ttl"`
}

// DefaultStateConfig 返回默认状态构建配置
func DefaultStateConfig() StateConfig {
	return StateConfig{
		ResolverCacheSize: 256,
		ResolverCacheTTL:  Duration(30 * time.Second),
	}
}

// Validate 验证状态构建配置
func (c *StateConfig) Validate() error {
	if c.ResolverCacheSize < 0 {
		return fmt.Errorf("state: resolver_cache_size must be >= 0")
	}
	if c.ResolverCacheSize > 0 && c.ResolverCacheTTL <= 0 {
		return fmt.Errorf("state: resolver_cache_ttl must be positive")
	}
	return nil
}
