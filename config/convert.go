package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
//	{
//	  "agent": {"history_size": 50},
//	  "policy": {"kind": "external", "external": {"timeout": "100ms"}}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Load 从文件加载并验证配置
//
// .yaml/.yml 按 YAML 解析，其余按 JSON 解析。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	default:
		cfg, err = FromJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ToYAML 序列化为 YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 启发式策略
//   - "learned": 外部学习型策略，失败回退启发式
//   - "adaptive": 表现良好时启发式，恶化时外部学习型策略
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "", "default":
		cfg.Policy.Kind = PolicyHeuristic
	case "learned":
		cfg.Policy.Kind = PolicyExternal
		// 学习型策略对时延敏感，限制远程调用频率
		if cfg.Policy.External.RatePerSecond == 0 {
			cfg.Policy.External.RatePerSecond = 1000
			cfg.Policy.External.Burst = 100
		}
	case "adaptive":
		cfg.Policy.Kind = PolicyAdaptive
		cfg.Policy.Adaptive.Learned = PolicyExternal
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}
