package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Agent.HistorySize)
	assert.True(t, cfg.Agent.Enabled)
	assert.Equal(t, PolicyHeuristic, cfg.Policy.Kind)
	assert.Equal(t, 50*time.Millisecond, cfg.Policy.External.Timeout.Duration())
	assert.Equal(t, 0.8, cfg.Policy.Adaptive.PDRThreshold)
	assert.Equal(t, 150.0, cfg.Policy.Adaptive.DelayThreshold)

	t.Log("✅ NewConfig 测试通过")
}

// TestConfig_Validate 测试配置验证
func TestConfig_Validate(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		var cfg *Config
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("HistorySize", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Agent.HistorySize = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("UnknownPolicy", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Policy.Kind = "random"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("OnnxNeedsModel", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Policy.Kind = PolicyOnnx
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

		cfg.Policy.Onnx.ModelPath = "actor.onnx"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("AdaptiveLearned", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Policy.Kind = PolicyAdaptive
		cfg.Policy.Adaptive.Learned = PolicyHeuristic
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("ExternalAddress", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Policy.Kind = PolicyExternal
		cfg.Policy.External.Address = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("Simulation", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Simulation.Nodes = 1
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Log("✅ Config.Validate 测试通过")
}

// TestDuration_JSON 测试 Duration 的 JSON 编解码
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}

// TestDuration_YAML 测试 Duration 的 YAML 解码
func TestDuration_YAML(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 1m30s\nb: 5\n"), &v))
	assert.Equal(t, 90*time.Second, v.A.Duration())
	assert.Equal(t, Duration(5), v.B)

	assert.Error(t, yaml.Unmarshal([]byte("a: [1]\n"), &v))
}

// TestFromJSON 测试部分字段覆盖
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"agent":{"history_size":20,"enabled":true},"policy":{"kind":"external","external":{"timeout":"100ms"}}}`))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Agent.HistorySize)
	assert.Equal(t, PolicyExternal, cfg.Policy.Kind)
	assert.Equal(t, 100*time.Millisecond, cfg.Policy.External.Timeout.Duration())
	// 未出现的字段保留默认值
	assert.Equal(t, "127.0.0.1:50051", cfg.Policy.External.Address)
	assert.NoError(t, cfg.Validate())

	_, err = FromJSON([]byte(`{`))
	assert.Error(t, err)
}

// TestLoad 测试按扩展名加载
func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
agent:
  history_size: 10
  enabled: false
policy:
  kind: adaptive
  adaptive:
    learned: external
    pdr_threshold: 0.9
simulation:
  nodes: 5
`), 0o600))

	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Agent.HistorySize)
	assert.False(t, cfg.Agent.Enabled)
	assert.Equal(t, PolicyAdaptive, cfg.Policy.Kind)
	assert.Equal(t, 0.9, cfg.Policy.Adaptive.PDRThreshold)
	assert.Equal(t, 5, cfg.Simulation.Nodes)
	assert.Equal(t, 250.0, cfg.Simulation.Range)

	jsonPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"agent":{"history_size":-1}}`), 0o600))
	_, err = Load(jsonPath)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	t.Log("✅ Load 测试通过")
}

// TestApplyPreset 测试预设
func TestApplyPreset(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, ApplyPreset(cfg, "learned"))
	assert.Equal(t, PolicyExternal, cfg.Policy.Kind)
	assert.Equal(t, 1000.0, cfg.Policy.External.RatePerSecond)
	assert.NoError(t, cfg.Validate())

	require.NoError(t, ApplyPreset(cfg, "adaptive"))
	assert.Equal(t, PolicyAdaptive, cfg.Policy.Kind)
	assert.True(t, cfg.Policy.UsesExternal())
	assert.False(t, cfg.Policy.UsesOnnx())

	require.NoError(t, ApplyPreset(cfg, "default"))
	assert.Equal(t, PolicyHeuristic, cfg.Policy.Kind)

	assert.Error(t, ApplyPreset(cfg, "server"))
	assert.Error(t, ApplyPreset(nil, "default"))
}

// TestConfig_Clone 测试克隆互不影响
func TestConfig_Clone(t *testing.T) {
	cfg := NewConfig()
	cloned := cfg.Clone()
	cloned.Agent.HistorySize = 7
	assert.Equal(t, 100, cfg.Agent.HistorySize)

	var nilCfg *Config
	assert.Nil(t, nilCfg.Clone())
}

// TestConfig_RoundTripYAML 测试 YAML 输出可被重新加载
func TestConfig_RoundTripYAML(t *testing.T) {
	cfg := NewConfig()
	cfg.Policy.External.Timeout = Duration(75 * time.Millisecond)

	data, err := cfg.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 75ms")

	back, err := FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Policy.External.Timeout, back.Policy.External.Timeout)
}
