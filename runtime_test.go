package drlrouting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/types"
	"github.com/dep2p/go-drlrouting/tests/mocks"
)

func testEnv() *mocks.MockRichEnvironment {
	env := mocks.NewMockRichEnvironment(1)
	env.SetNeighbors(1, 2, 3).
		SetPosition(1, 0, 0, 0).
		SetPosition(2, 100, 0, 0).
		SetPosition(3, 0, 100, 0).
		SetPosition(4, 200, 10, 0)
	env.Addresses["10.0.0.5"] = 4
	return env
}

// TestRuntime_Heuristic 测试默认运行时
func TestRuntime_Heuristic(t *testing.T) {
	ctx := context.Background()
	rt, err := Start(ctx, WithRegisterer(prometheus.NewRegistry()), WithHistorySize(10))
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, config.PolicyHeuristic, rt.Config().Policy.Kind)
	assert.Equal(t, 10, rt.Config().Agent.HistorySize)

	a, err := rt.NewAgent(testEnv())
	require.NoError(t, err)
	assert.Equal(t, NodeID(2), a.SelectNextHop(ctx, nil, "10.0.0.5"))

	a.UpdateStatistics(true, 12)
	assert.Equal(t, uint64(1), a.Counters().PacketsSent)
	assert.Len(t, rt.Agents(), 1)

	require.NoError(t, rt.Close())
	assert.Equal(t, NoNode, a.SelectNextHop(ctx, nil, "10.0.0.5"))
	require.NoError(t, rt.Close())

	_, err = rt.NewAgent(testEnv())
	assert.ErrorIs(t, err, ErrClosed)

	t.Log("✅ 默认运行时测试通过")
}

// TestRuntime_InjectedSource 测试注入决策源
func TestRuntime_InjectedSource(t *testing.T) {
	ctx := context.Background()
	src := mocks.NewMockDecisionSource(types.AgentAction{NextHop: 3, TxPower: 0.4, Priority: 1})

	rt, err := Start(ctx,
		WithMetrics(false),
		WithPreset(PresetLearned),
		WithDecisionSource(src),
	)
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, config.PolicyExternal, rt.Config().Policy.Kind)

	a, err := rt.NewAgent(testEnv())
	require.NoError(t, err)
	assert.Equal(t, NodeID(3), a.SelectNextHop(ctx, nil, "10.0.0.5"))

	action, ok := a.LastAction()
	require.True(t, ok)
	assert.Equal(t, 0.4, action.TxPower)
	assert.NotEmpty(t, action.DecisionID)

	require.NoError(t, rt.Close())
	assert.False(t, src.Closed)

	t.Log("✅ 注入决策源测试通过")
}

// TestRuntime_ConfigFile 测试从文件加载配置
func TestRuntime_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drlrouting.yaml")
	data := []byte("agent:\n  history_size: 7\n  enabled: false\nmetrics:\n  enabled: false\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	rt, err := New(WithConfigFile(path), WithEnabled(true))
	require.NoError(t, err)

	assert.Equal(t, 7, rt.Config().Agent.HistorySize)
	assert.True(t, rt.Config().Agent.Enabled)

	_, err = rt.NewAgent(nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, rt.Start(context.Background()))
	assert.ErrorIs(t, rt.Start(context.Background()), ErrAlreadyStarted)
	require.NoError(t, rt.Close())

	t.Log("✅ 配置文件测试通过")
}

// TestOptions_Invalid 测试无效选项
func TestOptions_Invalid(t *testing.T) {
	cases := []Option{
		WithConfig(nil),
		WithConfigFile(""),
		WithPreset("turbo"),
		WithHistorySize(0),
		WithPolicy("random"),
		WithDecisionSource(nil),
	}
	for _, opt := range cases {
		_, err := New(opt)
		assert.ErrorIs(t, err, ErrInvalidOption)
	}

	// ONNX 策略缺少模型路径时配置校验失败
	_, err := New(WithMetrics(false), WithPolicy(config.PolicyOnnx))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	t.Log("✅ 无效选项测试通过")
}

// TestVersionInfo 测试版本信息
func TestVersionInfo(t *testing.T) {
	assert.Contains(t, VersionInfo(), Version)

	GitCommit = "0123456789abcdef"
	defer func() { GitCommit = "" }()
	assert.Contains(t, VersionInfo(), "(01234567)")

	t.Log("✅ 版本信息测试通过")
}
