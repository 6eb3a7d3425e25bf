package policy

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
	"github.com/dep2p/go-drlrouting/tests/mocks"
)

func externalRequest() *Request {
	return &Request{
		DecisionID: "abcdef0123",
		Self:       1,
		DestNode:   9,
		State:      types.DefaultEnvState(),
		Candidates: []types.NodeID{2, 3, 4},
		Env:        lineEnv(),
	}
}

func answer(next types.NodeID, tx float64, prio int) types.AgentAction {
	return types.AgentAction{NextHop: next, TxPower: tx, Priority: prio}
}

// TestExternal_ValidAnswer 测试有效答案被采用
func TestExternal_ValidAnswer(t *testing.T) {
	src := mocks.NewMockDecisionSource(answer(4, 0.5, 2))
	ext := NewExternal(src)

	action := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, types.NodeID(4), action.NextHop)
	assert.Equal(t, 0.5, action.TxPower)
	assert.Equal(t, 2, action.Priority)
	assert.Equal(t, NameExternal, action.Policy)
	assert.Equal(t, "abcdef0123", action.DecisionID)
	assert.False(t, action.IsFallback())

	require.Equal(t, 1, src.CallCount())
	assert.Equal(t, []types.NodeID{2, 3, 4}, src.DecideCalls[0].Candidates)

	t.Log("✅ 外部答案采用测试通过")
}

// TestExternal_ClampsTxPower 测试发射功率截断
func TestExternal_ClampsTxPower(t *testing.T) {
	src := mocks.NewMockDecisionSource(answer(2, 0.01, 0))
	ext := NewExternal(src)

	action := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, types.MinTxPower, action.TxPower)
	assert.False(t, action.IsFallback())

	src.Action = answer(2, 7, 1)
	action = ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, types.MaxTxPower, action.TxPower)

	// 外部可以明确表示不转发
	src.Action = answer(types.NoNode, 1, 0)
	action = ext.Decide(context.Background(), externalRequest())
	assert.True(t, action.NextHop.IsNone())
	assert.False(t, action.IsFallback())
}

// TestExternal_InvalidAnswers 测试无效答案回退到启发式
func TestExternal_InvalidAnswers(t *testing.T) {
	cases := map[string]types.AgentAction{
		"PriorityOutOfRange": answer(2, 0.5, 5),
		"NegativePriority":   answer(2, 0.5, -1),
		"NotACandidate":      answer(8, 0.5, 0),
		"NaNTxPower":         answer(2, math.NaN(), 0),
		"InfTxPower":         answer(2, math.Inf(1), 0),
	}

	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			ext := NewExternal(mocks.NewMockDecisionSource(a))
			req := externalRequest()

			action := ext.Decide(context.Background(), req)
			assert.Equal(t, FallbackInvalid, action.Fallback)
			assert.Equal(t, NameHeuristic, action.Policy)
			// 启发式结果：最接近目的节点的候选
			assert.Equal(t, types.NodeID(3), action.NextHop)
			assert.Equal(t, 1.0, action.TxPower)
			assert.Equal(t, 0, action.Priority)
			assert.NoError(t, action.Validate(req.Candidates))
		})
	}
}

// TestExternal_SourceError 测试决策源出错
func TestExternal_SourceError(t *testing.T) {
	src := mocks.NewMockDecisionSource(types.AgentAction{})
	src.Err = errors.New("model unavailable")
	ext := NewExternal(src)

	action := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, FallbackError, action.Fallback)
	assert.Equal(t, types.NodeID(3), action.NextHop)
}

// TestExternal_Timeout 测试决策源超时
func TestExternal_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	src := mocks.NewMockDecisionSource(types.AgentAction{})
	src.DecideFunc = func(_ context.Context, _ types.EnvState, _ []types.NodeID) (types.AgentAction, error) {
		// 不遵守 ctx 的决策源
		<-release
		return answer(2, 1, 0), nil
	}
	ext := NewExternal(src, WithTimeout(10*time.Millisecond))

	start := time.Now()
	action := ext.Decide(context.Background(), externalRequest())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, FallbackTimeout, action.Fallback)
	assert.Equal(t, types.NodeID(3), action.NextHop)
}

// TestExternal_NoSource 测试未配置决策源
func TestExternal_NoSource(t *testing.T) {
	ext := NewExternal(nil)
	action := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, FallbackNoSource, action.Fallback)
	assert.Equal(t, types.NodeID(3), action.NextHop)
	assert.NoError(t, ext.Observe(context.Background(), interfaces.Transition{}))
	assert.NoError(t, ext.Close())
}

// TestExternal_RateLimit 测试调用预算耗尽时跳过远程调用
func TestExternal_RateLimit(t *testing.T) {
	src := mocks.NewMockDecisionSource(answer(4, 1, 0))
	ext := NewExternal(src, WithRateLimit(0.001, 1))

	first := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, types.NodeID(4), first.NextHop)

	second := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, FallbackThrottled, second.Fallback)
	assert.Equal(t, types.NodeID(3), second.NextHop)
	assert.Equal(t, 1, src.CallCount())
}

// TestExternal_Suspension 测试连续失败后暂停并在恢复期后重试
func TestExternal_Suspension(t *testing.T) {
	clk := clock.NewMock()
	src := mocks.NewMockDecisionSource(types.AgentAction{})
	src.Err = errors.New("unavailable")

	health := NewSourceHealth(2, time.Minute, 30*time.Second, clk)
	ext := NewExternal(src, WithHealth(health))

	ext.Decide(context.Background(), externalRequest())
	ext.Decide(context.Background(), externalRequest())
	assert.True(t, health.Suspended())

	action := ext.Decide(context.Background(), externalRequest())
	assert.Equal(t, FallbackSuspended, action.Fallback)
	assert.Equal(t, 2, src.CallCount())

	clk.Add(31 * time.Second)
	src.Err = nil
	src.Action = answer(2, 1, 0)

	action = ext.Decide(context.Background(), externalRequest())
	assert.False(t, action.IsFallback())
	assert.Equal(t, 3, src.CallCount())
	assert.Equal(t, int64(1), health.Stats().Suspensions)
}

// TestExternal_Span 测试远程调用被追踪
func TestExternal_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	src := mocks.NewMockDecisionSource(answer(2, 1, 9))
	ext := NewExternal(src, WithTracerProvider(tp))
	ext.Decide(context.Background(), externalRequest())

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "policy.External.Decide", spans[0].Name())
	assert.NotEmpty(t, spans[0].Events())
}

// TestExternal_ObserveAndClose 测试结果反馈与关闭
func TestExternal_ObserveAndClose(t *testing.T) {
	src := mocks.NewMockDecisionSource(answer(2, 1, 0))
	ext := NewExternal(src)

	tr := interfaces.Transition{DecisionID: "x", Success: true, Delay: 12, Reward: Reward(true, 12)}
	require.NoError(t, ext.Observe(context.Background(), tr))
	require.Len(t, src.Transitions(), 1)
	assert.Equal(t, "x", src.Transitions()[0].DecisionID)

	require.NoError(t, ext.Close())
	assert.True(t, src.Closed)
}

// TestNewExternalFromConfig 测试按配置创建
func TestNewExternalFromConfig(t *testing.T) {
	cfg := config.DefaultPolicyConfig().External
	cfg.Timeout = config.Duration(5 * time.Millisecond)
	cfg.FailureThreshold = 1

	src := mocks.NewMockDecisionSource(types.AgentAction{})
	src.Err = errors.New("down")
	ext := NewExternalFromConfig(src, cfg, clock.NewMock())

	ext.Decide(context.Background(), externalRequest())
	assert.True(t, ext.Health().Suspended())
}

// TestSourceHealth_Window 测试窗口外的失败不计数
func TestSourceHealth_Window(t *testing.T) {
	clk := clock.NewMock()
	h := NewSourceHealth(3, 10*time.Second, time.Minute, clk)

	h.RecordFailure()
	h.RecordFailure()
	clk.Add(11 * time.Second)
	assert.False(t, h.RecordFailure())
	assert.False(t, h.Suspended())
	assert.Equal(t, 1, h.Stats().RecentFailures)

	h.RecordSuccess()
	assert.Equal(t, 0, h.Stats().RecentFailures)

	h.RecordFailure()
	h.RecordFailure()
	assert.True(t, h.RecordFailure())
	assert.True(t, h.Suspended())
}
