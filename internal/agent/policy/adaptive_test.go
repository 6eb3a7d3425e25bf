package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
	"github.com/dep2p/go-drlrouting/tests/mocks"
)

// TestAdaptive_Switching 测试按窗口表现切换策略
func TestAdaptive_Switching(t *testing.T) {
	src := mocks.NewMockDecisionSource(answer(4, 0.8, 1))
	ad := NewAdaptive(NewExternal(src), config.DefaultPolicyConfig().Adaptive)

	req := externalRequest()

	// 表现良好：启发式
	action := ad.Decide(context.Background(), req)
	assert.Equal(t, NameHeuristic, action.Policy)
	assert.Equal(t, types.NodeID(3), action.NextHop)
	assert.Equal(t, 0, src.CallCount())

	// 投递率恶化：学习型
	req.State.RecentPDR = 0.5
	action = ad.Decide(context.Background(), req)
	assert.Equal(t, NameExternal, action.Policy)
	assert.Equal(t, types.NodeID(4), action.NextHop)

	// 时延恶化：学习型
	req.State.RecentPDR = 1
	req.State.RecentDelay = 200
	assert.True(t, ad.ShouldUseLearned(req.State))

	// 恢复：启发式
	req.State.RecentDelay = 20
	action = ad.Decide(context.Background(), req)
	assert.Equal(t, NameHeuristic, action.Policy)

	assert.Equal(t, int64(2), ad.Switches())
	assert.Equal(t, NameAdaptive, ad.Name())

	t.Log("✅ 自适应切换测试通过")
}

// TestAdaptive_NoLearned 测试未配置学习型策略时始终启发式
func TestAdaptive_NoLearned(t *testing.T) {
	ad := NewAdaptive(nil, config.AdaptiveConfig{PDRThreshold: 0.8, DelayThreshold: 150})
	req := externalRequest()
	req.State.RecentPDR = 0

	action := ad.Decide(context.Background(), req)
	assert.Equal(t, NameHeuristic, action.Policy)
	assert.NoError(t, ad.Observe(context.Background(), interfaces.Transition{}))
	assert.NoError(t, ad.Close())
}

// TestAdaptive_ForwardsObserveAndClose 测试反馈与关闭转发
func TestAdaptive_ForwardsObserveAndClose(t *testing.T) {
	src := mocks.NewMockDecisionSource(answer(2, 1, 0))
	ad := NewAdaptive(NewExternal(src), config.DefaultPolicyConfig().Adaptive)

	require.NoError(t, ad.Observe(context.Background(), interfaces.Transition{DecisionID: "t"}))
	assert.Len(t, src.Transitions(), 1)

	require.NoError(t, ad.Close())
	assert.True(t, src.Closed)
}
