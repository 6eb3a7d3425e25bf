package mocks

import (
	"context"
	"sync"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var (
	_ interfaces.DecisionSource  = (*MockDecisionSource)(nil)
	_ interfaces.OutcomeObserver = (*MockDecisionSource)(nil)
	_ interfaces.OutcomeObserver = (*MockObserver)(nil)
)

// DecideCall 一次 Decide 调用记录
type DecideCall struct {
	State      types.EnvState
	Candidates []types.NodeID
}

// MockDecisionSource 模拟外部决策源
type MockDecisionSource struct {
	mu sync.Mutex

	// Action 默认返回的动作
	Action types.AgentAction
	// Err 默认返回的错误
	Err error

	// 可覆盖的方法
	DecideFunc  func(ctx context.Context, state types.EnvState, candidates []types.NodeID) (types.AgentAction, error)
	ObserveFunc func(ctx context.Context, tr interfaces.Transition) error
	CloseFunc   func() error

	// 调用记录
	DecideCalls []DecideCall
	Observed    []interfaces.Transition
	Closed      bool
}

// NewMockDecisionSource 创建总是返回 action 的决策源
func NewMockDecisionSource(action types.AgentAction) *MockDecisionSource {
	return &MockDecisionSource{Action: action}
}

// Decide 返回预置动作
func (m *MockDecisionSource) Decide(ctx context.Context, state types.EnvState, candidates []types.NodeID) (types.AgentAction, error) {
	m.mu.Lock()
	m.DecideCalls = append(m.DecideCalls, DecideCall{
		State:      state,
		Candidates: append([]types.NodeID(nil), candidates...),
	})
	fn := m.DecideFunc
	action, err := m.Action, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, state, candidates)
	}
	return action, err
}

// Observe 记录结果反馈
func (m *MockDecisionSource) Observe(ctx context.Context, tr interfaces.Transition) error {
	m.mu.Lock()
	m.Observed = append(m.Observed, tr)
	fn := m.ObserveFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, tr)
	}
	return nil
}

// Close 关闭决策源
func (m *MockDecisionSource) Close() error {
	m.mu.Lock()
	m.Closed = true
	fn := m.CloseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// CallCount 返回 Decide 调用次数
func (m *MockDecisionSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.DecideCalls)
}

// Transitions 返回收到的反馈副本
func (m *MockDecisionSource) Transitions() []interfaces.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interfaces.Transition(nil), m.Observed...)
}

// MockObserver 只记录反馈的观察者
type MockObserver struct {
	mu       sync.Mutex
	Observed []interfaces.Transition
}

// Observe 记录反馈
func (m *MockObserver) Observe(_ context.Context, tr interfaces.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Observed = append(m.Observed, tr)
	return nil
}

// Transitions 返回收到的反馈副本
func (m *MockObserver) Transitions() []interfaces.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]interfaces.Transition(nil), m.Observed...)
}
