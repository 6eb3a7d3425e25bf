package mocks

import (
	"sync"
	"time"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var (
	_ interfaces.NodeContext     = (*MockEnvironment)(nil)
	_ interfaces.BufferQuery     = (*MockRichEnvironment)(nil)
	_ interfaces.EnergyQuery     = (*MockRichEnvironment)(nil)
	_ interfaces.QueueQuery      = (*MockRichEnvironment)(nil)
	_ interfaces.LoadQuery       = (*MockRichEnvironment)(nil)
	_ interfaces.HopQuery        = (*MockRichEnvironment)(nil)
	_ interfaces.AddressResolver = (*MockRichEnvironment)(nil)
)

// ============================================================================
//                              MockEnvironment
// ============================================================================

// MockEnvironment 只实现必需能力的环境
type MockEnvironment struct {
	mu sync.Mutex

	Self      types.NodeID
	Neighbors map[types.NodeID][]types.NodeID
	Positions map[types.NodeID]types.Vector

	// 可覆盖的方法
	ActiveNeighborsFunc func(node types.NodeID) []types.NodeID
	PositionFunc        func(node types.NodeID) (types.Vector, bool)

	// 调用记录
	NeighborCalls int
}

// NewMockEnvironment 创建环境
func NewMockEnvironment(self types.NodeID) *MockEnvironment {
	return &MockEnvironment{
		Self:      self,
		Neighbors: make(map[types.NodeID][]types.NodeID),
		Positions: make(map[types.NodeID]types.Vector),
	}
}

// SetNeighbors 设置节点的邻居列表
func (m *MockEnvironment) SetNeighbors(node types.NodeID, neighbors ...types.NodeID) *MockEnvironment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Neighbors[node] = neighbors
	return m
}

// SetPosition 设置节点坐标
func (m *MockEnvironment) SetPosition(node types.NodeID, x, y, z float64) *MockEnvironment {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Positions[node] = types.Vector{X: x, Y: y, Z: z}
	return m
}

// LocalNode 返回本节点 ID
func (m *MockEnvironment) LocalNode() types.NodeID {
	return m.Self
}

// ActiveNeighbors 返回邻居列表
func (m *MockEnvironment) ActiveNeighbors(node types.NodeID) []types.NodeID {
	m.mu.Lock()
	m.NeighborCalls++
	fn := m.ActiveNeighborsFunc
	neighbors := append([]types.NodeID(nil), m.Neighbors[node]...)
	m.mu.Unlock()

	if fn != nil {
		return fn(node)
	}
	return neighbors
}

// Position 返回节点坐标
func (m *MockEnvironment) Position(node types.NodeID) (types.Vector, bool) {
	if m.PositionFunc != nil {
		return m.PositionFunc(node)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Positions[node]
	return v, ok
}

// ============================================================================
//                              MockRichEnvironment
// ============================================================================

// MockRichEnvironment 实现全部可选能力的环境
//
// map 中缺少的键视为协作方无法回答（ok=false）。
type MockRichEnvironment struct {
	*MockEnvironment

	Buffers   map[types.NodeID]float64
	Energy    map[types.NodeID]float64
	Loads     map[types.NodeID]float64
	Hops      map[types.Address]int
	Addresses map[types.Address]types.NodeID
	QueueTime time.Duration
	HasQueue  bool

	// 调用记录
	ResolveCalls int
}

// NewMockRichEnvironment 创建带全部可选能力的环境
func NewMockRichEnvironment(self types.NodeID) *MockRichEnvironment {
	return &MockRichEnvironment{
		MockEnvironment: NewMockEnvironment(self),
		Buffers:         make(map[types.NodeID]float64),
		Energy:          make(map[types.NodeID]float64),
		Loads:           make(map[types.NodeID]float64),
		Hops:            make(map[types.Address]int),
		Addresses:       make(map[types.Address]types.NodeID),
	}
}

// BufferOccupancy 返回缓冲区占用率
func (m *MockRichEnvironment) BufferOccupancy(node types.NodeID) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Buffers[node]
	return v, ok
}

// EnergyLevel 返回剩余能量
func (m *MockRichEnvironment) EnergyLevel(node types.NodeID) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Energy[node]
	return v, ok
}

// TimeInQueue 返回预置的排队时间
func (m *MockRichEnvironment) TimeInQueue(_ types.NodeID, _ *types.Packet) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.QueueTime, m.HasQueue
}

// NodeLoad 返回节点负载
func (m *MockRichEnvironment) NodeLoad(node types.NodeID) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Loads[node]
	return v, ok
}

// HopsTo 返回跳数
func (m *MockRichEnvironment) HopsTo(_ types.NodeID, dest types.Address) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Hops[dest]
	return v, ok
}

// Resolve 解析地址
func (m *MockRichEnvironment) Resolve(dest types.Address) (types.NodeID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolveCalls++
	v, ok := m.Addresses[dest]
	return v, ok
}

// Calls 返回解析调用次数
func (m *MockRichEnvironment) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ResolveCalls
}
