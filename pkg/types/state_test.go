package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultEnvState 测试初始状态
func TestDefaultEnvState(t *testing.T) {
	s := DefaultEnvState()

	assert.Equal(t, 1.0, s.RecentPDR)
	assert.Equal(t, 1.0, s.EnergyLevel)
	assert.Equal(t, Unresolved, s.DistanceToDest)
	assert.Equal(t, Unresolved, s.HopsToDest)
	assert.Equal(t, FieldMask(0), s.Measured)
	assert.NoError(t, s.Validate())
}

// TestFieldMask 测试字段掩码
func TestFieldMask(t *testing.T) {
	m := FieldMask(0).With(FieldRecentPDR).With(FieldNumNeighbors)

	assert.True(t, m.Has(FieldRecentPDR))
	assert.True(t, m.Has(FieldNumNeighbors))
	assert.False(t, m.Has(FieldEnergyLevel))
	assert.Len(t, m.Missing(), StateDim-2)
	assert.NotContains(t, m.String(), "recent_pdr")
	assert.Contains(t, m.String(), "energy_level")
	assert.Empty(t, AllFields.Missing())
}

// TestEnvState_Vector 测试向量布局
func TestEnvState_Vector(t *testing.T) {
	s := EnvState{
		BufferOccupancy: 0.25,
		NumNeighbors:    3,
		RecentPDR:       0.75,
		RecentDelay:     20,
		DistanceToDest:  150,
		HopsToDest:      2,
		EnergyLevel:     0.5,
		AvgNeighborLoad: 0.1,
		PacketPriority:  1,
		TimeInQueue:     4,
	}

	v := s.Vector()
	assert.Equal(t, float32(0.25), v[FieldBufferOccupancy])
	assert.Equal(t, float32(3), v[FieldNumNeighbors])
	assert.Equal(t, float32(150), v[FieldDistanceToDest])
	assert.Equal(t, float32(4), v[FieldTimeInQueue])
}

// TestEnvStateFromVector 测试从线上向量还原
func TestEnvStateFromVector(t *testing.T) {
	in := []float64{0.5, 2, 1, 0, Unresolved, Unresolved, 1, 0, 0, 0}
	s, err := EnvStateFromVector(in, FieldMask(0).With(FieldNumNeighbors))
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.NumNeighbors)
	assert.True(t, s.IsMeasured(FieldNumNeighbors))

	_, err = EnvStateFromVector(in[:3], 0)
	assert.ErrorIs(t, err, ErrInvalidState)
}

// TestEnvState_Validate 测试边界检查
func TestEnvState_Validate(t *testing.T) {
	s := DefaultEnvState()
	s.RecentPDR = 1.5
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	s = DefaultEnvState()
	s.DistanceToDest = -3
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)

	s = DefaultEnvState()
	s.RecentDelay = -1
	assert.ErrorIs(t, s.Validate(), ErrInvalidState)
}

// TestAgentAction_Validate 测试动作约束
func TestAgentAction_Validate(t *testing.T) {
	candidates := []NodeID{1, 2, 3}

	ok := AgentAction{NextHop: 2, TxPower: 1, Priority: 1}
	assert.NoError(t, ok.Validate(candidates))

	assert.NoError(t, NoAction("heuristic").Validate(candidates))

	bad := AgentAction{NextHop: 9, TxPower: 1}
	assert.ErrorIs(t, bad.Validate(candidates), ErrInvalidAction)

	bad = AgentAction{NextHop: 1, TxPower: 1, Priority: 5}
	assert.ErrorIs(t, bad.Validate(candidates), ErrInvalidAction)

	bad = AgentAction{NextHop: 1, TxPower: 0}
	assert.ErrorIs(t, bad.Validate(candidates), ErrInvalidAction)
}

// TestNodeID_WireForm 测试 NodeID 线上编码
func TestNodeID_WireForm(t *testing.T) {
	assert.Equal(t, int64(-1), NoNode.Int64())
	assert.Equal(t, "none", NoNode.String())
	assert.Equal(t, int64(7), NodeID(7).Int64())

	id, err := NodeIDFromInt64(-1)
	require.NoError(t, err)
	assert.True(t, id.IsNone())

	id, err = NodeIDFromInt64(42)
	require.NoError(t, err)
	assert.Equal(t, NodeID(42), id)

	_, err = NodeIDFromInt64(1 << 40)
	assert.ErrorIs(t, err, ErrInvalidNodeID)
}

// TestVector_DistanceTo 测试欧氏距离
func TestVector_DistanceTo(t *testing.T) {
	a := Vector{X: 0, Y: 0, Z: 0}
	b := Vector{X: 3, Y: 4, Z: 0}
	assert.Equal(t, 5.0, a.DistanceTo(b))
	assert.Equal(t, 5.0, b.Length())
}
