package types

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================================
//                              状态字段
// ============================================================================

// Field 环境状态字段编号（同时也是 Vector() 中的下标）
type Field uint8

const (
	FieldBufferOccupancy Field = iota
	FieldNumNeighbors
	FieldRecentPDR
	FieldRecentDelay
	FieldDistanceToDest
	FieldHopsToDest
	FieldEnergyLevel
	FieldAvgNeighborLoad
	FieldPacketPriority
	FieldTimeInQueue

	// StateDim 状态向量维度
	StateDim = 10
)

var fieldNames = [StateDim]string{
	"buffer_occupancy",
	"num_neighbors",
	"recent_pdr",
	"recent_delay",
	"distance_to_dest",
	"hops_to_dest",
	"energy_level",
	"avg_neighbor_load",
	"packet_priority",
	"time_in_queue",
}

// String 返回字段名
func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", f)
}

// FieldMask 字段掩码，置位表示该字段来自真实测量
type FieldMask uint16

// AllFields 全部字段均已测量
const AllFields FieldMask = 1<<StateDim - 1

// With 返回设置了字段 f 的新掩码
func (m FieldMask) With(f Field) FieldMask {
	return m | 1<<f
}

// Has 检查字段 f 是否置位
func (m FieldMask) Has(f Field) bool {
	return m&(1<<f) != 0
}

// Missing 返回未置位的字段列表
func (m FieldMask) Missing() []Field {
	var out []Field
	for f := Field(0); f < StateDim; f++ {
		if !m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// String 以 "a,b" 形式列出未测量字段
func (m FieldMask) String() string {
	missing := m.Missing()
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}

// ============================================================================
//                              EnvState
// ============================================================================

// Unresolved 距离/跳数无法解析时的占位值
const Unresolved = -1.0

// 缺省回退值：仅在协作方无法提供测量时使用
const (
	FallbackBufferOccupancy = 0.5
	FallbackEnergyLevel     = 1.0
)

// EnvState 单次决策周期的环境状态
//
// 每次刷新都重新构造，构造后不再修改。Measured 记录哪些字段来自真实测量，
// 未置位的字段是回退值，策略（尤其是学习型策略）应区别对待。
type EnvState struct {
	BufferOccupancy float64 // 缓冲区占用率 [0,1]
	NumNeighbors    float64 // 活跃邻居数
	RecentPDR       float64 // 最近窗口投递率 [0,1]
	RecentDelay     float64 // 最近窗口平均时延（ms）
	DistanceToDest  float64 // 到目的节点的欧氏距离（m），或 Unresolved
	HopsToDest      float64 // 估计跳数，或 Unresolved
	EnergyLevel     float64 // 剩余能量 [0,1]
	AvgNeighborLoad float64 // 邻居平均负载
	PacketPriority  float64 // 当前报文优先级
	TimeInQueue     float64 // 排队时间（ms）

	Measured FieldMask
}

// DefaultEnvState 返回 Agent 构造时的初始状态
//
// 没有任何观测：投递率乐观地取 1.0，能量取满，距离/跳数未解析。
func DefaultEnvState() EnvState {
	return EnvState{
		RecentPDR:      1.0,
		EnergyLevel:    FallbackEnergyLevel,
		DistanceToDest: Unresolved,
		HopsToDest:     Unresolved,
	}
}

// IsMeasured 检查字段是否来自真实测量
func (s EnvState) IsMeasured(f Field) bool {
	return s.Measured.Has(f)
}

// Get 按字段编号读取值
func (s EnvState) Get(f Field) float64 {
	switch f {
	case FieldBufferOccupancy:
		return s.BufferOccupancy
	case FieldNumNeighbors:
		return s.NumNeighbors
	case FieldRecentPDR:
		return s.RecentPDR
	case FieldRecentDelay:
		return s.RecentDelay
	case FieldDistanceToDest:
		return s.DistanceToDest
	case FieldHopsToDest:
		return s.HopsToDest
	case FieldEnergyLevel:
		return s.EnergyLevel
	case FieldAvgNeighborLoad:
		return s.AvgNeighborLoad
	case FieldPacketPriority:
		return s.PacketPriority
	case FieldTimeInQueue:
		return s.TimeInQueue
	default:
		return 0
	}
}

// Vector 返回按字段顺序排列的 10 维 float32 向量（学习型策略的输入布局）
func (s EnvState) Vector() [StateDim]float32 {
	var v [StateDim]float32
	for f := Field(0); f < StateDim; f++ {
		v[f] = float32(s.Get(f))
	}
	return v
}

// EnvStateFromVector 从线上向量和掩码还原状态
func EnvStateFromVector(v []float64, measured FieldMask) (EnvState, error) {
	if len(v) != StateDim {
		return EnvState{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidState, StateDim, len(v))
	}
	s := EnvState{
		BufferOccupancy: v[FieldBufferOccupancy],
		NumNeighbors:    v[FieldNumNeighbors],
		RecentPDR:       v[FieldRecentPDR],
		RecentDelay:     v[FieldRecentDelay],
		DistanceToDest:  v[FieldDistanceToDest],
		HopsToDest:      v[FieldHopsToDest],
		EnergyLevel:     v[FieldEnergyLevel],
		AvgNeighborLoad: v[FieldAvgNeighborLoad],
		PacketPriority:  v[FieldPacketPriority],
		TimeInQueue:     v[FieldTimeInQueue],
		Measured:        measured & AllFields,
	}
	return s, s.Validate()
}

// Validate 检查字段边界
func (s EnvState) Validate() error {
	for f := Field(0); f < StateDim; f++ {
		v := s.Get(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidState, f)
		}
		switch f {
		case FieldBufferOccupancy, FieldRecentPDR, FieldEnergyLevel:
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: %s=%v out of [0,1]", ErrInvalidState, f, v)
			}
		case FieldDistanceToDest, FieldHopsToDest:
			if v < 0 && v != Unresolved {
				return fmt.Errorf("%w: %s=%v negative", ErrInvalidState, f, v)
			}
		default:
			if v < 0 {
				return fmt.Errorf("%w: %s=%v negative", ErrInvalidState, f, v)
			}
		}
	}
	return nil
}
