package interfaces

import (
	"time"

	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ============================================================================
//                              必需能力
// ============================================================================

// NeighborQuery 邻居发现查询
type NeighborQuery interface {
	// ActiveNeighbors 返回节点当前活跃邻居（按发现顺序）
	//
	// 必须是纯查询，没有副作用；可以返回空列表。
	ActiveNeighbors(node types.NodeID) []types.NodeID
}

// PositionQuery 位置查询
type PositionQuery interface {
	// Position 返回节点坐标，ok=false 表示位置不可用
	Position(node types.NodeID) (types.Vector, bool)
}

// NodeContext Agent 绑定的节点上下文
//
// Agent 通过 Initialize 注入，不持有其所有权。
type NodeContext interface {
	NeighborQuery
	PositionQuery

	// LocalNode 返回本节点 ID
	LocalNode() types.NodeID
}

// ============================================================================
//                              可选能力
// ============================================================================

// BufferQuery 缓冲区占用查询
type BufferQuery interface {
	// BufferOccupancy 返回 [0,1] 的占用率
	BufferOccupancy(node types.NodeID) (float64, bool)
}

// EnergyQuery 能量模型查询
type EnergyQuery interface {
	// EnergyLevel 返回 [0,1] 的剩余能量
	EnergyLevel(node types.NodeID) (float64, bool)
}

// QueueQuery 排队时间查询
type QueueQuery interface {
	// TimeInQueue 返回报文在节点队列中已等待的时间
	TimeInQueue(node types.NodeID, pkt *types.Packet) (time.Duration, bool)
}

// LoadQuery 邻居负载查询
type LoadQuery interface {
	// NodeLoad 返回节点负载（非负，通常为队列占用率）
	NodeLoad(node types.NodeID) (float64, bool)
}

// HopQuery 底层路由协议的跳数估计
type HopQuery interface {
	// HopsTo 返回从 node 到 dest 的估计跳数
	HopsTo(node types.NodeID, dest types.Address) (int, bool)
}

// AddressResolver 目的地址到节点 ID 的解析
type AddressResolver interface {
	// Resolve 返回持有该地址的节点
	Resolve(dest types.Address) (types.NodeID, bool)
}
