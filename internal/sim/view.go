package sim

import (
	"time"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// View 单个节点看到的世界
type View struct {
	world *World
	self  types.NodeID
}

var (
	_ interfaces.NodeContext     = (*View)(nil)
	_ interfaces.BufferQuery     = (*View)(nil)
	_ interfaces.EnergyQuery     = (*View)(nil)
	_ interfaces.QueueQuery      = (*View)(nil)
	_ interfaces.LoadQuery       = (*View)(nil)
	_ interfaces.HopQuery        = (*View)(nil)
	_ interfaces.AddressResolver = (*View)(nil)
)

// LocalNode 本节点
func (v *View) LocalNode() types.NodeID {
	return v.self
}

// ActiveNeighbors 半径内的存活节点
func (v *View) ActiveNeighbors(node types.NodeID) []types.NodeID {
	v.world.mu.RLock()
	defer v.world.mu.RUnlock()
	return v.world.neighborsLocked(node)
}

// Position 节点坐标
func (v *View) Position(node types.NodeID) (types.Vector, bool) {
	v.world.mu.RLock()
	defer v.world.mu.RUnlock()
	n := v.world.lookup(node)
	if n == nil {
		return types.Vector{}, false
	}
	return n.pos, true
}

// BufferOccupancy 队列占用率
func (v *View) BufferOccupancy(node types.NodeID) (float64, bool) {
	v.world.mu.RLock()
	defer v.world.mu.RUnlock()
	n := v.world.lookup(node)
	if n == nil {
		return 0, false
	}
	return v.world.occupancyLocked(n), true
}

// EnergyLevel 剩余能量
func (v *View) EnergyLevel(node types.NodeID) (float64, bool) {
	v.world.mu.RLock()
	defer v.world.mu.RUnlock()
	n := v.world.lookup(node)
	if n == nil {
		return 0, false
	}
	return n.energy, true
}

// TimeInQueue 报文排队时间：已等待时间加上前方报文的预计服务时间
func (v *View) TimeInQueue(node types.NodeID, pkt *types.Packet) (time.Duration, bool) {
	v.world.mu.RLock()
	defer v.world.mu.RUnlock()
	n := v.world.lookup(node)
	if n == nil || pkt == nil {
		return 0, false
	}
	var waited time.Duration
	if !pkt.EnqueuedAt.IsZero() {
		waited = max(0, v.world.clock.Since(pkt.EnqueuedAt))
	}
	ahead := time.Duration(float64(n.queue) * v.world.cfg.BaseDelay * float64(time.Millisecond))
	return waited + ahead, true
}

// NodeLoad 节点负载（队列占用率）
func (v *View) NodeLoad(node types.NodeID) (float64, bool) {
	return v.BufferOccupancy(node)
}

// HopsTo 按半径估算到目的地址的跳数
func (v *View) HopsTo(node types.NodeID, dest types.Address) (int, bool) {
	id, ok := NodeOf(dest)
	if !ok {
		return 0, false
	}
	v.world.mu.RLock()
	defer v.world.mu.RUnlock()
	src, dst := v.world.lookup(node), v.world.lookup(id)
	if src == nil || dst == nil {
		return 0, false
	}
	return v.world.link.Hops(src.pos.DistanceTo(dst.pos)), true
}

// Resolve 解析 10.0.0.<id+1> 形式的地址
func (v *View) Resolve(dest types.Address) (types.NodeID, bool) {
	id, ok := NodeOf(dest)
	if !ok || v.world.lookup(id) == nil {
		return types.NoNode, false
	}
	return id, true
}
