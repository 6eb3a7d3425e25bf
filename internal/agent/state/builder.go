// Package state 构建每个决策周期的环境状态
//
// Builder 向环境协作方查询每一个字段：协作方实现了对应的可选能力并给出回答时，
// 字段取测量值并在 Measured 中置位；否则取文档化的回退值。
// 构建过程没有副作用，不修改窗口统计。
package state

import (
	"math"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var logger = log.Logger("agent/state")

// WindowReader 窗口统计的只读视图
type WindowReader interface {
	RecentPDR() float64
	RecentMeanDelay() float64
}

// Target 本次刷新关注的报文（均可为空）
type Target struct {
	Destination types.Address
	Packet      *types.Packet
}

// Builder 环境状态构建器
type Builder struct {
	resolver *ResolverCache
}

// NewBuilder 创建构建器
func NewBuilder(cfg config.StateConfig) *Builder {
	return &Builder{
		resolver: NewResolverCache(cfg.ResolverCacheSize, cfg.ResolverCacheTTL.Duration()),
	}
}

// Resolver 返回目的地址解析缓存（可能为 nil）
func (b *Builder) Resolver() *ResolverCache {
	return b.resolver
}

// ResolveDestination 解析目的地址
func (b *Builder) ResolveDestination(env interfaces.NodeContext, dest types.Address) (types.NodeID, bool) {
	return b.resolver.Resolve(env, dest)
}

// Build 构建环境状态
//
// env 为 nil 时返回只含窗口统计的默认状态。
func (b *Builder) Build(env interfaces.NodeContext, self types.NodeID, window WindowReader, target Target) types.EnvState {
	s := types.DefaultEnvState()
	s.BufferOccupancy = types.FallbackBufferOccupancy

	if window != nil {
		s.RecentPDR = clamp(window.RecentPDR(), 0, 1)
		s.RecentDelay = math.Max(0, window.RecentMeanDelay())
		s.Measured = s.Measured.With(types.FieldRecentPDR).With(types.FieldRecentDelay)
	}

	if env == nil {
		return s
	}

	neighbors := env.ActiveNeighbors(self)
	s.NumNeighbors = float64(len(neighbors))
	s.Measured = s.Measured.With(types.FieldNumNeighbors)

	// 缓冲区
	if q, ok := env.(interfaces.BufferQuery); ok {
		if v, ok := q.BufferOccupancy(self); ok && finite(v) {
			s.BufferOccupancy = clamp(v, 0, 1)
			s.Measured = s.Measured.With(types.FieldBufferOccupancy)
		}
	}

	// 能量
	if q, ok := env.(interfaces.EnergyQuery); ok {
		if v, ok := q.EnergyLevel(self); ok && finite(v) {
			s.EnergyLevel = clamp(v, 0, 1)
			s.Measured = s.Measured.With(types.FieldEnergyLevel)
		}
	}

	// 到目的节点的距离
	if destID, ok := b.resolver.Resolve(env, target.Destination); ok {
		own, ok1 := env.Position(self)
		dst, ok2 := env.Position(destID)
		if ok1 && ok2 {
			s.DistanceToDest = own.DistanceTo(dst)
			s.Measured = s.Measured.With(types.FieldDistanceToDest)
		}
	}

	// 跳数
	if q, ok := env.(interfaces.HopQuery); ok && !target.Destination.IsEmpty() {
		if v, ok := q.HopsTo(self, target.Destination); ok && v >= 0 {
			s.HopsToDest = float64(v)
			s.Measured = s.Measured.With(types.FieldHopsToDest)
		}
	}

	// 邻居平均负载
	if q, ok := env.(interfaces.LoadQuery); ok && len(neighbors) > 0 {
		var total float64
		answered := 0
		for _, n := range neighbors {
			if v, ok := q.NodeLoad(n); ok && finite(v) {
				total += math.Max(0, v)
				answered++
			}
		}
		if answered > 0 {
			s.AvgNeighborLoad = total / float64(answered)
			s.Measured = s.Measured.With(types.FieldAvgNeighborLoad)
		}
	}

	// 报文优先级
	if target.Packet.HasPriority() {
		s.PacketPriority = float64(target.Packet.Priority)
		s.Measured = s.Measured.With(types.FieldPacketPriority)
	}

	// 排队时间
	if q, ok := env.(interfaces.QueueQuery); ok && target.Packet != nil {
		if v, ok := q.TimeInQueue(self, target.Packet); ok && v >= 0 {
			s.TimeInQueue = float64(v.Microseconds()) / 1000
			s.Measured = s.Measured.With(types.FieldTimeInQueue)
		}
	}

	if s.Measured != types.AllFields && logger.Enabled(log.LevelDebug) {
		logger.Debug("状态字段未测量，使用回退值",
			"node", self,
			"unmeasured", s.Measured.String())
	}

	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
