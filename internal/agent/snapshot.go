package agent

import (
	"github.com/dep2p/go-drlrouting/internal/agent/stats"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// Counters 累计计数（单调不减）
type Counters struct {
	PacketsSent     uint64
	PacketsReceived uint64
	// TotalDelay 成功投递的时延总和（毫秒）
	TotalDelay float64
}

// PDR 累计投递率，未发送时为 1.0
func (c Counters) PDR() float64 {
	if c.PacketsSent == 0 {
		return 1.0
	}
	return float64(c.PacketsReceived) / float64(c.PacketsSent)
}

// MeanDelay 成功投递的平均时延
func (c Counters) MeanDelay() float64 {
	if c.PacketsReceived == 0 {
		return 0
	}
	return c.TotalDelay / float64(c.PacketsReceived)
}

// Snapshot Agent 状态快照
type Snapshot struct {
	Node        types.NodeID
	Enabled     bool
	Initialized bool
	Policy      string

	State      types.EnvState
	LastAction types.AgentAction
	HasAction  bool

	Counters  Counters
	Window    stats.WindowStats
	Decisions int64
	Fallbacks int64
}
