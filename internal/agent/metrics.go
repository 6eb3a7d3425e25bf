package agent

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dep2p/go-drlrouting/pkg/types"
)

// 决策结果标签
const (
	outcomeForwarded  = "forwarded"
	outcomeNoHop      = "no_hop"
	outcomeNoNeighbor = "no_neighbors"
	outcomeDisabled   = "disabled"
	outcomeUninit     = "uninitialized"
)

// ============================================================================
//                              Prometheus 指标
// ============================================================================

// Metrics 路由 Agent 指标
//
// 同一进程内的所有 Agent 共享一组收集器，按 node 标签区分。
type Metrics struct {
	decisions       *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	decisionLatency *prometheus.HistogramVec
	packetsSent     *prometheus.CounterVec
	packetsReceived *prometheus.CounterVec
	windowPDR       *prometheus.GaugeVec
	windowDelay     *prometheus.GaugeVec
}

// NewMetrics 创建指标并注册到 reg
//
// reg 为 nil 时只创建不注册（用于关闭指标或测试）。
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "decisions_total",
			Help:      "Next-hop decisions by policy and outcome",
		}, []string{"node", "policy", "outcome"}),

		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "fallbacks_total",
			Help:      "Decisions answered by the heuristic instead of the configured policy",
		}, []string{"node", "reason"}),

		decisionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "decision_latency_seconds",
			Help:      "Time spent producing one decision",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"policy"}),

		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "packets_sent_total",
			Help:      "Delivery outcomes reported to the agent",
		}, []string{"node"}),

		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "packets_received_total",
			Help:      "Successful deliveries reported to the agent",
		}, []string{"node"}),

		windowPDR: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "window_pdr",
			Help:      "Packet delivery ratio over the recent window",
		}, []string{"node"}),

		windowDelay: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "window_delay_ms",
			Help:      "Mean delivery delay over the recent window",
		}, []string{"node"}),
	}
}

func nodeLabel(id types.NodeID) string {
	if id.IsNone() {
		return "none"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// recordDecision 记录一次决策
func (m *Metrics) recordDecision(node types.NodeID, action types.AgentAction, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	policy := action.Policy
	if policy == "" {
		policy = "none"
	}
	m.decisions.WithLabelValues(nodeLabel(node), policy, outcome).Inc()
	if action.Fallback != "" {
		m.fallbacks.WithLabelValues(nodeLabel(node), action.Fallback).Inc()
	}
	if took > 0 {
		m.decisionLatency.WithLabelValues(policy).Observe(took.Seconds())
	}
}

// recordSkipped 记录未调用策略的决策（禁用/未初始化/无邻居）
func (m *Metrics) recordSkipped(node types.NodeID, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(nodeLabel(node), "none", outcome).Inc()
}

// recordOutcome 记录投递结果与窗口统计
func (m *Metrics) recordOutcome(node types.NodeID, success bool, pdr, delay float64) {
	if m == nil {
		return
	}
	label := nodeLabel(node)
	m.packetsSent.WithLabelValues(label).Inc()
	if success {
		m.packetsReceived.WithLabelValues(label).Inc()
	}
	m.windowPDR.WithLabelValues(label).Set(pdr)
	m.windowDelay.WithLabelValues(label).Set(delay)
}
