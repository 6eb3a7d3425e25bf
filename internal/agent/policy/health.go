package policy

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
//                              决策源健康跟踪
// ============================================================================

// 默认值
const (
	DefaultFailureThreshold = 5
	DefaultFailureWindow    = 10 * time.Second
	DefaultRecovery         = 30 * time.Second
)

// SourceHealth 决策源健康跟踪器
//
// 在窗口内失败次数达到阈值时暂停决策源，暂停 recovery 后自动恢复。
// 暂停期间外部适配器直接使用启发式，不再发起远程调用。
type SourceHealth struct {
	mu sync.Mutex

	clock     clock.Clock
	threshold int
	window    time.Duration
	recovery  time.Duration

	failures       []time.Time
	suspendedSince time.Time
	suspended      bool
	suspensions    int64
}

// HealthStats 健康统计
type HealthStats struct {
	Suspended      bool
	RecentFailures int
	Suspensions    int64
}

// NewSourceHealth 创建健康跟踪器
//
// 参数非正时使用默认值；clk 为 nil 时使用真实时钟。
func NewSourceHealth(threshold int, window, recovery time.Duration, clk clock.Clock) *SourceHealth {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if window <= 0 {
		window = DefaultFailureWindow
	}
	if recovery <= 0 {
		recovery = DefaultRecovery
	}
	if clk == nil {
		clk = clock.New()
	}
	return &SourceHealth{
		clock:     clk,
		threshold: threshold,
		window:    window,
		recovery:  recovery,
	}
}

// RecordFailure 记录一次失败
//
// 返回是否因本次失败进入暂停状态。
func (h *SourceHealth) RecordFailure() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	h.failures = append(h.failures, now)
	h.pruneLocked(now)

	if !h.suspended && len(h.failures) >= h.threshold {
		h.suspended = true
		h.suspendedSince = now
		h.suspensions++
		logger.Warn("外部决策源连续失败，暂停调用",
			"failures", len(h.failures),
			"window", h.window,
			"recovery", h.recovery)
		return true
	}
	return false
}

// RecordSuccess 记录一次成功，清空失败记录
func (h *SourceHealth) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = h.failures[:0]
}

// Suspended 是否处于暂停状态
func (h *SourceHealth) Suspended() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.suspended {
		return false
	}
	now := h.clock.Now()
	if now.Sub(h.suspendedSince) >= h.recovery {
		h.suspended = false
		h.failures = h.failures[:0]
		logger.Info("外部决策源恢复调用", "suspendedFor", now.Sub(h.suspendedSince))
		return false
	}
	return true
}

// Stats 获取统计
func (h *SourceHealth) Stats() HealthStats {
	suspended := h.Suspended()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneLocked(h.clock.Now())
	return HealthStats{
		Suspended:      suspended,
		RecentFailures: len(h.failures),
		Suspensions:    h.suspensions,
	}
}

// pruneLocked 清理窗口外的失败记录
func (h *SourceHealth) pruneLocked(now time.Time) {
	windowStart := now.Add(-h.window)
	kept := h.failures[:0]
	for _, t := range h.failures {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	h.failures = kept
}
