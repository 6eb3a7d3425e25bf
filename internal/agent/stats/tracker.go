package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrInvalidCapacity 窗口容量无效
var ErrInvalidCapacity = errors.New("stats: capacity must be positive")

// DefaultCapacity 默认窗口容量
const DefaultCapacity = 100

// Record 一次投递结果
type Record struct {
	Success bool
	// Delay 端到端时延（毫秒）
	Delay float64
}

// WindowStats 窗口统计快照
type WindowStats struct {
	Len       int
	Capacity  int
	PDR       float64
	MeanDelay float64
	MinDelay  float64
	MaxDelay  float64
	P50Delay  float64
	P95Delay  float64
	P99Delay  float64
}

// ============================================================================
//                              滑动窗口
// ============================================================================

// Tracker 投递结果滑动窗口
type Tracker struct {
	mu       sync.RWMutex
	history  []Record
	capacity int
}

// NewTracker 创建窗口
//
// capacity <= 0 时使用 DefaultCapacity。
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		history:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Record 追加一次结果
//
// 负时延按 0 记录，非有限时延按 0 记录。
func (t *Tracker) Record(success bool, delay float64) {
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		delay = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, Record{Success: success, Delay: delay})
	t.trimLocked()
}

// trimLocked 保持窗口大小
func (t *Tracker) trimLocked() {
	if over := len(t.history) - t.capacity; over > 0 {
		// 拷贝到新切片，避免底层数组无限增长
		kept := make([]Record, t.capacity)
		copy(kept, t.history[over:])
		t.history = kept
	}
}

// RecentPDR 窗口投递率，空窗口为 1.0
func (t *Tracker) RecentPDR() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return pdr(t.history)
}

// RecentMeanDelay 窗口平均时延，空窗口为 0
func (t *Tracker) RecentMeanDelay() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return meanDelay(t.history)
}

// Len 当前记录数
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.history)
}

// Capacity 窗口容量
func (t *Tracker) Capacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.capacity
}

// Records 返回记录副本（最旧在前）
func (t *Tracker) Records() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Record, len(t.history))
	copy(out, t.history)
	return out
}

// SetCapacity 调整窗口容量
//
// 扩大保留所有记录；缩小立即淘汰最旧的记录。
func (t *Tracker) SetCapacity(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.capacity = n
	t.trimLocked()
	return nil
}

// Reset 清空窗口
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = t.history[:0]
}

// ============================================================================
//                              统计
// ============================================================================

// Snapshot 获取窗口统计
func (t *Tracker) Snapshot() WindowStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := WindowStats{
		Len:       len(t.history),
		Capacity:  t.capacity,
		PDR:       pdr(t.history),
		MeanDelay: meanDelay(t.history),
	}
	if len(t.history) == 0 {
		return stats
	}

	// 排序（用于百分位计算）
	sorted := make([]float64, len(t.history))
	for i, r := range t.history {
		sorted[i] = r.Delay
	}
	sort.Float64s(sorted)

	n := len(sorted)
	stats.MinDelay = sorted[0]
	stats.MaxDelay = sorted[n-1]
	stats.P50Delay = sorted[n*50/100]
	stats.P95Delay = sorted[min(n-1, n*95/100)]
	stats.P99Delay = sorted[min(n-1, n*99/100)]
	return stats
}

func pdr(history []Record) float64 {
	if len(history) == 0 {
		return 1.0
	}
	ok := 0
	for _, r := range history {
		if r.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(history))
}

func meanDelay(history []Record) float64 {
	if len(history) == 0 {
		return 0
	}
	var total float64
	for _, r := range history {
		total += r.Delay
	}
	return total / float64(len(history))
}
