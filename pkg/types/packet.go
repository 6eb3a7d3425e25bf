package types

import "time"

// Packet 待转发报文的描述
//
// 决策引擎只读取其中的元数据，不持有报文负载。
type Packet struct {
	// ID 报文标识（由传输层分配）
	ID uint64

	// Size 报文大小（字节）
	Size int

	// Priority 报文优先级（0-2），负数表示未知
	Priority int

	// EnqueuedAt 进入发送队列的时间，零值表示未知
	EnqueuedAt time.Time
}

// HasPriority 检查报文是否携带有效优先级
func (p *Packet) HasPriority() bool {
	return p != nil && p.Priority >= MinPriority && p.Priority <= MaxPriority
}
