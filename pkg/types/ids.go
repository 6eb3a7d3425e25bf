package types

import (
	"math"
	"strconv"
)

// ============================================================================
//                              NodeID - 节点标识
// ============================================================================

// NodeID 仿真/网络中节点的数字标识
type NodeID uint32

// NoNode 表示"没有选出下一跳"
//
// 与真实节点 ID 空间不重叠，调用方（传输层）需要据此丢弃或重排报文。
const NoNode NodeID = math.MaxUint32

// IsNone 检查是否为 NoNode
func (id NodeID) IsNone() bool {
	return id == NoNode
}

// String 返回可读表示
func (id NodeID) String() string {
	if id.IsNone() {
		return "none"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// Int64 返回线上表示，NoNode 编码为 -1
func (id NodeID) Int64() int64 {
	if id.IsNone() {
		return -1
	}
	return int64(id)
}

// NodeIDFromInt64 从线上表示解析 NodeID
//
// 负数一律视为 NoNode；超出 uint32 范围返回 ErrInvalidNodeID。
func NodeIDFromInt64(v int64) (NodeID, error) {
	if v < 0 {
		return NoNode, nil
	}
	if v >= int64(NoNode) {
		return NoNode, ErrInvalidNodeID
	}
	return NodeID(v), nil
}

// ContainsNode 检查 id 是否在列表中
func ContainsNode(ids []NodeID, id NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ============================================================================
//                              Address - 目的地址
// ============================================================================

// Address 报文目的地址（通常是 IPv4 字符串）
type Address string

// IsEmpty 检查地址是否为空
func (a Address) IsEmpty() bool {
	return a == ""
}

// String 返回字符串表示
func (a Address) String() string {
	return string(a)
}
