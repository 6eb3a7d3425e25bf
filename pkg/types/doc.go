// Package types 定义 drlrouting 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 drlrouting 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go     - NodeID, Address, 哨兵值 NoNode
//   - vector.go  - 三维坐标 Vector
//   - packet.go  - 待转发报文描述 Packet
//   - state.go   - 环境状态 EnvState, 字段掩码 FieldMask
//   - action.go  - 决策结果 AgentAction
//   - context.go - 决策 ID 的 context 传递
//   - errors.go  - 公共错误定义
//
// # 哨兵约定
//
//   - NoNode     - "无决策"，SelectNextHop 在任何降级路径上返回该值
//   - Unresolved - 距离/跳数无法解析时的占位值（-1）
package types
