// Package sim 提供路由 Agent 的参考仿真环境
//
// World 是一个带随机种子的二维区域：节点按随机路点模型移动，
// 只有无线半径内的节点互为邻居。每个节点的 View 实现
// interfaces.NodeContext 及全部可选能力，可以直接交给 Agent。
//
// Runner 按步驱动所有 Agent：每步每个节点并发地选择一个随机目的地、
// 请求下一跳、模拟发送并回报结果；步与步之间统一推进移动和队列。
//
// # 文件组织
//
//   - world.go  - 世界状态与移动模型
//   - view.go   - 单节点视角（环境协作方实现）
//   - link.go   - 链路模型
//   - runner.go - 仿真驱动
package sim
