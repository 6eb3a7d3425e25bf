// Package mocks 提供统一的测试 Mock 实现
//
// # 环境 Mock
//
//   - MockEnvironment: 只实现必需能力（邻居 + 位置），用于验证回退路径
//   - MockRichEnvironment: 额外实现全部可选能力（缓冲区、能量、排队、负载、跳数、地址解析）
//
// # 决策 Mock
//
//   - MockDecisionSource: 模拟 interfaces.DecisionSource，可覆盖 Decide 并记录调用
//   - MockObserver: 记录收到的 Transition
//
// 所有 Mock 都提供可覆盖的 XxxFunc 字段，未设置时返回预置数据。
package mocks
