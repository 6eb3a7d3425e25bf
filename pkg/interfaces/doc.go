// Package interfaces 定义 drlrouting 的公共接口
//
// # 协作方接口（由外部环境实现）
//
//   - environment.go - NodeContext（邻居查询 + 位置查询）以及可选能力：
//     BufferQuery, EnergyQuery, QueueQuery, LoadQuery, HopQuery, AddressResolver
//
// 可选能力通过类型断言探测：环境没有实现某个接口，或实现了但返回 ok=false，
// 状态构建器都会使用文档化的回退值，并在 EnvState.Measured 中不置位。
//
// # 决策接口
//
//   - decision.go - Policy（Agent 持有的决策策略）、DecisionSource（外部/学习型决策源）、
//     OutcomeObserver（接收投递结果反馈）
package interfaces
