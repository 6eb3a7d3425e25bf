// Package policy 实现下一跳决策策略
//
// # 策略
//
//   - Heuristic: 几何启发式，选择距离参考点最近的候选邻居
//   - External: 外部决策源适配器，校验外部答案，失败时回退到启发式
//   - Adaptive: 表现良好时使用启发式，窗口投递率/时延恶化时切换到学习型策略
//
// # 决策源
//
//   - RoundRobinSource: 轮询候选邻居的基线决策源（参考服务端使用）
//
// 所有策略的 Decide 都不返回错误：任何失败都降级为有效动作，
// 降级原因记录在 AgentAction.Fallback 中。
package policy
