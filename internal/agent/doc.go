// Package agent 实现每个节点的路由 Agent
//
// Agent 把窗口统计、状态构建和决策策略组合起来：
//
//	SelectNextHop    刷新状态 → 查询邻居 → 调用策略 → 记录最后动作 → 返回下一跳
//	UpdateStatistics 更新累计计数 → 写入窗口 → 刷新状态 → 转发结果反馈
//
// 任何降级路径（未启用、未初始化、没有邻居、外部决策失败）
// 都不会把错误交给调用方，最差返回 types.NoNode。
//
// # 文件组织
//
//   - agent.go    - Agent 主体
//   - snapshot.go - 计数器与状态快照
//   - metrics.go  - Prometheus 指标
//   - factory.go  - 按配置构建策略与 Agent
//   - module.go   - Fx 模块
package agent
