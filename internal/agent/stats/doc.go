// Package stats 实现投递结果滑动窗口统计
//
// Tracker 保存最近 N 次投递结果（成功标志 + 时延），
// 提供窗口投递率、平均时延与时延百分位。
//
// 窗口规则：
//   - 长度永远不超过容量
//   - 满时先淘汰最旧的记录（FIFO）
//   - 空窗口：投递率 1.0，平均时延 0
//   - 缩小容量时立即淘汰最旧的记录
package stats
