// Package lib 包含与路由决策无关的基础设施工具库
//
//   - log: 组件日志封装
package lib
