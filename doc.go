// Package drlrouting 提供多跳无线路由协议的逐节点下一跳决策引擎
//
// 每个节点运行一个 Agent：给定一个发往某目的地址的报文，Agent 从当前活跃邻居中
// 选出下一跳，并用最近的投递结果持续刷新环境状态。拓扑、移动、发送、能量和
// 学习型策略的运行时都是外部协作方，通过 pkg/interfaces 中的小接口接入。
//
// # 快速开始
//
//	import "github.com/dep2p/go-drlrouting"
//
//	rt, err := drlrouting.Start(ctx,
//	    drlrouting.WithPreset(drlrouting.PresetAdaptive),
//	    drlrouting.WithExternalAddress("127.0.0.1:50051"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	agent, _ := rt.NewAgent(env) // env 实现 drlrouting.NodeContext
//	next := agent.SelectNextHop(ctx, pkt, "10.0.0.7")
//	// ... 发送后回报结果
//	agent.UpdateStatistics(delivered, delayMs)
//
// # 决策策略
//
//	heuristic  选择离目的节点最近的邻居（默认）
//	external   gRPC 外部决策服务，失败、超时或答案无效时回退到启发式
//	onnx       进程内 ONNX 模型，同样经过外部适配器校验与回退
//	adaptive   窗口投递率或时延恶化时切换到学习型策略
//
// # 文件组织
//
//	drlrouting/
//	├── drlrouting.go   # 版本信息
//	├── runtime.go      # Runtime：New、Start、Stop、NewAgent
//	├── fx.go           # Fx 应用装配
//	├── options.go      # WithXxx 配置选项
//	├── presets.go      # 预设名称
//	├── types.go        # 公共类型别名
//	└── errors.go       # 错误定义
//
// 内部实现位于 internal/agent（Agent、策略、状态构建、窗口统计、决策源），
// 参考仿真环境位于 internal/sim，命令行工具位于 cmd/drlrouting。
package drlrouting
