package agent

import "errors"

var (
	// ErrNilEnvironment 环境为空
	ErrNilEnvironment = errors.New("agent: environment is nil")

	// ErrClosed Agent 已关闭
	ErrClosed = errors.New("agent: agent is closed")

	// ErrUnknownPolicy 未知策略类型
	ErrUnknownPolicy = errors.New("agent: unknown policy kind")
)
