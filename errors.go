package drlrouting

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 运行时未启动
	ErrNotStarted = errors.New("drlrouting: runtime not started")

	// ErrAlreadyStarted 运行时已启动
	ErrAlreadyStarted = errors.New("drlrouting: runtime already started")

	// ErrClosed 运行时已关闭
	ErrClosed = errors.New("drlrouting: runtime closed")

	// ErrInvalidOption 选项无效
	ErrInvalidOption = errors.New("drlrouting: invalid option")
)
