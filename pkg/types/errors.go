package types

import "errors"

var (
	// ErrInvalidNodeID 无效的节点 ID
	ErrInvalidNodeID = errors.New("types: invalid node ID")

	// ErrInvalidState 状态字段越界
	ErrInvalidState = errors.New("types: invalid env state")

	// ErrInvalidAction 动作字段越界
	ErrInvalidAction = errors.New("types: invalid agent action")
)
