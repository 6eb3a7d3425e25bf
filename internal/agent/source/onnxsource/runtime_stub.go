//go:build !cgo

package onnxsource

import (
	"context"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// Source 不支持 cgo 的构建下的占位实现
type Source struct{}

var _ interfaces.DecisionSource = (*Source)(nil)

// Open 总是返回 ErrUnavailable
func Open(opts Options) (*Source, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger.Warn("当前构建不支持 ONNX Runtime（需要 cgo）", "model", opts.ModelPath)
	return nil, ErrUnavailable
}

// Decide 总是返回 ErrUnavailable
func (s *Source) Decide(_ context.Context, _ types.EnvState, _ []types.NodeID) (types.AgentAction, error) {
	return types.AgentAction{}, ErrUnavailable
}

// Close 无操作
func (s *Source) Close() error {
	return nil
}
