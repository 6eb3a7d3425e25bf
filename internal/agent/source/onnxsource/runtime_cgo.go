//go:build cgo

package onnxsource

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var (
	initOnce sync.Once
	initErr  error
)

// initRuntime 初始化 ONNX Runtime 环境（进程内只做一次）
func initRuntime(libraryPath string) error {
	initOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("onnxsource: initialize onnx runtime: %w", err)
			return
		}
		logger.Info("ONNX Runtime 环境初始化成功", "library", libraryPath)
	})
	return initErr
}

// Source 进程内 ONNX 决策源
type Source struct {
	mu      sync.Mutex
	opts    Options
	session *ort.DynamicAdvancedSession
	closed  bool
}

var _ interfaces.DecisionSource = (*Source)(nil)

// Open 加载模型
func Open(opts Options) (*Source, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := initRuntime(opts.LibraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("onnxsource: create session for %s: %w", opts.ModelPath, err)
	}

	logger.Info("ONNX 模型已加载", "model", opts.ModelPath, "actionDim", opts.ActionDim)
	return &Source{opts: opts, session: session}, nil
}

// Decide 运行一次推理
func (s *Source) Decide(ctx context.Context, state types.EnvState, candidates []types.NodeID) (types.AgentAction, error) {
	if err := ctx.Err(); err != nil {
		return types.AgentAction{}, err
	}

	vec := state.Vector()
	input, err := ort.NewTensor(ort.NewShape(1, types.StateDim), vec[:])
	if err != nil {
		return types.AgentAction{}, fmt.Errorf("onnxsource: input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(s.opts.ActionDim)))
	if err != nil {
		return types.AgentAction{}, fmt.Errorf("onnxsource: output tensor: %w", err)
	}
	defer output.Destroy()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.AgentAction{}, ErrClosed
	}
	err = s.session.Run([]ort.Value{input}, []ort.Value{output})
	s.mu.Unlock()
	if err != nil {
		return types.AgentAction{}, fmt.Errorf("onnxsource: run: %w", err)
	}

	return SelectAction(output.GetData(), candidates)
}

// Close 释放会话
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.session.Destroy()
}
