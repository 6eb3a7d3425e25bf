// Package onnxsource 在进程内运行学习型策略（ONNX 模型）
//
// 模型约定（actor 网络导出）：
//
//	输入  state  float32[1, 10]   EnvState.Vector() 的字段顺序
//	输出  probs  float32[1, K]    每个候选槽位的动作概率
//
// 取 argmax k，下一跳为 candidates[k]；k 超出候选数时视为无效答案，
// 由外部适配器回退到启发式。
//
// 需要 cgo 与 onnxruntime 共享库；在 !cgo 构建下 Open 返回 ErrUnavailable。
package onnxsource

import (
	"errors"
	"fmt"
	"math"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var logger = log.Logger("agent/onnxsource")

// PolicyName 产生动作的策略名
const PolicyName = "onnx"

var (
	// ErrUnavailable 当前构建不支持 ONNX Runtime
	ErrUnavailable = errors.New("onnxsource: onnx runtime unavailable in this build")

	// ErrActionOutOfRange 模型选择的槽位没有对应候选
	ErrActionOutOfRange = errors.New("onnxsource: action index out of candidate range")

	// ErrEmptyOutput 模型输出为空
	ErrEmptyOutput = errors.New("onnxsource: empty model output")

	// ErrClosed 已关闭
	ErrClosed = errors.New("onnxsource: source closed")
)

// Options 模型选项
type Options struct {
	ModelPath   string
	LibraryPath string
	InputName   string
	OutputName  string
	ActionDim   int
}

// OptionsFromConfig 从配置转换
func OptionsFromConfig(cfg config.OnnxConfig) Options {
	return Options{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.LibraryPath,
		InputName:   cfg.InputName,
		OutputName:  cfg.OutputName,
		ActionDim:   cfg.ActionDim,
	}
}

func (o Options) validate() error {
	if o.ModelPath == "" {
		return fmt.Errorf("onnxsource: model path is required")
	}
	if o.InputName == "" || o.OutputName == "" {
		return fmt.Errorf("onnxsource: input and output names are required")
	}
	if o.ActionDim < 1 {
		return fmt.Errorf("onnxsource: action dim must be >= 1, got %d", o.ActionDim)
	}
	return nil
}

// SelectAction 把模型输出转换为动作
//
// 非有限的概率被忽略；相同概率取较小的槽位。
func SelectAction(probs []float32, candidates []types.NodeID) (types.AgentAction, error) {
	best := -1
	bestP := float32(math.Inf(-1))
	for i, p := range probs {
		if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
			continue
		}
		if best < 0 || p > bestP {
			best, bestP = i, p
		}
	}
	if best < 0 {
		return types.AgentAction{}, ErrEmptyOutput
	}
	if best >= len(candidates) {
		return types.AgentAction{}, fmt.Errorf("%w: index %d, %d candidates", ErrActionOutOfRange, best, len(candidates))
	}

	action := types.NoAction(PolicyName)
	action.NextHop = candidates[best]
	return action, nil
}
