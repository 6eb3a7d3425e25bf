package onnxsource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// TestSelectAction 测试 argmax 选择
func TestSelectAction(t *testing.T) {
	cands := []types.NodeID{10, 11, 12}

	a, err := SelectAction([]float32{0.1, 0.7, 0.2, 0}, cands)
	require.NoError(t, err)
	assert.Equal(t, types.NodeID(11), a.NextHop)
	assert.Equal(t, PolicyName, a.Policy)
	assert.NoError(t, a.Validate(cands))

	// 相同概率取较小槽位
	a, err = SelectAction([]float32{0.4, 0.4, 0.2}, cands)
	require.NoError(t, err)
	assert.Equal(t, types.NodeID(10), a.NextHop)

	// 非有限值被忽略
	nan := float32(math.NaN())
	a, err = SelectAction([]float32{nan, 0.1, 0.05}, cands)
	require.NoError(t, err)
	assert.Equal(t, types.NodeID(11), a.NextHop)
}

// TestSelectAction_Invalid 测试无效输出
func TestSelectAction_Invalid(t *testing.T) {
	_, err := SelectAction([]float32{0.1, 0.1, 0.1, 0.9}, []types.NodeID{1, 2})
	assert.ErrorIs(t, err, ErrActionOutOfRange)

	_, err = SelectAction(nil, []types.NodeID{1})
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

// TestOptions 测试选项校验
func TestOptions(t *testing.T) {
	opts := OptionsFromConfig(config.DefaultPolicyConfig().Onnx)
	assert.Equal(t, "state", opts.InputName)
	assert.Equal(t, "probs", opts.OutputName)
	assert.Error(t, opts.validate())

	opts.ModelPath = "actor.onnx"
	assert.NoError(t, opts.validate())

	opts.ActionDim = 0
	assert.Error(t, opts.validate())

	_, err := Open(Options{})
	assert.Error(t, err)
}
