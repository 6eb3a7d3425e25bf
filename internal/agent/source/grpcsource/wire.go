package grpcsource

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

// ErrMalformed 消息格式错误
var ErrMalformed = errors.New("grpcsource: malformed message")

// 消息字段名
const (
	fieldDecisionID = "decision_id"
	fieldState      = "state"
	fieldMeasured   = "measured"
	fieldCandidates = "candidates"
	fieldNextHop    = "next_hop"
	fieldTxPower    = "tx_power"
	fieldPriority   = "priority"
	fieldSuccess    = "success"
	fieldDelay      = "delay"
	fieldReward     = "reward"
)

// ============================================================================
//                              Decide
// ============================================================================

// DecideRequest Decide 请求
type DecideRequest struct {
	DecisionID string
	State      types.EnvState
	Candidates []types.NodeID
}

// EncodeDecideRequest 编码 Decide 请求
//
//	{decision_id, state: [10 floats], measured: mask, candidates: [ids]}
func EncodeDecideRequest(req DecideRequest) (*structpb.Struct, error) {
	cands := make([]interface{}, len(req.Candidates))
	for i, c := range req.Candidates {
		cands[i] = float64(c)
	}
	return structpb.NewStruct(map[string]interface{}{
		fieldDecisionID: req.DecisionID,
		fieldState:      stateList(req.State),
		fieldMeasured:   float64(req.State.Measured),
		fieldCandidates: cands,
	})
}

// DecodeDecideRequest 解码 Decide 请求
func DecodeDecideRequest(msg *structpb.Struct) (DecideRequest, error) {
	var out DecideRequest
	if msg == nil {
		return out, fmt.Errorf("%w: nil request", ErrMalformed)
	}
	fields := msg.GetFields()
	out.DecisionID = fields[fieldDecisionID].GetStringValue()

	state, err := decodeState(fields)
	if err != nil {
		return out, err
	}
	out.State = state

	for _, v := range fields[fieldCandidates].GetListValue().GetValues() {
		id, err := decodeNodeID(v.GetNumberValue())
		if err != nil || id.IsNone() {
			return out, fmt.Errorf("%w: bad candidate %v", ErrMalformed, v.GetNumberValue())
		}
		out.Candidates = append(out.Candidates, id)
	}
	return out, nil
}

// EncodeAction 编码 Decide 响应
//
//	{next_hop: id 或 -1, tx_power, priority}
func EncodeAction(a types.AgentAction) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldNextHop:  float64(a.NextHop.Int64()),
		fieldTxPower:  a.TxPower,
		fieldPriority: float64(a.Priority),
	})
}

// DecodeAction 解码 Decide 响应
//
// 只检查格式，取值范围由外部适配器校验。
func DecodeAction(msg *structpb.Struct) (types.AgentAction, error) {
	var a types.AgentAction
	if msg == nil {
		return a, fmt.Errorf("%w: nil response", ErrMalformed)
	}
	fields := msg.GetFields()

	hop, ok := fields[fieldNextHop]
	if !ok {
		return a, fmt.Errorf("%w: missing %s", ErrMalformed, fieldNextHop)
	}
	id, err := decodeNodeID(hop.GetNumberValue())
	if err != nil {
		return a, err
	}
	a.NextHop = id

	a.TxPower = types.MaxTxPower
	if v, ok := fields[fieldTxPower]; ok {
		a.TxPower = v.GetNumberValue()
	}
	if v, ok := fields[fieldPriority]; ok {
		p := v.GetNumberValue()
		if p != math.Trunc(p) || math.Abs(p) > math.MaxInt32 {
			return a, fmt.Errorf("%w: priority %v", ErrMalformed, p)
		}
		a.Priority = int(p)
	}
	return a, nil
}

// ============================================================================
//                              Observe
// ============================================================================

// EncodeTransition 编码结果反馈
func EncodeTransition(tr interfaces.Transition) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldDecisionID: tr.DecisionID,
		fieldState:      stateList(tr.State),
		fieldMeasured:   float64(tr.State.Measured),
		fieldNextHop:    float64(tr.Action.NextHop.Int64()),
		fieldTxPower:    tr.Action.TxPower,
		fieldPriority:   float64(tr.Action.Priority),
		fieldSuccess:    tr.Success,
		fieldDelay:      tr.Delay,
		fieldReward:     tr.Reward,
	})
}

// DecodeTransition 解码结果反馈
func DecodeTransition(msg *structpb.Struct) (interfaces.Transition, error) {
	var tr interfaces.Transition
	if msg == nil {
		return tr, fmt.Errorf("%w: nil transition", ErrMalformed)
	}
	fields := msg.GetFields()

	state, err := decodeState(fields)
	if err != nil {
		return tr, err
	}
	action, err := DecodeAction(msg)
	if err != nil {
		return tr, err
	}

	tr.DecisionID = fields[fieldDecisionID].GetStringValue()
	tr.State = state
	tr.Action = action
	tr.Success = fields[fieldSuccess].GetBoolValue()
	tr.Delay = fields[fieldDelay].GetNumberValue()
	tr.Reward = fields[fieldReward].GetNumberValue()
	return tr, nil
}

// ============================================================================
//                              辅助函数
// ============================================================================

func stateList(s types.EnvState) []interface{} {
	out := make([]interface{}, types.StateDim)
	for f := types.Field(0); f < types.StateDim; f++ {
		out[f] = s.Get(f)
	}
	return out
}

func decodeState(fields map[string]*structpb.Value) (types.EnvState, error) {
	values := fields[fieldState].GetListValue().GetValues()
	if len(values) != types.StateDim {
		return types.EnvState{}, fmt.Errorf("%w: state has %d values, want %d", ErrMalformed, len(values), types.StateDim)
	}
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = v.GetNumberValue()
	}

	mask := fields[fieldMeasured].GetNumberValue()
	if mask < 0 || mask > float64(types.AllFields) || mask != math.Trunc(mask) {
		return types.EnvState{}, fmt.Errorf("%w: measured mask %v", ErrMalformed, mask)
	}

	s, err := types.EnvStateFromVector(vec, types.FieldMask(mask))
	if err != nil {
		return types.EnvState{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

func decodeNodeID(v float64) (types.NodeID, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return types.NoNode, fmt.Errorf("%w: node id %v", ErrMalformed, v)
	}
	id, err := types.NodeIDFromInt64(int64(v))
	if err != nil {
		return types.NoNode, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return id, nil
}
