package grpcsource

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-drlrouting/internal/agent/policy"
	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/types"
	"github.com/dep2p/go-drlrouting/tests/mocks"
)

// startBufconn 在内存监听器上启动服务，返回客户端
func startBufconn(t *testing.T, source interfaces.DecisionSource) (*Server, *Client) {
	t.Helper()

	srv, conn := startBufconnConn(t, source)
	return srv, NewClient(conn)
}

// startBufconnConn 在内存监听器上启动服务，返回原始连接
func startBufconnConn(t *testing.T, source interfaces.DecisionSource) (*Server, *grpc.ClientConn) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(source)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = srv.Stop(context.Background())
	})
	return srv, conn
}

func sampleState() types.EnvState {
	s := types.DefaultEnvState()
	s.BufferOccupancy = 0.25
	s.NumNeighbors = 3
	s.RecentDelay = 12.5
	s.Measured = s.Measured.With(types.FieldNumNeighbors).With(types.FieldRecentDelay)
	return s
}

// TestWire_DecideRequestRoundTrip 测试请求编码
func TestWire_DecideRequestRoundTrip(t *testing.T) {
	in := DecideRequest{DecisionID: "id-1", State: sampleState(), Candidates: []types.NodeID{4, 7}}
	msg, err := EncodeDecideRequest(in)
	require.NoError(t, err)

	out, err := DecodeDecideRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// TestWire_MalformedMessages 测试格式错误
func TestWire_MalformedMessages(t *testing.T) {
	_, err := DecodeDecideRequest(nil)
	assert.ErrorIs(t, err, ErrMalformed)

	short, _ := structpb.NewStruct(map[string]interface{}{"state": []interface{}{1.0}})
	_, err = DecodeDecideRequest(short)
	assert.ErrorIs(t, err, ErrMalformed)

	noHop, _ := structpb.NewStruct(map[string]interface{}{"tx_power": 1.0})
	_, err = DecodeAction(noHop)
	assert.ErrorIs(t, err, ErrMalformed)

	fracHop, _ := structpb.NewStruct(map[string]interface{}{"next_hop": 1.5})
	_, err = DecodeAction(fracHop)
	assert.ErrorIs(t, err, ErrMalformed)

	fracPrio, _ := structpb.NewStruct(map[string]interface{}{"next_hop": 1.0, "priority": 0.5})
	_, err = DecodeAction(fracPrio)
	assert.ErrorIs(t, err, ErrMalformed)
}

// TestWire_NoneNextHop 测试 -1 表示不转发
func TestWire_NoneNextHop(t *testing.T) {
	msg, err := EncodeAction(types.NoAction("x"))
	require.NoError(t, err)
	assert.Equal(t, -1.0, msg.GetFields()["next_hop"].GetNumberValue())

	a, err := DecodeAction(msg)
	require.NoError(t, err)
	assert.True(t, a.NextHop.IsNone())
	assert.Equal(t, 1.0, a.TxPower)
}

// TestClientServer_Decide 测试远程决策
func TestClientServer_Decide(t *testing.T) {
	src := mocks.NewMockDecisionSource(types.AgentAction{NextHop: 7, TxPower: 0.4, Priority: 1})
	srv, client := startBufconn(t, src)

	ctx := types.ContextWithDecisionID(context.Background(), "dec-42")
	action, err := client.Decide(ctx, sampleState(), []types.NodeID{4, 7})
	require.NoError(t, err)

	assert.Equal(t, types.NodeID(7), action.NextHop)
	assert.Equal(t, 0.4, action.TxPower)
	assert.Equal(t, 1, action.Priority)

	require.Equal(t, 1, src.CallCount())
	assert.Equal(t, []types.NodeID{4, 7}, src.DecideCalls[0].Candidates)
	assert.Equal(t, sampleState(), src.DecideCalls[0].State)
	assert.Equal(t, int64(1), srv.Handler().Stats().Decisions)

	t.Log("✅ 远程决策测试通过")
}

// TestClientServer_SourceError 测试服务端决策源失败
func TestClientServer_SourceError(t *testing.T) {
	src := mocks.NewMockDecisionSource(types.AgentAction{})
	src.Err = errors.New("model not loaded")
	srv, client := startBufconn(t, src)

	_, err := client.Decide(context.Background(), sampleState(), []types.NodeID{1})
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(errors.Unwrap(err)))
	assert.Equal(t, int64(1), srv.Handler().Stats().Failures)
}

// TestClientServer_Observe 测试结果反馈
func TestClientServer_Observe(t *testing.T) {
	src := mocks.NewMockDecisionSource(types.AgentAction{})
	srv, client := startBufconn(t, src)

	tr := interfaces.Transition{
		DecisionID: "dec-1",
		State:      sampleState(),
		Action:     types.AgentAction{NextHop: 3, TxPower: 1, Priority: 2},
		Success:    true,
		Delay:      20,
		Reward:     policy.Reward(true, 20),
	}
	require.NoError(t, client.Observe(context.Background(), tr))

	got := src.Transitions()
	require.Len(t, got, 1)
	assert.Equal(t, tr, got[0])
	assert.Equal(t, int64(1), srv.Handler().Stats().Observed)
}

// TestClientServer_ThroughExternalPolicy 测试外部适配器经 gRPC 调用
func TestClientServer_ThroughExternalPolicy(t *testing.T) {
	_, client := startBufconn(t, policy.NewRoundRobinSource())
	ext := policy.NewExternal(client, policy.WithTimeout(2*time.Second))

	env := mocks.NewMockEnvironment(1).
		SetPosition(1, 0, 0, 0).
		SetPosition(2, 1, 0, 0).
		SetPosition(3, 2, 0, 0)
	req := &policy.Request{
		DecisionID: "rr",
		Self:       1,
		DestNode:   types.NoNode,
		State:      types.DefaultEnvState(),
		Candidates: []types.NodeID{2, 3},
		Env:        env,
	}

	first := ext.Decide(context.Background(), req)
	second := ext.Decide(context.Background(), req)
	assert.False(t, first.IsFallback())
	assert.Equal(t, types.NodeID(2), first.NextHop)
	assert.Equal(t, types.NodeID(3), second.NextHop)
	assert.Equal(t, policy.NameExternal, second.Policy)

	// 共享连接不由客户端关闭
	assert.NoError(t, ext.Close())
}

// TestServer_Reflection 测试反射只能列出服务，服务没有文件描述符
func TestServer_Reflection(t *testing.T) {
	_, conn := startBufconnConn(t, policy.NewRoundRobinSource())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)
	defer func() { _ = stream.CloseSend() }()

	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	var names []string
	for _, svc := range resp.GetListServicesResponse().GetService() {
		names = append(names, svc.GetName())
	}
	assert.Contains(t, names, ServiceName)

	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: ServiceName},
	}))
	resp, err = stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, resp.GetErrorResponse())
	assert.Equal(t, int32(codes.NotFound), resp.GetErrorResponse().GetErrorCode())

	t.Log("✅ 反射测试通过")
}
