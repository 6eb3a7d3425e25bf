package grpcsource

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
	"github.com/dep2p/go-drlrouting/pkg/types"
)

var logger = log.Logger("agent/grpcsource")

// Client 外部决策服务客户端
type Client struct {
	conn  *grpc.ClientConn
	owned bool
}

var (
	_ interfaces.DecisionSource  = (*Client)(nil)
	_ interfaces.OutcomeObserver = (*Client)(nil)
)

// Dial 连接决策服务
//
// 未指定传输凭证时使用明文连接。连接是惰性的，首次调用时才真正建立。
func Dial(address string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial decision service %s: %w", address, err)
	}
	logger.Info("决策服务客户端已创建", "address", address)
	return &Client{conn: conn, owned: true}, nil
}

// NewClient 复用已有连接（Close 不关闭该连接）
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Decide 请求远程决策
func (c *Client) Decide(ctx context.Context, state types.EnvState, candidates []types.NodeID) (types.AgentAction, error) {
	req, err := EncodeDecideRequest(DecideRequest{
		DecisionID: types.DecisionIDFromContext(ctx),
		State:      state,
		Candidates: candidates,
	})
	if err != nil {
		return types.AgentAction{}, err
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, DecideMethod, req, resp); err != nil {
		return types.AgentAction{}, fmt.Errorf("decide: %w", err)
	}
	return DecodeAction(resp)
}

// Observe 上报结果反馈
func (c *Client) Observe(ctx context.Context, tr interfaces.Transition) error {
	req, err := EncodeTransition(tr)
	if err != nil {
		return err
	}
	if err := c.conn.Invoke(ctx, ObserveMethod, req, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	return c.conn.Close()
}
