package grpcsource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dep2p/go-drlrouting/pkg/interfaces"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
)

// ============================================================================
//                              服务处理器
// ============================================================================

// Handler 把 DecisionSource 暴露为 DecisionServer
type Handler struct {
	source interfaces.DecisionSource

	decisions atomic.Int64
	failures  atomic.Int64
	observed  atomic.Int64
}

var _ DecisionServer = (*Handler)(nil)

// NewHandler 创建处理器
func NewHandler(source interfaces.DecisionSource) *Handler {
	return &Handler{source: source}
}

// Decide 处理决策请求
func (h *Handler) Decide(ctx context.Context, msg *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeDecideRequest(msg)
	if err != nil {
		h.failures.Add(1)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	action, err := h.source.Decide(ctx, req.State, req.Candidates)
	if err != nil {
		h.failures.Add(1)
		logger.Debug("决策源失败", "decisionID", log.ShortID(req.DecisionID, 8), "err", err)
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	h.decisions.Add(1)
	return EncodeAction(action)
}

// Observe 处理结果反馈
func (h *Handler) Observe(ctx context.Context, msg *structpb.Struct) (*emptypb.Empty, error) {
	tr, err := DecodeTransition(msg)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	h.observed.Add(1)
	if obs, ok := h.source.(interfaces.OutcomeObserver); ok {
		if err := obs.Observe(ctx, tr); err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
	}
	return &emptypb.Empty{}, nil
}

// HandlerStats 处理器统计
type HandlerStats struct {
	Decisions int64
	Failures  int64
	Observed  int64
}

// Stats 获取统计
func (h *Handler) Stats() HandlerStats {
	return HandlerStats{
		Decisions: h.decisions.Load(),
		Failures:  h.failures.Load(),
		Observed:  h.observed.Load(),
	}
}

// ============================================================================
//                              服务器
// ============================================================================

// Server 决策服务 gRPC 服务器
//
// 启用反射，可以用 grpcurl 列出服务：
//
//	grpcurl -plaintext 127.0.0.1:50051 list
//
// 消息使用 structpb，服务没有注册 proto 文件描述符，
// 因此 describe 无法解析 DecisionService。
type Server struct {
	handler    *Handler
	grpcServer *grpc.Server
	listener   net.Listener
	actualAddr string
}

// NewServer 创建服务器
func NewServer(source interfaces.DecisionSource, opts ...grpc.ServerOption) *Server {
	grpcServer := grpc.NewServer(opts...)
	handler := NewHandler(source)
	RegisterDecisionServer(grpcServer, handler)
	reflection.Register(grpcServer)

	return &Server{
		handler:    handler,
		grpcServer: grpcServer,
	}
}

// Handler 返回处理器
func (s *Server) Handler() *Handler {
	return s.handler
}

// Start 在 addr 上监听并在后台提供服务
func (s *Server) Start(_ context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = lis
	s.actualAddr = lis.Addr().String()

	go func() {
		if err := s.Serve(lis); err != nil {
			logger.Error("决策服务退出", "err", err)
		}
	}()

	logger.Info("决策服务已启动", "address", s.actualAddr)
	return nil
}

// Serve 在给定监听器上阻塞服务
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Address 返回实际监听地址
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.actualAddr
}

// Stop 优雅停止
func (s *Server) Stop(_ context.Context) error {
	s.grpcServer.GracefulStop()
	logger.Info("决策服务已停止", "stats", s.handler.Stats())
	return nil
}
