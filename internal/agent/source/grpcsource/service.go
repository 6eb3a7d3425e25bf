// Package grpcsource 通过 gRPC 访问外部决策服务
//
// 服务 drlrouting.v1.DecisionService 有两个一元方法：
//
//	Decide(google.protobuf.Struct) returns (google.protobuf.Struct)
//	Observe(google.protobuf.Struct) returns (google.protobuf.Empty)
//
// 消息使用 Struct 承载，不需要代码生成；字段布局见 wire.go。
// Client 实现 interfaces.DecisionSource，Server 把任意 DecisionSource 暴露为该服务。
package grpcsource

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// 服务与方法名
const (
	ServiceName   = "drlrouting.v1.DecisionService"
	DecideMethod  = "/" + ServiceName + "/Decide"
	ObserveMethod = "/" + ServiceName + "/Observe"
)

// DecisionServer 服务端接口
type DecisionServer interface {
	Decide(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Observe(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterDecisionServer 注册服务
func RegisterDecisionServer(s grpc.ServiceRegistrar, srv DecisionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func decideHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DecisionServer).Decide(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DecideMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DecisionServer).Decide(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func observeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DecisionServer).Observe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ObserveMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DecisionServer).Observe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc 服务描述
//
// Metadata 只是名义上的文件名，没有对应的已注册描述符。
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DecisionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Decide", Handler: decideHandler},
		{MethodName: "Observe", Handler: observeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "drlrouting/v1/decision.proto",
}
