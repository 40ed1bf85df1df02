package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"docring/internal/balancer"
	"docring/internal/logging"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "docring.LoadBalancer"

// loadBalancerServer is the handler type of the service descriptor.
type loadBalancerServer interface {
	Forward(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddServer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveServer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*loadBalancerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Forward", Handler: unaryHandler("Forward", loadBalancerServer.Forward)},
		{MethodName: "AddServer", Handler: unaryHandler("AddServer", loadBalancerServer.AddServer)},
		{MethodName: "RemoveServer", Handler: unaryHandler("RemoveServer", loadBalancerServer.RemoveServer)},
		{MethodName: "Snapshot", Handler: unaryHandler("Snapshot", loadBalancerServer.Snapshot)},
	},
	Streams: []grpc.StreamDesc{},
}

type unaryMethod func(loadBalancerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(loadBalancerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(loadBalancerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Service implements the LoadBalancer gRPC service on top of a balancer.
type Service struct {
	lb     *balancer.LoadBalancer
	logger logging.Logger
}

// NewService creates a service backed by lb.
func NewService(lb *balancer.LoadBalancer, logger logging.Logger) *Service {
	return &Service{lb: lb, logger: logging.OrNop(logger)}
}

// Register adds the service to a gRPC server.
func Register(s grpc.ServiceRegistrar, svc *Service) {
	s.RegisterService(&serviceDesc, svc)
}

// NewServer creates a gRPC server with the service registered.
func NewServer(lb *balancer.LoadBalancer, logger logging.Logger, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	Register(s, NewService(lb, logger))
	return s
}

// Forward handles Forward requests.
func (s *Service) Forward(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := structToRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Debugf("[rpc] Forward request: kind=%s, name=%s", req.Kind, req.DocName)

	res, err := s.lb.Forward(req)
	if err != nil {
		return nil, toStatus(err)
	}
	return responseToStruct(res)
}

// AddServer handles AddServer requests.
func (s *Service) AddServer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := uint32Field(in, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	capacity, err := uint32Field(in, "cache_capacity")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Infof("[rpc] AddServer request: id=%d, cache_capacity=%d", id, capacity)

	if err := s.lb.AddServer(id, capacity); err != nil {
		return nil, toStatus(err)
	}
	return serversToStruct(s.lb.Servers())
}

// RemoveServer handles RemoveServer requests.
func (s *Service) RemoveServer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := uint32Field(in, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.logger.Infof("[rpc] RemoveServer request: id=%d", id)

	removed := s.lb.RemoveServer(id)
	return structpb.NewStruct(map[string]any{"removed": removed})
}

// Snapshot handles Snapshot requests.
func (s *Service) Snapshot(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return snapshotToStruct(s.lb.Snapshot())
}

// toStatus maps balancer errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, balancer.ErrServerExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, balancer.ErrNoServers):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, balancer.ErrInvalidServerID),
		errors.Is(err, balancer.ErrInvalidCapacity),
		errors.Is(err, balancer.ErrEmptyName),
		errors.Is(err, balancer.ErrUnknownKind):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
