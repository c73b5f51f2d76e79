package wherering

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wherering.v1.WhereRingService"

// Full method names used by clients with grpc.ClientConn.Invoke.
const (
	ReportFixMethod      = "/" + ServiceName + "/ReportFix"
	GetRingerMethod      = "/" + ServiceName + "/GetRinger"
	SetRingerMethod      = "/" + ServiceName + "/SetRinger"
	GetStatusMethod      = "/" + ServiceName + "/GetStatus"
	RefreshCatalogMethod = "/" + ServiceName + "/RefreshCatalog"
)

// Handler is the server side of the WhereRing service.
type Handler interface {
	ReportFix(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetRinger(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	SetRinger(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	RefreshCatalog(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the WhereRing service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ReportFix", Handler: unary(ReportFixMethod, newStruct, Handler.ReportFix)},
		{MethodName: "GetRinger", Handler: unary(GetRingerMethod, newEmpty, Handler.GetRinger)},
		{MethodName: "SetRinger", Handler: unary(SetRingerMethod, newStruct, Handler.SetRinger)},
		{MethodName: "GetStatus", Handler: unary(GetStatusMethod, newEmpty, Handler.GetStatus)},
		{MethodName: "RefreshCatalog", Handler: unary(RefreshCatalogMethod, newEmpty, Handler.RefreshCatalog)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wherering/v1/wherering.proto",
}

// Register attaches handler to registrar.
func Register(registrar grpc.ServiceRegistrar, handler Handler) {
	registrar.RegisterService(&ServiceDesc, handler)
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

// unary adapts a typed handler method to grpc.MethodHandler, the way
// generated code does for every RPC.
func unary[Req any](
	fullMethod string,
	newRequest func() Req,
	call func(Handler, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newRequest()
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(Handler), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(Handler), ctx, req.(Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}
