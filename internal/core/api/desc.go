package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of the evaluation service.
const (
	ServiceName    = "ajre.v1.RulesEngine"
	EvaluateMethod = "/" + ServiceName + "/Evaluate"
)

// RulesEngineServer is the server API of the evaluation service.
// Requests and responses are generic protobuf Structs so rules and documents
// travel as plain JSON objects.
type RulesEngineServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RulesEngineServiceDesc describes the service for grpc.Server registration.
var RulesEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RulesEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    evaluateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ajre/v1/rules_engine.proto",
}

// RegisterRulesEngineServer registers srv on s.
func RegisterRulesEngineServer(s grpc.ServiceRegistrar, srv RulesEngineServer) {
	s.RegisterService(&RulesEngineServiceDesc, srv)
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RulesEngineServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: EvaluateMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RulesEngineServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the evaluation service over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Evaluate sends one evaluation request.
func (c *Client) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
