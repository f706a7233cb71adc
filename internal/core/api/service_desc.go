package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "formulary.v1.FormulaService"

// FormulaServiceServer is the server API for FormulaService.
type FormulaServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateFormula(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFunctions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes FormulaService for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FormulaServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Evaluate", newStruct, FormulaServiceServer.Evaluate),
		unaryMethod("Validate", newStruct, FormulaServiceServer.Validate),
		unaryMethod("ValidateFormula", newStruct, FormulaServiceServer.ValidateFormula),
		unaryMethod("ListFunctions", newEmpty, FormulaServiceServer.ListFunctions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "formulary/v1/formula_service.proto",
}

// RegisterFormulaServiceServer registers srv with a gRPC server.
func RegisterFormulaServiceServer(s grpc.ServiceRegistrar, srv FormulaServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the /service/method path of a FormulaService method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

// unaryMethod builds the handler the protoc plugin would otherwise generate.
func unaryMethod[Req proto.Message](
	name string,
	newReq func() Req,
	call func(FormulaServiceServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(FormulaServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls FormulaService on a remote server.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Evaluate calls FormulaService.Evaluate.
func (c *Client) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Evaluate", in, opts...)
}

// Validate calls FormulaService.Validate.
func (c *Client) Validate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Validate", in, opts...)
}

// ValidateFormula calls FormulaService.ValidateFormula.
func (c *Client) ValidateFormula(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ValidateFormula", in, opts...)
}

// ListFunctions calls FormulaService.ListFunctions.
func (c *Client) ListFunctions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListFunctions", &emptypb.Empty{}, opts...)
}

func (c *Client) invoke(ctx context.Context, method string, in proto.Message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
