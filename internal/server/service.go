package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
//
// The service is described by hand and speaks only protobuf well-known types,
// so no generated code is needed on either side:
//
//	GetPublicKey(Empty)      returns BytesValue  PKIX DER public key
//	Sign(BytesValue)         returns BytesValue  raw signature over the message
//	Verify(Struct)           returns BoolValue   {"message": b64, "signature": b64}
//	QueryAudit(Struct)       returns ListValue   {"fingerprint", "operation", "start", "end", "limit"}
//	WatchAudit(Empty)        streams Struct      audit entries as they are logged
const ServiceName = "sigflow.v1.SignatureService"

type SignatureServiceServer interface {
	GetPublicKey(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Sign(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Verify(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	QueryAudit(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	WatchAudit(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SignatureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetPublicKey", SignatureServiceServer.GetPublicKey),
		unary("Sign", SignatureServiceServer.Sign),
		unary("Verify", SignatureServiceServer.Verify),
		unary("QueryAudit", SignatureServiceServer.QueryAudit),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchAudit",
			Handler:       watchAuditHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sigflow/v1/signature.proto",
}

func RegisterSignatureServiceServer(s grpc.ServiceRegistrar, srv SignatureServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(SignatureServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	method := fullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(SignatureServiceServer)
			handler := func(ctx context.Context, req any) (any, error) {
				resp, err := call(s, ctx, req.(*Req))
				if err != nil {
					return nil, err
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchAuditHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SignatureServiceServer).WatchAudit(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// Client calls SignatureService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetPublicKey(ctx context.Context, opts ...grpc.CallOption) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, fullMethod("GetPublicKey"), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) Sign(ctx context.Context, message []byte, opts ...grpc.CallOption) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, fullMethod("Sign"), wrapperspb.Bytes(message), out, opts...); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) Verify(ctx context.Context, message, signature []byte, opts ...grpc.CallOption) (bool, error) {
	in, err := verifyRequest(message, signature)
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, fullMethod("Verify"), in, out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) QueryAudit(ctx context.Context, filter AuditFilter, opts ...grpc.CallOption) ([]*structpb.Struct, error) {
	in, err := filter.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("QueryAudit"), in, out, opts...); err != nil {
		return nil, err
	}
	entries := make([]*structpb.Struct, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		if s := v.GetStructValue(); s != nil {
			entries = append(entries, s)
		}
	}
	return entries, nil
}

func (c *Client) WatchAudit(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("WatchAudit"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	// Entries logged after Header returns are delivered.
	if _, err := x.Header(); err != nil {
		return nil, err
	}
	return x, nil
}
