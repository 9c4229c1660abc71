// Package forward implements the narrow leader-forward RPC a non-leader
// node uses to submit an SMD apply to the current Raft leader (spec.md's
// "clustering/exchange" Non-goal excludes general cluster transport, but
// not SMD application itself — this is the one piece of inter-node
// communication that gap leaves for the Info plane to own): an
// ensureLeader "forward to leader" pattern over a hand-assembled
// grpc.ServiceDesc.
//
// Rather than hand-authoring protoc-generated message types, the service
// exchanges google.golang.org/protobuf's ready-made structpb.Struct — a
// real proto.Message the default gRPC codec marshals natively, so no
// custom wire format or generated stubs are needed for this single
// narrow method.
package forward

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "infosmd.LeaderForward"
const applyMethod = "/infosmd.LeaderForward/Apply"

// Server is implemented by the SMD leader: Apply receives a forwarded
// command and applies it through Raft, returning the encoded result.
type Server interface {
	Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc is the hand-assembled grpc.ServiceDesc for the single Apply
// method, equivalent in shape to what protoc-gen-go-grpc would emit for a
// one-RPC service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Apply",
			Handler:    applyHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "infosmd.proto",
}

func applyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Apply(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: applyMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).Apply(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a thin wrapper over a grpc.ClientConn dialed to the current
// Raft leader.
type Client struct {
	cc *grpc.ClientConn
}

func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

func (c *Client) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, applyMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
