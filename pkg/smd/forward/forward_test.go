package forward

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeServer struct {
	received *structpb.Struct
}

func (f *fakeServer) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f.received = req
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}

func TestApplyRoundTripsOverGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	impl := &fakeServer{}
	srv.RegisterService(&ServiceDesc, impl)
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer cc.Close()

	client := NewClient(cc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := structpb.NewStruct(map[string]interface{}{"op": "set", "module": "roster", "key": "test", "value": "n1"})
	require.NoError(t, err)

	resp, err := client.Apply(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, true, resp.AsMap()["ok"])
	assert.Equal(t, "set", impl.received.AsMap()["op"])
}
