package cluster

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/paramstr"
	"github.com/cuemby/infod/pkg/smd"
	"github.com/cuemby/infod/pkg/types"
)

func bootstrapTestSMD(t *testing.T) *smd.SMD {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s, err := smd.Bootstrap(smd.Config{
		NodeID:   "test-node",
		BindAddr: addr,
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.Eventually(t, s.IsLeader, 5*time.Second, 10*time.Millisecond, "node never became leader")
	return s
}

func TestReplicasRendersRosterMasterAndReplicas(t *testing.T) {
	s := bootstrapTestSMD(t)
	require.NoError(t, s.BlockingSet(context.Background(), types.SMDModuleRoster, "test", "n1,n2,n3", 2*time.Second))

	r := NewReplicas(s)
	buf := dynbuf.NewSize(0)
	require.NoError(t, r.Replicas("replicas", paramstr.Parse("namespace=test"), buf))
	assert.Equal(t, "n1:n2:n3", buf.String())
}

func TestReplicasMaxBoundsResult(t *testing.T) {
	s := bootstrapTestSMD(t)
	require.NoError(t, s.BlockingSet(context.Background(), types.SMDModuleRoster, "test", "n1,n2,n3", 2*time.Second))

	r := NewReplicas(s)
	buf := dynbuf.NewSize(0)
	require.NoError(t, r.ReplicasMax("replicas-max", paramstr.Parse("namespace=test;max=2"), buf))
	assert.Equal(t, "n1:n2", buf.String())
}

func TestReplicasMissingNamespaceParam(t *testing.T) {
	s := bootstrapTestSMD(t)
	r := NewReplicas(s)
	err := r.Replicas("replicas", paramstr.Parse(""), dynbuf.NewSize(0))
	assert.Error(t, err)
}

func TestReplicasNoRosterEntry(t *testing.T) {
	s := bootstrapTestSMD(t)
	r := NewReplicas(s)
	err := r.Replicas("replicas", paramstr.Parse("namespace=unknown"), dynbuf.NewSize(0))
	assert.Error(t, err)
}

func TestReplicasMaxInvalidParam(t *testing.T) {
	s := bootstrapTestSMD(t)
	require.NoError(t, s.BlockingSet(context.Background(), types.SMDModuleRoster, "test", "n1", 2*time.Second))
	r := NewReplicas(s)
	err := r.ReplicasMax("replicas-max", paramstr.Parse("namespace=test;max=bad"), dynbuf.NewSize(0))
	assert.Error(t, err)
}
