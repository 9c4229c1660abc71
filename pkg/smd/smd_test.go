package smd

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/infod/pkg/types"
)

// bootstrapTestSMD starts a single-node SMD instance on a free loopback port
// and blocks until it has elected itself leader, for tests that exercise the
// Raft-backed apply path end to end rather than mocking it.
func bootstrapTestSMD(t *testing.T) *SMD {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s, err := Bootstrap(Config{
		NodeID:   "test-node",
		BindAddr: addr,
		DataDir:  t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.Eventually(t, s.IsLeader, 5*time.Second, 10*time.Millisecond, "node never became leader")
	return s
}

func TestBootstrapSingleNodeBecomesLeader(t *testing.T) {
	s := bootstrapTestSMD(t)
	assert.True(t, s.IsLeader())
}

func TestBlockingSetAndGetAll(t *testing.T) {
	s := bootstrapTestSMD(t)

	require.NoError(t, s.BlockingSet(context.Background(), types.SMDModuleRoster, "test", "n1,n2", 2*time.Second))

	var got string
	err := s.GetAll(types.SMDModuleRoster, func(key, value string) bool {
		if key == "test" {
			got = value
		}
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, "n1,n2", got)
}

func TestBlockingDeleteTombstones(t *testing.T) {
	s := bootstrapTestSMD(t)
	require.NoError(t, s.BlockingSet(context.Background(), types.SMDModuleRoster, "test", "n1", 2*time.Second))
	require.NoError(t, s.BlockingDelete(context.Background(), types.SMDModuleRoster, "test", 2*time.Second))

	recs, err := s.Snapshot(types.SMDModuleRoster)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestApplyWithoutForwardDialerOnNonLeaderFails(t *testing.T) {
	s := bootstrapTestSMD(t)
	// Force the non-leader path directly rather than standing up a second
	// node: exercises the same "no dialer configured" guard.
	err := s.applyViaForward(context.Background(), Command{Op: "set"}, time.Second)
	assert.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "forward dialer")
}
