package smd

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/infod/pkg/dynbuf"
	"github.com/cuemby/infod/pkg/events"
	"github.com/cuemby/infod/pkg/paramstr"
)

func TestSindexCreateAndIdempotentReplay(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	params := paramstr.Parse("ns=test;indexname=idx_age;indexdata=age,numeric")

	buf := dynbuf.NewSize(0)
	require.NoError(t, sx.Create("sindex-create", params, buf))
	assert.Equal(t, "ok", string(buf.Bytes()))

	buf2 := dynbuf.NewSize(0)
	require.NoError(t, sx.Create("sindex-create", params, buf2))
	assert.Equal(t, "ok", string(buf2.Bytes()))
}

func TestSindexCreateNameCollisionDifferentDefConflicts(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	require.NoError(t, sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_age;indexdata=age,numeric"), dynbuf.NewSize(0)))

	err := sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_age;indexdata=dob,numeric"), dynbuf.NewSize(0))
	assert.Error(t, err)
}

func TestSindexCreateMissingParams(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	err := sx.Create("sindex-create", paramstr.Parse("indexname=idx_age;indexdata=age,numeric"), dynbuf.NewSize(0))
	assert.Error(t, err)
}

func TestSindexCreateRejectsBadCDTContext(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	err := sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_age;indexdata=age,numeric;context=not-base64!!"), dynbuf.NewSize(0))
	assert.Error(t, err)
}

func TestSindexCreateAcceptsValidCDTContext(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	ctx := base64.StdEncoding.EncodeToString([]byte{0x91, 0x01}) // msgpack: array of one fixint
	err := sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_age;indexdata=age,numeric;context="+ctx), dynbuf.NewSize(0))
	assert.NoError(t, err)
}

func TestSindexCreateEnforcesNamespaceCap(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 1)
	require.NoError(t, sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_a;indexdata=a,numeric"), dynbuf.NewSize(0)))

	err := sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_b;indexdata=b,numeric"), dynbuf.NewSize(0))
	assert.Error(t, err)
}

func TestSindexDeleteAbsentIsIdempotent(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	err := sx.Delete("sindex-delete", paramstr.Parse("ns=test;indexname=idx_age"), dynbuf.NewSize(0))
	assert.NoError(t, err)
}

func TestSindexDeleteRemovesDefinition(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	require.NoError(t, sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_age;indexdata=age,numeric"), dynbuf.NewSize(0)))

	err := sx.Delete("sindex-delete", paramstr.Parse("ns=test;indexname=idx_age"), dynbuf.NewSize(0))
	assert.NoError(t, err)

	recs, err := sx.smd.Snapshot("sindex")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSindexPublishesEvents(t *testing.T) {
	sx := NewSindex(bootstrapTestSMD(t), 0)
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sx.SetBroker(broker)
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	require.NoError(t, sx.Create("sindex-create", paramstr.Parse("ns=test;indexname=idx_age;indexdata=age,numeric"), dynbuf.NewSize(0)))
	ev := <-sub
	assert.Equal(t, events.EventSindexCreated, ev.Type)
	assert.Equal(t, "idx_age", ev.Message)
}
